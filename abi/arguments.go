package abi

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// NewArguments builds an abi.Arguments list from canonical Solidity type
// names ("uint256", "address", "bool", "bytes", "string", "uint64", ...),
// the small, fixed vocabulary codegen's generated _abi.go files need for
// encoding/decoding method parameters and return values. It panics on an
// unrecognized type name — generated code calls this once at package
// init, so a bad type name is a codegen bug, not a runtime condition.
func NewArguments(typeNames ...string) abi.Arguments {
	args := make(abi.Arguments, len(typeNames))
	for i, name := range typeNames {
		t, err := abi.NewType(name, "", nil)
		if err != nil {
			panic(fmt.Sprintf("abi: unsupported canonical type %q: %v", name, err))
		}
		args[i] = abi.Argument{Type: t}
	}
	return args
}
