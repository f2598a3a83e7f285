package guest

import (
	"encoding/binary"

	"github.com/r55-lang/r55/core/types"
)

// R55Tag is the single byte prefixed to every produced initcode and
// runtime blob. The host interposer
// switches on this byte to decide whether a call frame's code is RV64IMAC
// or ordinary EVM bytecode.
const R55Tag = 0xFF

// Deployable is implemented by the build orchestrator's generated
// `deployable_gen.go` for every deployable dependency it embeds. Bytecode
// returns the embedded runtime bytes (via //go:embed, baked in at build
// time by the build orchestrator); Deploy crafts R55 initcode and issues
// Create.
type Deployable interface {
	// Bytecode returns this contract's runtime bytes, without the 0xFF
	// tag (the deploy stub and Create both add it where needed).
	Bytecode() []byte
}

// BuildInitcode crafts `0xFF || codesize_be32 || runtime_bytes ||
// abi_encoded_constructor_args`, the exact layout a
// deploy-stub guest entry emits and the host's CREATE path expects.
func BuildInitcode(runtime []byte, constructorArgs []byte) []byte {
	out := make([]byte, 0, 1+4+len(runtime)+len(constructorArgs))
	out = append(out, R55Tag)
	var sizeBuf [4]byte
	binary.BigEndian.PutUint32(sizeBuf[:], uint32(len(runtime)))
	out = append(out, sizeBuf[:]...)
	out = append(out, runtime...)
	out = append(out, constructorArgs...)
	return out
}

// Deploy packs BuildInitcode's output into the guest arena and issues
// Create, returning the new contract's address — the generic body every
// generated `_deploy.go`'s Deploy(args) calls after ABI-encoding its own
// constructor argument list.
func Deploy(d Deployable, value uint64, constructorArgs []byte) types.Address {
	initcode := BuildInitcode(d.Bytecode(), constructorArgs)
	return Create(value, initcode)
}

// RuntimeBlob wraps runtime bytes with the R55 tag for the post-
// construction Return a deploy-stub guest entry issues.
func RuntimeBlob(runtime []byte) []byte {
	out := make([]byte, 0, 1+len(runtime))
	out = append(out, R55Tag)
	out = append(out, runtime...)
	return out
}
