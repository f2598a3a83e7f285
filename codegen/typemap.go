package codegen

import (
	"fmt"
	"regexp"
	"strings"
)

// solidityName maps a contract's Go type spelling (as produced by
// go/types.ExprString over the parsed AST) to the canonical Solidity
// type name the ABI calling convention and selector hashing use.
// This is intentionally a small, closed vocabulary: the elementary types
// a selector round-trips against, plus one level of slice-of-elementary
// for array parameters.
func solidityName(goType string) (string, error) {
	if direct, ok := directTypeMap[goType]; ok {
		return direct, nil
	}
	if strings.HasPrefix(goType, "[]") {
		elem, err := solidityName(goType[2:])
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	}
	if fixedWidthIntRe.MatchString(goType) {
		return goType, nil
	}
	return "", fmt.Errorf("codegen: no Solidity type mapping for Go type %q", goType)
}

var directTypeMap = map[string]string{
	"*uint256.Int":  "uint256",
	"uint256.Int":   "uint256",
	"types.Address": "address",
	"Address":       "address",
	"types.Hash":    "bytes32",
	"Hash":          "bytes32",
	"bool":          "bool",
	"[]byte":        "bytes",
	"string":        "string",
}

// fixedWidthIntRe matches Go's fixed-width integer type names, which are
// already valid Solidity ABI type names (uint64, int32, ...).
var fixedWidthIntRe = regexp.MustCompile(`^u?int(8|16|24|32|40|48|56|64|72|96|128|160|192|224|256)$`)
