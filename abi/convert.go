package abi

import (
	"math/big"

	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
)

// The conversion helpers below bridge go-ethereum's accounts/abi decode
// results (common.Address, *big.Int, native bool/[]byte/string) to this
// module's own value types (types.Address, *uint256.Int), and back for
// encoding. Generated _abi.go files call these by canonical Solidity
// type name rather than hand-rolling the conversion per contract.

// ToAddress converts an abi.Unpack result for an "address" parameter.
func ToAddress(v interface{}) types.Address {
	return types.BytesToAddress(v.(gethcommon.Address).Bytes())
}

// FromAddress converts a types.Address into the value abi.Pack expects
// for an "address" parameter.
func FromAddress(a types.Address) gethcommon.Address {
	return gethcommon.BytesToAddress(a.Bytes())
}

// ToUint256 converts an abi.Unpack result for a "uint256" parameter.
func ToUint256(v interface{}) *uint256.Int {
	u := new(uint256.Int)
	u.SetFromBig(v.(*big.Int))
	return u
}

// FromUint256 converts a *uint256.Int into the value abi.Pack expects
// for a "uint256" parameter.
func FromUint256(u *uint256.Int) *big.Int {
	return u.ToBig()
}

// ToHash converts an abi.Unpack result for a "bytes32" parameter.
func ToHash(v interface{}) types.Hash {
	b := v.([32]byte)
	return types.BytesToHash(b[:])
}

// FromHash converts a types.Hash into the value abi.Pack expects for a
// "bytes32" parameter.
func FromHash(h types.Hash) [32]byte {
	var b [32]byte
	copy(b[:], h.Bytes())
	return b
}

// ToBool converts an abi.Unpack result for a "bool" parameter (identity;
// provided so generated code can dispatch on Solidity type name uniformly
// rather than special-casing the types that need no conversion).
func ToBool(v interface{}) bool { return v.(bool) }

// FromBool is the identity conversion for a "bool" parameter.
func FromBool(b bool) bool { return b }

// ToBytes converts an abi.Unpack result for a "bytes" parameter.
func ToBytes(v interface{}) []byte { return v.([]byte) }

// FromBytes is the identity conversion for a "bytes" parameter.
func FromBytes(b []byte) []byte { return b }

// ToString converts an abi.Unpack result for a "string" parameter.
func ToString(v interface{}) string { return v.(string) }

// FromString is the identity conversion for a "string" parameter.
func FromString(s string) string { return s }

// ToUint64 converts an abi.Unpack result for a "uint64" parameter
// (go-ethereum's abi decodes integer widths <= 64 bits to the matching
// native Go integer type, not *big.Int).
func ToUint64(v interface{}) uint64 { return v.(uint64) }

// FromUint64 is the identity conversion for a "uint64" parameter.
func FromUint64(v uint64) uint64 { return v }
