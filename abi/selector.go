// Package abi provides the Solidity-compatible selector and storage-slot
// hashing rules shared by contract codegen, the guest runtime, and the
// host interposer, plus thin wrappers around go-ethereum's argument
// encoding for ABI-compatible calldata.
package abi

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/crypto"
)

// SelectorLength is the width, in bytes, of a function or custom-error
// selector.
const SelectorLength = 4

// Selector is the 4-byte dispatch key computed from a canonical signature.
type Selector [SelectorLength]byte

// ComputeSelector hashes a canonical signature ("name(type1,type2,...)")
// and takes its first four bytes, matching Solidity's selector rule.
func ComputeSelector(canonicalSignature string) Selector {
	h := crypto.Keccak256([]byte(canonicalSignature))
	var s Selector
	copy(s[:], h[:SelectorLength])
	return s
}

// Matches reports whether the leading SelectorLength bytes of calldata
// equal s.
func (s Selector) Matches(calldata []byte) bool {
	if len(calldata) < SelectorLength {
		return false
	}
	return Selector{calldata[0], calldata[1], calldata[2], calldata[3]} == s
}

// Bytes returns the selector's 4 bytes.
func (s Selector) Bytes() []byte { return s[:] }

// Arguments is a re-export of go-ethereum's abi.Arguments, used by
// generated per-method encode/decode wrappers so contract codegen never
// hand-rolls ABI packing.
type Arguments = abi.Arguments

// Pack prefixes ABI-encoded args with the selector, producing standard
// EVM calldata: selector_be4 || abi_encoded_args.
func Pack(selector Selector, args abi.Arguments, values ...interface{}) ([]byte, error) {
	packed, err := args.Pack(values...)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, SelectorLength+len(packed))
	out = append(out, selector[:]...)
	out = append(out, packed...)
	return out, nil
}

// Unpack ABI-decodes the tail of calldata (after the 4-byte selector)
// into values per args.
func Unpack(args abi.Arguments, calldata []byte) ([]interface{}, error) {
	if len(calldata) < SelectorLength {
		return args.Unpack(nil)
	}
	return args.Unpack(calldata[SelectorLength:])
}

// BE32 big-endian-encodes a uint256 mapping id / slot index into 32 bytes,
// the form the mapping-slot hash below expects.
func BE32(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

// Uint64BE32 is a convenience for small integral mapping ids.
func Uint64BE32(v uint64) []byte {
	var b [32]byte
	binary.BigEndian.PutUint64(b[24:], v)
	return b[:]
}
