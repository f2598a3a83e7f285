package abi

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/crypto"
)

// MappingSlot computes the storage key for a single-level mapping access:
// keccak256(abi_encode(key) || be32(mappingID)), matching Solidity's own
// mapping layout rule. encodedKey is the caller's ABI encoding of the key
// value (already produced via Arguments.Pack for the key's declared
// type).
func MappingSlot(mappingID *uint256.Int, encodedKey []byte) types.Hash {
	return crypto.Keccak256Hash(encodedKey, BE32(mappingID))
}

// NestedMappingID derives the inner mapping's id from an outer mapping
// access, so that a nested mapping's key hashing recurses the same way a
// Solidity `mapping(K1 => mapping(K2 => V))` does: the outer lookup's slot
// hash becomes the seed mapping id for the inner lookup.
func NestedMappingID(outerSlot types.Hash) *uint256.Int {
	id := new(uint256.Int)
	id.SetBytes(outerSlot.Bytes())
	return id
}
