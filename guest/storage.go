package guest

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
)

// Slot is a simple field's layout-order storage slot id: simple slots are
// assigned small integers by layout order. Generated code computes these
// once from field declaration order; this package only needs to turn a
// Slot into the Hash SLoad/SStore expect.
type Slot uint64

// Key returns the 32-byte storage key for a simple slot.
func (s Slot) Key() types.Hash {
	var h types.Hash
	be := uint256.NewInt(uint64(s)).Bytes32()
	copy(h[:], be[:])
	return h
}

// ReadUint256 loads a uint256-valued field at slot.
func ReadUint256(slot Slot) *uint256.Int {
	h := SLoad(slot.Key())
	v := new(uint256.Int)
	v.SetBytes(h.Bytes())
	return v
}

// WriteUint256 stores a uint256-valued field at slot.
func WriteUint256(slot Slot, v *uint256.Int) {
	b := v.Bytes32()
	SStore(slot.Key(), types.BytesToHash(b[:]))
}

// ReadAddress loads an address-valued field at slot (right-aligned in
// the 32-byte word, matching Solidity's storage packing for address).
func ReadAddress(slot Slot) types.Address {
	h := SLoad(slot.Key())
	return types.BytesToAddress(h.Bytes()[12:])
}

// WriteAddress stores an address-valued field at slot.
func WriteAddress(slot Slot, a types.Address) {
	var word types.Hash
	copy(word[12:], a.Bytes())
	SStore(slot.Key(), word)
}

// ReadBool loads a bool-valued field at slot.
func ReadBool(slot Slot) bool {
	h := SLoad(slot.Key())
	return h.Bytes()[31] != 0
}

// WriteBool stores a bool-valued field at slot.
func WriteBool(slot Slot, v bool) {
	var word types.Hash
	if v {
		word[31] = 1
	}
	SStore(slot.Key(), word)
}

// ReadBig loads a big.Int-valued field (the same word layout as
// ReadUint256, offered for generated code whose declared Go type is
// *big.Int rather than uint256.Int).
func ReadBig(slot Slot) *big.Int {
	h := SLoad(slot.Key())
	return new(big.Int).SetBytes(h.Bytes())
}

// WriteBig stores a big.Int-valued field, left-padded to 32 bytes.
func WriteBig(slot Slot, v *big.Int) {
	b := v.Bytes()
	var word types.Hash
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(word[32-len(b):], b)
	SStore(slot.Key(), word)
}

// WideSlots returns the n consecutive slots a type larger than 32 bytes
// packs into, starting at slot, as a contiguous span of words.
func WideSlots(slot Slot, n int) []Slot {
	out := make([]Slot, n)
	for i := range out {
		out[i] = slot + Slot(i)
	}
	return out
}
