package guest

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/abi"
	"github.com/r55-lang/r55/core/types"
)

// Codec is implemented by a generated per-field value type, letting
// Mapping[K, V] serialize V to/from a single storage word without
// depending on a specific concrete type.
type Codec[V any] interface {
	Encode(v V) types.Hash
	Decode(h types.Hash) V
}

// Mapping models a single Solidity-style `mapping(K => V)` field. It
// carries only a mapping id; actual key slots are derived per access,
// using an ABI-encoding function for the key type.
type Mapping[K any, V any] struct {
	id     *uint256.Int
	encKey func(K) []byte
	codec  Codec[V]
}

// NewMapping constructs a mapping field bound to its layout-order id.
func NewMapping[K any, V any](id uint64, encodeKey func(K) []byte, codec Codec[V]) Mapping[K, V] {
	return Mapping[K, V]{id: uint256.NewInt(id), encKey: encodeKey, codec: codec}
}

// slotFor derives the per-key storage slot:
// keccak256(abi_encode(key) || be32(mapping_id)).
func (m Mapping[K, V]) slotFor(key K) types.Hash {
	return abi.MappingSlot(m.id, m.encKey(key))
}

// Get performs the lazy single SLOAD and returns the decoded value,
// without creating a guard — for callers that only read.
func (m Mapping[K, V]) Get(key K) V {
	slot := m.slotFor(key)
	return m.codec.Decode(SLoad(slot))
}

// Set performs a single unconditional SSTORE — for callers that always
// intend to write, skipping the guard's dirty-tracking entirely.
func (m Mapping[K, V]) Set(key K, v V) {
	slot := m.slotFor(key)
	SStore(slot, m.codec.Encode(v))
}

// MappingGuard is the transient, per-access object holding
// `{ storage_key, cached_value, dirty_flag }`. Go has no destructors, so
// "on scope exit" is modeled as "at the end of With's callback" rather
// than a leaked reference — move-only-by-convention usage is preferable
// to that leak. At most one SLOAD happens in New; at most one SSTORE
// happens in commit, and only if Mut was ever called.
type MappingGuard[V any] struct {
	slot  types.Hash
	value V
	dirty bool
	codec Codec[V]
}

func newGuard[V any](slot types.Hash, codec Codec[V]) *MappingGuard[V] {
	return &MappingGuard[V]{
		slot:  slot,
		value: codec.Decode(SLoad(slot)),
		codec: codec,
	}
}

// Get returns the guard's cached value without marking it dirty.
func (g *MappingGuard[V]) Get() V { return g.value }

// Mut returns a pointer to the cached value and marks the guard dirty —
// mutable and immutable access share the identical cached layout; only
// the caller's declared mutability gates the dirty transition.
func (g *MappingGuard[V]) Mut() *V {
	g.dirty = true
	return &g.value
}

// Set overwrites the cached value and marks the guard dirty in one step.
func (g *MappingGuard[V]) Set(v V) {
	g.value = v
	g.dirty = true
}

// commit issues the single conditional SSTORE, iff the guard was ever
// mutated: on scope exit, if and only if the dirty flag is set, issue a
// single SSTORE.
func (g *MappingGuard[V]) commit() {
	if g.dirty {
		SStore(g.slot, g.codec.Encode(g.value))
	}
}

// With opens a guard over key's slot, invokes fn, and commits on return —
// a scoped alternative to returning the guard directly. A guard created
// by one With call is fully resolved (including its commit) before
// control returns to the caller, so a second With for the same key in
// sequence observes the first's write: the later access only observes
// the earlier write once the earlier guard has gone out of scope.
func (m Mapping[K, V]) With(key K, fn func(g *MappingGuard[V])) {
	slot := m.slotFor(key)
	g := newGuard(slot, m.codec)
	fn(g)
	g.commit()
}

// NestedMapping models `mapping(K1 => mapping(K2 => V))`: the outer
// lookup's slot hash seeds the inner mapping's id — nested mappings
// recurse.
type NestedMapping[K1, K2, V any] struct {
	outerID  *uint256.Int
	encOuter func(K1) []byte
	encInner func(K2) []byte
	codec    Codec[V]
}

// NewNestedMapping constructs a two-level mapping field.
func NewNestedMapping[K1, K2, V any](id uint64, encodeOuter func(K1) []byte, encodeInner func(K2) []byte, codec Codec[V]) NestedMapping[K1, K2, V] {
	return NestedMapping[K1, K2, V]{outerID: uint256.NewInt(id), encOuter: encodeOuter, encInner: encodeInner, codec: codec}
}

func (m NestedMapping[K1, K2, V]) inner(k1 K1) Mapping[K2, V] {
	outerSlot := abi.MappingSlot(m.outerID, m.encOuter(k1))
	innerID := abi.NestedMappingID(outerSlot)
	return Mapping[K2, V]{id: innerID, encKey: m.encInner, codec: m.codec}
}

// Get performs the two-level lookup: outer id derivation, then the inner
// mapping's own slot-derivation + SLOAD.
func (m NestedMapping[K1, K2, V]) Get(k1 K1, k2 K2) V {
	return m.inner(k1).Get(k2)
}

// Set performs the two-level lookup then an unconditional SSTORE.
func (m NestedMapping[K1, K2, V]) Set(k1 K1, k2 K2, v V) {
	m.inner(k1).Set(k2, v)
}

// With opens a scoped guard over the inner slot for (k1, k2).
func (m NestedMapping[K1, K2, V]) With(k1 K1, k2 K2, fn func(g *MappingGuard[V])) {
	m.inner(k1).With(k2, fn)
}

// Uint256Codec encodes/decodes a uint256.Int-valued mapping entry.
type Uint256Codec struct{}

func (Uint256Codec) Encode(v *uint256.Int) types.Hash {
	b := v.Bytes32()
	return types.BytesToHash(b[:])
}

func (Uint256Codec) Decode(h types.Hash) *uint256.Int {
	v := new(uint256.Int)
	v.SetBytes(h.Bytes())
	return v
}

// BoolCodec encodes/decodes a bool-valued mapping entry.
type BoolCodec struct{}

func (BoolCodec) Encode(v bool) types.Hash {
	var h types.Hash
	if v {
		h[31] = 1
	}
	return h
}

func (BoolCodec) Decode(h types.Hash) bool { return h.Bytes()[31] != 0 }

// AddressCodec encodes/decodes an address-valued mapping entry.
type AddressCodec struct{}

func (AddressCodec) Encode(v types.Address) types.Hash {
	var h types.Hash
	copy(h[12:], v.Bytes())
	return h
}

func (AddressCodec) Decode(h types.Hash) types.Address {
	return types.BytesToAddress(h.Bytes()[12:])
}

// EncodeUint256Key ABI-encodes a uint256 mapping key, the common case
// (ERC-20 balances keyed by address use EncodeAddressKey instead).
func EncodeUint256Key(v *uint256.Int) []byte {
	b := v.Bytes32()
	return b[:]
}

// EncodeAddressKey ABI-encodes an address mapping key (left-padded to 32
// bytes, Solidity's `mapping(address => ...)` convention).
func EncodeAddressKey(a types.Address) []byte {
	var b [32]byte
	copy(b[12:], a.Bytes())
	return b[:]
}
