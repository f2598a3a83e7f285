package vm

// access_list_tracker.go implements EIP-2929 warm/cold access tracking with
// journaling support for state reverts ("cold 2100 / warm
// 100" SLOAD/SSTORE pricing and BALANCE/CALL's cold-account surcharge).
// Adapted near-verbatim from go-ethereum's
// core/vm/access_list_tracker.go: the warm-set/journal/snapshot shape
// carries over unchanged since gas table is the same
// EIP-2929 scheme go-ethereum already implements.

import (
	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/syscall"
)

// AccessListTracker manages EIP-2929 warm/cold access tracking for
// addresses and storage slots during a frame's execution, with
// journaling for revert support via snapshots.
type AccessListTracker struct {
	addresses   map[types.Address]int
	slots       map[types.Address]map[types.Hash]int
	journal     []accessListChange
	snapshotIDs []int
}

type accessListChangeKind uint8

const (
	changeAddAddress accessListChangeKind = iota
	changeAddSlot
)

type accessListChange struct {
	kind    accessListChangeKind
	address types.Address
	slot    types.Hash
}

// NewAccessListTracker creates an empty AccessListTracker.
func NewAccessListTracker() *AccessListTracker {
	return &AccessListTracker{
		addresses: make(map[types.Address]int),
		slots:     make(map[types.Address]map[types.Hash]int),
	}
}

// PrePopulate warms the sender, recipient, and all precompile addresses
// per EIP-2929. Pre-populated entries use journal index -1 so they
// survive all reverts within this frame's lifetime.
func (alt *AccessListTracker) PrePopulate(sender types.Address, to *types.Address, accessList types.AccessList) {
	alt.addAddressNoJournal(sender)
	if to != nil {
		alt.addAddressNoJournal(*to)
	}
	for i := 1; i <= 0x13; i++ {
		alt.addAddressNoJournal(types.BytesToAddress([]byte{byte(i)}))
	}
	for _, tuple := range accessList {
		alt.addAddressNoJournal(tuple.Address)
		for _, key := range tuple.StorageKeys {
			alt.addSlotNoJournal(tuple.Address, key)
		}
	}
}

func (alt *AccessListTracker) addAddressNoJournal(addr types.Address) {
	if _, ok := alt.addresses[addr]; !ok {
		alt.addresses[addr] = -1
	}
}

func (alt *AccessListTracker) addSlotNoJournal(addr types.Address, slot types.Hash) {
	if _, ok := alt.addresses[addr]; !ok {
		alt.addresses[addr] = -1
	}
	slots, ok := alt.slots[addr]
	if !ok {
		slots = make(map[types.Hash]int)
		alt.slots[addr] = slots
	}
	if _, ok := slots[slot]; !ok {
		slots[slot] = -1
	}
}

// ContainsAddress returns true if the address is in the warm set.
func (alt *AccessListTracker) ContainsAddress(addr types.Address) bool {
	_, ok := alt.addresses[addr]
	return ok
}

// ContainsSlot returns (addressWarm, slotWarm).
func (alt *AccessListTracker) ContainsSlot(addr types.Address, slot types.Hash) (bool, bool) {
	_, addrOk := alt.addresses[addr]
	if !addrOk {
		return false, false
	}
	slots, ok := alt.slots[addr]
	if !ok {
		return true, false
	}
	_, slotOk := slots[slot]
	return true, slotOk
}

// TouchAddress warms an address if cold. Returns true if it was already
// warm.
func (alt *AccessListTracker) TouchAddress(addr types.Address) bool {
	if _, ok := alt.addresses[addr]; ok {
		return true
	}
	idx := len(alt.journal)
	alt.addresses[addr] = idx
	alt.journal = append(alt.journal, accessListChange{kind: changeAddAddress, address: addr})
	return false
}

// TouchSlot warms a storage slot (and its address) if cold. Returns
// (addressWarm, slotWarm) reflecting state before this call.
func (alt *AccessListTracker) TouchSlot(addr types.Address, slot types.Hash) (bool, bool) {
	addrWarm := alt.TouchAddress(addr)

	slots, ok := alt.slots[addr]
	if !ok {
		slots = make(map[types.Hash]int)
		alt.slots[addr] = slots
	}
	if _, slotOk := slots[slot]; slotOk {
		return addrWarm, true
	}

	idx := len(alt.journal)
	slots[slot] = idx
	alt.journal = append(alt.journal, accessListChange{kind: changeAddSlot, address: addr, slot: slot})
	return addrWarm, false
}

// Snapshot takes a snapshot of the current journal state.
func (alt *AccessListTracker) Snapshot() int {
	id := len(alt.snapshotIDs)
	alt.snapshotIDs = append(alt.snapshotIDs, len(alt.journal))
	return id
}

// RevertToSnapshot undoes all access-list changes made after the given
// snapshot. Pre-populated entries (journal index -1) are never reverted.
func (alt *AccessListTracker) RevertToSnapshot(id int) {
	if id < 0 || id >= len(alt.snapshotIDs) {
		return
	}
	journalLen := alt.snapshotIDs[id]

	for i := len(alt.journal) - 1; i >= journalLen; i-- {
		change := alt.journal[i]
		switch change.kind {
		case changeAddSlot:
			if slots := alt.slots[change.address]; slots != nil {
				if idx, ok := slots[change.slot]; ok && idx >= journalLen {
					delete(slots, change.slot)
				}
			}
		case changeAddAddress:
			if idx, ok := alt.addresses[change.address]; ok && idx >= journalLen {
				delete(alt.addresses, change.address)
			}
		}
	}

	alt.journal = alt.journal[:journalLen]
	alt.snapshotIDs = alt.snapshotIDs[:id]
}

// SlotGas returns the SLOAD/SSTORE gas cost for accessing (addr, slot),
// warming it if cold.D's "cold 2100 / warm 100" row.
func (alt *AccessListTracker) SlotGas(addr types.Address, slot types.Hash) uint64 {
	_, warm := alt.TouchSlot(addr, slot)
	return syscall.SloadGas(warm)
}

// AddressWarm reports and records whether addr is warm for a
// CALL/STATICCALL/BALANCE surcharge, warming it as a side effect.
func (alt *AccessListTracker) AddressWarm(addr types.Address) bool {
	return alt.TouchAddress(addr)
}

// Reset clears the tracker entirely (used between top-level transactions
// in tests; a live frame never calls this mid-execution).
func (alt *AccessListTracker) Reset() {
	alt.addresses = make(map[types.Address]int)
	alt.slots = make(map[types.Address]map[types.Hash]int)
	alt.journal = alt.journal[:0]
	alt.snapshotIDs = alt.snapshotIDs[:0]
}
