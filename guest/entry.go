package guest

import (
	"github.com/r55-lang/r55/abi"
)

// DispatchEntry pairs a 4-byte selector with the handler codegen produces
// for one exported contract method.
type DispatchEntry struct {
	Selector abi.Selector
	Handler  func(calldata []byte)
}

// Dispatch is the ordered, selector-unique table a contract's generated
// `_dispatch.go` builds. Scanning is linear: selectors are
// globally unique, so a handler's position never affects semantics, only
// how quickly a given selector is found.
type Dispatch []DispatchEntry

// Entry reads calldata via CallDataSize/CallDataCopy, slices the 4-byte
// selector, scans table linearly, and invokes the first match. An unknown
// selector reverts with an empty payload.
// Handlers terminate the frame themselves via Return/Revert; Entry's job
// ends once it has found and called the right one. A guest-fatal panic
// anywhere in the call chain (arena exhaustion, a user handler panicking)
// is recovered here and turned into Revert(nil) — the Go analogue of a
// #[panic_handler] that cannot unwind.
func Entry(table Dispatch) {
	defer recoverToRevert()
	calldata := CallData()
	for _, e := range table {
		if e.Selector.Matches(calldata) {
			e.Handler(calldata)
			return
		}
	}
	Revert(nil)
}

// recoverToRevert is the guest's panic handler: a bare allocator panic
// (ErrOutOfMemory) or any other guest-fatal condition becomes a Revert
// with no payload, matching guestHalt is not an error — it's
// how Return/Revert themselves unwind out of a handler once the
// terminal ECALL has already been serviced, so it must pass through
// un-reverted.
func recoverToRevert() {
	r := recover()
	if r == nil {
		return
	}
	if _, ok := r.(guestHalt); ok {
		return
	}
	Revert(nil)
}

// RunEntry drives table against the SimBridge's staged calldata, for
// tests that want to exercise the full selector-dispatch path rather
// than calling a generated handler directly. It resets the arena first
// so repeated calls in one test function don't leak allocations across
// frames, matching how each real guest frame gets a fresh Arena.
func RunEntry(b *SimBridge, calldata []byte, table Dispatch) (reverted bool, ret []byte) {
	ResetArena()
	Use(b)
	b.CallDataBuf = calldata
	b.terminal = nil
	Entry(table)
	if b.terminal == nil {
		return true, nil
	}
	return b.terminal.revert, b.terminal.payload
}
