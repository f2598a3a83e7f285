// Package guest is the runtime linked into every R55 contract: it owns
// the bump allocator, calldata/selector dispatch, Solidity-compatible
// storage primitives (including the lazy-SLOAD/dirty-SSTORE mapping
// guard), and the ECALL wrappers a compiled contract calls into instead
// of touching host state directly. It carries no goroutine scheduling or
// OS-backed allocation — only what a single-threaded, non-preemptible
// guest frame needs.
package guest

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
	syscallpkg "github.com/r55-lang/r55/syscall"
)

// Bridge is the seam between "make an ECALL" and the rest of the guest
// runtime. On GOARCH=riscv64 it is backed by real inline-asm trap
// wrappers (bridge_riscv64.s); everywhere else — host-side unit tests,
// go vet, IDE tooling, and the build orchestrator's own test suite — it
// is backed by the in-process simulated bridge in bridge_sim.go, letting
// guest-callable logic be exercised from ordinary `go test`.
type Bridge interface {
	// ECall issues one trap carrying syscall number n and up to six
	// scalar arguments, returning up to three scalar results per
	// register convention.
	ECall(n syscallpkg.Number, args [6]uint64) (results [3]uint64)
}

// active is the process-wide bridge a contract's generated entry point
// calls through. Real guest binaries install the riscv64 bridge from
// their init(); simulated tests install a *SimBridge.
var active Bridge = defaultSimBridge()

// Use installs b as the active bridge. Test code typically calls this
// with a fresh *SimBridge before invoking a contract's handlers directly.
func Use(b Bridge) { active = b }

func ecall(n syscallpkg.Number, a0, a1, a2, a3, a4, a5 uint64) [3]uint64 {
	return active.ECall(n, [6]uint64{a0, a1, a2, a3, a4, a5})
}

// Return terminates the guest frame successfully with output bytes.
func Return(output []byte) {
	off, size := stageBytes(output)
	ecall(syscallpkg.Return, off, size, 0, 0, 0, 0)
}

// Revert terminates the guest frame unsuccessfully with a revert payload.
func Revert(payload []byte) {
	off, size := stageBytes(payload)
	ecall(syscallpkg.Revert, off, size, 0, 0, 0, 0)
}

// SLoad reads a single 32-byte storage word.
func SLoad(slot types.Hash) types.Hash {
	off, _ := stageBytes(slot.Bytes())
	res := ecall(syscallpkg.SLoad, off, 0, 0, 0, 0, 0)
	out, _ := loadBytes(res[0], 32)
	return types.BytesToHash(out)
}

// SStore writes a single 32-byte storage word.
func SStore(slot, value types.Hash) {
	slotOff, _ := stageBytes(slot.Bytes())
	valOff, _ := stageBytes(value.Bytes())
	ecall(syscallpkg.SStore, slotOff, valOff, 0, 0, 0, 0)
}

// Keccak256 hashes data via the host's metered KECCAK256 ECALL rather
// than computing the hash in-guest, so the host can charge EVM KECCAK
// gas pricing over the exact input length.
func Keccak256(data []byte) types.Hash {
	off, size := stageBytes(data)
	res := ecall(syscallpkg.Keccak256, off, size, 0, 0, 0, 0)
	out, _ := loadBytes(res[0], 32)
	return types.BytesToHash(out)
}

// CallDataSize returns the length of the incoming call's calldata.
func CallDataSize() uint64 {
	res := ecall(syscallpkg.CallDataSize, 0, 0, 0, 0, 0, 0)
	return res[0]
}

// CallData copies the full incoming calldata into the guest.
func CallData() []byte {
	size := CallDataSize()
	destOff := stage(size)
	ecall(syscallpkg.CallDataCopy, destOff, 0, size, 0, 0, 0)
	out, _ := loadBytes(destOff, size)
	return out
}

// Call enters a new value-transferring call frame. ret is the full
// return data, copied in its entirety with no 32-byte-chunk truncation.
func Call(addr types.Address, value uint64, data []byte) (ret []byte, reverted bool) {
	return doCall(syscallpkg.Call, addr, value, data)
}

// StaticCall enters a new read-only call frame.
func StaticCall(addr types.Address, data []byte) (ret []byte, reverted bool) {
	return doCall(syscallpkg.StaticCall, addr, 0, data)
}

func doCall(n syscallpkg.Number, addr types.Address, value uint64, data []byte) (ret []byte, reverted bool) {
	a0, a1, a2 := addressLimbs(addr)
	dataOff, dataSize := stageBytes(data)
	res := ecall(n, a0, a1, a2, value, dataOff, dataSize)
	success := res[0] != 0
	size := ecall(syscallpkg.ReturnDataSize, 0, 0, 0, 0, 0, 0)[0]
	buf := stage(size)
	ecall(syscallpkg.ReturnDataCopy, buf, 0, size, 0, 0, 0)
	out, _ := loadBytes(buf, size)
	return out, !success
}

// Create deploys R55 initcode and returns the resulting contract address.
func Create(value uint64, initcode []byte) types.Address {
	off, size := stageBytes(initcode)
	res := ecall(syscallpkg.Create, value, off, size, 0, 0, 0)
	return limbsToAddress(res[0], res[1], res[2])
}

// LogN emits a log with the given topics and data.
func LogN(topics []types.Hash, data []byte) {
	n, ok := syscallpkg.LogN(len(topics))
	if !ok {
		panic("guest: at most 4 log topics supported")
	}
	dataOff, dataSize := stageBytes(data)
	var args [6]uint64
	args[0] = dataOff
	args[1] = dataSize
	for i, t := range topics {
		off, _ := stageBytes(t.Bytes())
		args[2+i] = off
	}
	ecall(n, args[0], args[1], args[2], args[3], args[4], args[5])
}

// Caller returns the immediate caller's address.
func Caller() types.Address {
	res := ecall(syscallpkg.Caller, 0, 0, 0, 0, 0, 0)
	return limbsToAddress(res[0], res[1], res[2])
}

// Origin returns the transaction's originating EOA.
func Origin() types.Address {
	res := ecall(syscallpkg.Origin, 0, 0, 0, 0, 0, 0)
	return limbsToAddress(res[0], res[1], res[2])
}

// SelfAddress returns the executing contract's own address.
func SelfAddress() types.Address {
	res := ecall(syscallpkg.Address, 0, 0, 0, 0, 0, 0)
	return limbsToAddress(res[0], res[1], res[2])
}

// Value returns the wei value attached to the current call.
func Value() *uint256.Int {
	res := ecall(syscallpkg.Value, 0, 0, 0, 0, 0, 0)
	return uint256.NewInt(0).SetUint64(res[0]) // a0 only: the host returns the low 64 bits, so values above 2^64-1 wei do not come through
}

// Balance returns the wei balance of addr.
func Balance(addr types.Address) *uint256.Int {
	a0, a1, a2 := addressLimbs(addr)
	res := ecall(syscallpkg.Balance, a0, a1, a2, 0, 0, 0)
	return uint256.NewInt(0).SetUint64(res[0])
}

// ChainID returns the host chain's identifier.
func ChainID() uint64 {
	return ecall(syscallpkg.ChainID, 0, 0, 0, 0, 0, 0)[0]
}

// GasLeft returns the remaining gas in the current frame.
func GasLeft() uint64 {
	return ecall(syscallpkg.GasLeft, 0, 0, 0, 0, 0, 0)[0]
}

// BlockNumber returns the current block's number.
func BlockNumber() uint64 { return ecall(syscallpkg.BlockNumber, 0, 0, 0, 0, 0, 0)[0] }

// BlockTimestamp returns the current block's timestamp.
func BlockTimestamp() uint64 { return ecall(syscallpkg.BlockTimestamp, 0, 0, 0, 0, 0, 0)[0] }

// BlockGasLimit returns the current block's gas limit.
func BlockGasLimit() uint64 { return ecall(syscallpkg.BlockGasLimit, 0, 0, 0, 0, 0, 0)[0] }

// BlockCoinbase returns the current block's fee recipient.
func BlockCoinbase() types.Address {
	res := ecall(syscallpkg.BlockCoinbase, 0, 0, 0, 0, 0, 0)
	return limbsToAddress(res[0], res[1], res[2])
}

func addressLimbs(a types.Address) (uint64, uint64, uint64) {
	var padded [32]byte
	copy(padded[12:], a.Bytes())
	lo := beUint64(padded[24:32])
	mid := beUint64(padded[16:24])
	hi := beUint64(padded[8:16])
	return lo, mid, hi
}

func limbsToAddress(lo, mid, hi uint64) types.Address {
	var b [20]byte
	putBE64(b[0:4], hi)
	putBE64(b[4:12], mid)
	putBE64(b[12:20], lo)
	return types.BytesToAddress(b[:])
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func putBE64(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}
