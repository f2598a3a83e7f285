package guest

import (
	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/crypto"
	syscallpkg "github.com/r55-lang/r55/syscall"
)

// SimBridge is an in-process host stand-in for exercising guest logic
// from ordinary `go test`, without cross-compiling to riscv64 or running
// the full host interposer: a minimal storage map, a canned calldata
// buffer, and hooks the test sets up before invoking a contract's
// generated entry point directly.
type SimBridge struct {
	Storage     map[types.Hash]types.Hash
	CallDataBuf []byte
	CallerAddr  types.Address
	OriginAddr  types.Address
	SelfAddr    types.Address
	ValueWei    uint64
	Chain       uint64
	Block       uint64
	Timestamp   uint64
	GasBudget   uint64
	Balances    map[types.Address]uint64

	// CallHandler lets a test script fake cross-contract Call / StaticCall
	// without a real host; if nil, calls return (nil, true), a revert
	// signaling no peer registered.
	CallHandler func(addr types.Address, value uint64, data []byte, static bool) (ret []byte, reverted bool)
	// CreateHandler similarly fakes Create.
	CreateHandler func(value uint64, initcode []byte) types.Address

	lastReturnData []byte
	sstoreCount    map[types.Hash]int
	sloadCount     map[types.Hash]int
	terminal       *terminalSignal
}

type terminalSignal struct {
	revert  bool
	payload []byte
}

func defaultSimBridge() *SimBridge {
	return NewSimBridge()
}

// NewSimBridge returns a bridge with empty storage and zeroed context
// fields, ready for a test to populate before calling Use(bridge).
func NewSimBridge() *SimBridge {
	return &SimBridge{
		Storage:     make(map[types.Hash]types.Hash),
		sstoreCount: make(map[types.Hash]int),
		sloadCount:  make(map[types.Hash]int),
	}
}

// SloadCount reports how many SLOADs this bridge serviced for slot,
// supporting the "exactly one SLOAD" invariant tests.
func (b *SimBridge) SloadCount(slot types.Hash) int { return b.sloadCount[slot] }

// SstoreCount reports how many SSTOREs this bridge serviced for slot.
func (b *SimBridge) SstoreCount(slot types.Hash) int { return b.sstoreCount[slot] }

// TotalSstoreCount reports how many SSTOREs this bridge has serviced
// across every slot, for tests that want to assert "no writes happened
// at all" without naming a specific slot.
func (b *SimBridge) TotalSstoreCount() int {
	total := 0
	for _, n := range b.sstoreCount {
		total += n
	}
	return total
}

// Terminal reports whether the guest issued Return/Revert, and with what
// payload, after a call into a contract entry point under this bridge.
func (b *SimBridge) Terminal() (reverted bool, payload []byte, ok bool) {
	if b.terminal == nil {
		return false, nil, false
	}
	return b.terminal.revert, b.terminal.payload, true
}

// guestHalt is recovered by RunEntry to turn a terminal ECALL into a
// normal function return, mirroring how the riscv64 bridge's Return/
// Revert never come back to the caller either (the real CPU interpreter
// stops stepping instead).
type guestHalt struct{}

func (b *SimBridge) ECall(n syscallpkg.Number, args [6]uint64) [3]uint64 {
	switch n {
	case syscallpkg.Return:
		out, _ := loadBytes(args[0], args[1])
		b.terminal = &terminalSignal{revert: false, payload: out}
		panic(guestHalt{})
	case syscallpkg.Revert:
		out, _ := loadBytes(args[0], args[1])
		b.terminal = &terminalSignal{revert: true, payload: out}
		panic(guestHalt{})
	case syscallpkg.SLoad:
		slotBytes, _ := loadBytes(args[0], 32)
		slot := types.BytesToHash(slotBytes)
		b.sloadCount[slot]++
		val := b.Storage[slot]
		off, _ := stageBytes(val.Bytes())
		return [3]uint64{off, 0, 0}
	case syscallpkg.SStore:
		slotBytes, _ := loadBytes(args[0], 32)
		valBytes, _ := loadBytes(args[1], 32)
		slot := types.BytesToHash(slotBytes)
		b.sstoreCount[slot]++
		b.Storage[slot] = types.BytesToHash(valBytes)
		return [3]uint64{}
	case syscallpkg.Keccak256:
		data, _ := loadBytes(args[0], args[1])
		h := crypto.Keccak256Hash(data)
		off, _ := stageBytes(h.Bytes())
		return [3]uint64{off, 0, 0}
	case syscallpkg.CallDataSize:
		return [3]uint64{uint64(len(b.CallDataBuf)), 0, 0}
	case syscallpkg.CallDataCopy:
		n := args[2]
		if n > uint64(len(b.CallDataBuf)) {
			n = uint64(len(b.CallDataBuf))
		}
		_ = arena.WriteAt(args[0], b.CallDataBuf[:n])
		return [3]uint64{}
	case syscallpkg.Call, syscallpkg.StaticCall:
		// doCall always passes value at a3 (0 for StaticCall) and the
		// data offset/size at a4/a5, regardless of which syscall.
		addr := limbsToAddress(args[0], args[1], args[2])
		value := args[3]
		dataOff, dataSize := args[4], args[5]
		static := n == syscallpkg.StaticCall
		data, _ := loadBytes(dataOff, dataSize)
		var ret []byte
		var reverted bool
		if b.CallHandler != nil {
			ret, reverted = b.CallHandler(addr, value, data, static)
		} else {
			reverted = true
		}
		b.lastReturnData = ret
		if reverted {
			return [3]uint64{0, 0, 0}
		}
		return [3]uint64{1, 0, 0}
	case syscallpkg.ReturnDataSize:
		return [3]uint64{uint64(len(b.lastReturnData)), 0, 0}
	case syscallpkg.ReturnDataCopy:
		n := args[2]
		if n > uint64(len(b.lastReturnData)) {
			n = uint64(len(b.lastReturnData))
		}
		_ = arena.WriteAt(args[0], b.lastReturnData[:n])
		return [3]uint64{}
	case syscallpkg.Create:
		data, _ := loadBytes(args[1], args[2])
		var addr types.Address
		if b.CreateHandler != nil {
			addr = b.CreateHandler(args[0], data)
		}
		lo, mid, hi := addressLimbs(addr)
		return [3]uint64{lo, mid, hi}
	case syscallpkg.Caller:
		lo, mid, hi := addressLimbs(b.CallerAddr)
		return [3]uint64{lo, mid, hi}
	case syscallpkg.Origin:
		lo, mid, hi := addressLimbs(b.OriginAddr)
		return [3]uint64{lo, mid, hi}
	case syscallpkg.Address:
		lo, mid, hi := addressLimbs(b.SelfAddr)
		return [3]uint64{lo, mid, hi}
	case syscallpkg.Value:
		return [3]uint64{b.ValueWei, 0, 0}
	case syscallpkg.Balance:
		addr := limbsToAddress(args[0], args[1], args[2])
		return [3]uint64{b.Balances[addr], 0, 0}
	case syscallpkg.ChainID:
		return [3]uint64{b.Chain, 0, 0}
	case syscallpkg.GasLeft:
		return [3]uint64{b.GasBudget, 0, 0}
	case syscallpkg.BlockNumber:
		return [3]uint64{b.Block, 0, 0}
	case syscallpkg.BlockTimestamp:
		return [3]uint64{b.Timestamp, 0, 0}
	case syscallpkg.Log0, syscallpkg.Log1, syscallpkg.Log2, syscallpkg.Log3, syscallpkg.Log4:
		return [3]uint64{}
	default:
		return [3]uint64{}
	}
}

