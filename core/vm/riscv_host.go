package vm

// riscv_host.go is the ECALL dispatch table: the seam between a running
// riscv.CPU and this package's EVM/Contract/StateDB/AccessListTracker,
// translating every guest trap into the EVM operation and gas charge
// names. Grounded in go-ethereum's core/vm/interpreter.go
// opcode switch (the same SLOAD/SSTORE/CALL/STATICCALL/CREATE/LOG/
// KECCAK256 operations, reached here via ECALL instead of an opcode
// fetch) and in guest/bridge.go's register conventions, of which this
// file is the host-side mirror.

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/crypto"
	"github.com/r55-lang/r55/riscv"
	"github.com/r55-lang/r55/syscall"
)

// hostScratchSize is reserved at the top of every call frame's guest
// arena for the host to stage result bytes (an SLOAD's value, a
// Keccak256 digest) that a guest ECALL expects to read back by offset.
// The guest's own bump allocator (guest/alloc.go) only ever grows
// upward from 0, and its stack pointer is pulled down to the base of
// this window before the guest's first instruction runs, so the two
// never collide. An arena smaller than twice this size reserves its
// upper half instead.
const hostScratchSize = 1 << 20

// riscvHost holds the per-frame state the dispatch loop needs beyond
// what EVM/Contract already carry: the frame's memory arena, its host
// scratch bump pointer, and the terminal Return/Revert outcome.
type riscvHost struct {
	evm      *EVM
	contract *Contract
	mem      *riscv.Memory

	scratchNext uint64

	returnData []byte // data from this frame's last Call/StaticCall/Create
	output     []byte // this frame's own Return/Revert payload
	reverted   bool
}

// newRiscvHost reserves the top hostScratchSize bytes of mem (the upper
// half of a smaller arena); runRISCV starts the CPU's stack pointer at
// the base of that window.
func newRiscvHost(evm *EVM, contract *Contract, mem *riscv.Memory) *riscvHost {
	scratch := uint64(hostScratchSize)
	if scratch > mem.Len()/2 {
		scratch = mem.Len() / 2
	}
	return &riscvHost{
		evm:         evm,
		contract:    contract,
		mem:         mem,
		scratchNext: mem.Len() - scratch,
	}
}

// stage bump-allocates room in the host scratch window and writes b
// into it, returning the offset a guest ECALL result register can point
// at.
func (h *riscvHost) stage(b []byte) (uint64, error) {
	off := h.scratchNext
	end := off + uint64(len(b))
	if end > h.mem.Len() {
		return 0, ErrReturnDataOutOfBounds
	}
	if err := h.mem.Write(off, b); err != nil {
		return 0, err
	}
	h.scratchNext = end
	return off, nil
}

func (h *riscvHost) chargeGas(amount uint64) error {
	if !h.contract.UseGas(amount) {
		return ErrOutOfGas
	}
	return nil
}

func hashToUint256(h types.Hash) uint256.Int {
	var v uint256.Int
	v.SetBytes(h.Bytes())
	return v
}

// dispatch services one ECALL trap: it reads the syscall number from t0
// and arguments from a0-a5, and writes up to three results into a0-a2.
// It is installed as the riscv.CPU's ECALLHandler for the lifetime of
// one call frame.
func (h *riscvHost) dispatch(cpu *riscv.CPU) (resume bool, err error) {
	n := syscall.Number(cpu.X[riscv.RegT0])
	a0 := cpu.X[riscv.RegA0]
	a1 := cpu.X[riscv.RegA1]
	a2 := cpu.X[riscv.RegA2]
	a3 := cpu.X[riscv.RegA3]
	a4 := cpu.X[riscv.RegA4]
	a5 := cpu.X[riscv.RegA5]

	setResult := func(r0, r1, r2 uint64) {
		cpu.X[riscv.RegA0] = r0
		cpu.X[riscv.RegA1] = r1
		cpu.X[riscv.RegA2] = r2
	}

	switch n {
	case syscall.Return:
		out, rerr := h.mem.Read(a0, a1)
		if rerr != nil {
			return false, rerr
		}
		h.output = out
		return false, nil

	case syscall.Revert:
		out, rerr := h.mem.Read(a0, a1)
		if rerr != nil {
			return false, rerr
		}
		h.output = out
		h.reverted = true
		return false, nil

	case syscall.SLoad:
		slotBytes, rerr := h.mem.Read(a0, 32)
		if rerr != nil {
			return false, rerr
		}
		slot := types.BytesToHash(slotBytes)
		if err := h.chargeGas(h.evm.accessList.SlotGas(h.contract.Address, slot)); err != nil {
			return false, err
		}
		val := h.evm.StateDB.GetState(h.contract.Address, slot)
		off, serr := h.stage(val.Bytes())
		if serr != nil {
			return false, serr
		}
		setResult(off, 0, 0)
		return true, nil

	case syscall.SStore:
		if h.evm.readOnly {
			return false, ErrWriteProtection
		}
		slotBytes, rerr := h.mem.Read(a0, 32)
		if rerr != nil {
			return false, rerr
		}
		valBytes, rerr := h.mem.Read(a1, 32)
		if rerr != nil {
			return false, rerr
		}
		slot := types.BytesToHash(slotBytes)
		newVal := types.BytesToHash(valBytes)
		_, warm := h.evm.accessList.TouchSlot(h.contract.Address, slot)
		current := h.evm.StateDB.GetState(h.contract.Address, slot)
		cost, refund := syscall.SstoreGas(warm, hashToUint256(current), hashToUint256(newVal))
		if err := h.chargeGas(cost); err != nil {
			return false, err
		}
		if refund > 0 {
			h.evm.StateDB.AddRefund(refund)
		}
		h.evm.StateDB.SetState(h.contract.Address, slot, newVal)
		return true, nil

	case syscall.Keccak256:
		data, rerr := h.mem.Read(a0, a1)
		if rerr != nil {
			return false, rerr
		}
		if err := h.chargeGas(syscall.KeccakGas(a1)); err != nil {
			return false, err
		}
		off, serr := h.stage(crypto.Keccak256(data))
		if serr != nil {
			return false, serr
		}
		setResult(off, 0, 0)
		return true, nil

	case syscall.CallDataSize:
		setResult(uint64(len(h.contract.Input)), 0, 0)
		return true, nil

	case syscall.CallDataCopy:
		size := a2
		if err := h.chargeGas(syscall.CopyGas(size)); err != nil {
			return false, err
		}
		buf := make([]byte, size)
		copy(buf, h.contract.Input) // zero-pads past len(Input), matching EVM CALLDATACOPY
		if werr := h.mem.Write(a0, buf); werr != nil {
			return false, werr
		}
		return true, nil

	case syscall.Call, syscall.StaticCall:
		addr := limbsToAddress(a0, a1, a2)
		static := n == syscall.StaticCall
		value := a3
		if static {
			value = 0
		}
		data, rerr := h.mem.Read(a4, a5)
		if rerr != nil {
			return false, rerr
		}
		valueU256 := new(uint256.Int).SetUint64(value)

		warmBefore := h.evm.accessList.AddressWarm(addr)
		empty := h.evm.StateDB.Empty(addr)
		if err := h.chargeGas(syscall.CallGas(*valueU256, !warmBefore, empty)); err != nil {
			return false, err
		}

		forward, retained := splitCallGas(h.contract.Gas)
		h.contract.Gas = retained

		var ret []byte
		var gasLeftAfter uint64
		var callErr error
		if static {
			ret, gasLeftAfter, callErr = h.evm.StaticCall(h.contract.Address, addr, data, forward)
		} else {
			ret, gasLeftAfter, callErr = h.evm.Call(h.contract.Address, addr, data, forward, valueU256)
		}
		h.contract.RefundGas(gasLeftAfter)
		h.returnData = ret

		success := uint64(0)
		if callErr == nil {
			success = 1
		}
		setResult(success, 0, 0)
		return true, nil

	case syscall.Create:
		if h.evm.readOnly {
			return false, ErrWriteProtection
		}
		initcode, rerr := h.mem.Read(a1, a2)
		if rerr != nil {
			return false, rerr
		}
		params := &CreateParams{
			Caller:   h.contract.Address,
			InitCode: initcode,
			Value:    new(uint256.Int).SetUint64(a0),
			Gas:      h.contract.Gas,
		}
		result := NewCreateExecutor().Execute(h.evm, params)
		h.contract.Gas = result.GasLeft
		h.returnData = result.ReturnData
		if result.Err != nil {
			setResult(0, 0, 0)
			return true, nil
		}
		h.evm.accessList.AddressWarm(result.Address)
		lo, mid, hi := addressLimbs(result.Address)
		setResult(lo, mid, hi)
		return true, nil

	case syscall.Log0, syscall.Log1, syscall.Log2, syscall.Log3, syscall.Log4:
		if h.evm.readOnly {
			return false, ErrWriteProtection
		}
		topicCount := int(n - syscall.Log0)
		data, rerr := h.mem.Read(a0, a1)
		if rerr != nil {
			return false, rerr
		}
		if err := h.chargeGas(syscall.LogGas(topicCount, a1)); err != nil {
			return false, err
		}
		topicOffsets := [4]uint64{a2, a3, a4, a5}
		topics := make([]types.Hash, topicCount)
		for i := 0; i < topicCount; i++ {
			tBytes, terr := h.mem.Read(topicOffsets[i], 32)
			if terr != nil {
				return false, terr
			}
			topics[i] = types.BytesToHash(tBytes)
		}
		h.evm.StateDB.AddLog(&types.Log{
			Address: h.contract.Address,
			Topics:  topics,
			Data:    data,
		})
		return true, nil

	case syscall.ReturnDataSize:
		setResult(uint64(len(h.returnData)), 0, 0)
		return true, nil

	case syscall.ReturnDataCopy:
		size := a2
		if err := h.chargeGas(syscall.CopyGas(size)); err != nil {
			return false, err
		}
		buf := make([]byte, size)
		copy(buf, h.returnData) // zero-pads past len(returnData)
		if werr := h.mem.Write(a0, buf); werr != nil {
			return false, werr
		}
		return true, nil

	case syscall.Caller:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		lo, mid, hi := addressLimbs(h.contract.CallerAddress)
		setResult(lo, mid, hi)
		return true, nil

	case syscall.Origin:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		lo, mid, hi := addressLimbs(h.evm.TxContext.Origin)
		setResult(lo, mid, hi)
		return true, nil

	case syscall.Address:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		lo, mid, hi := addressLimbs(h.contract.Address)
		setResult(lo, mid, hi)
		return true, nil

	case syscall.Value:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		// Register-only carriage: a value above 2^64-1 wei cannot be
		// expressed through this single-limb getter (guest/bridge.go's
		// Value() reads only a0). No contract in this model transfers
		// more than that.
		setResult(h.contract.Value.Uint64(), 0, 0)
		return true, nil

	case syscall.Balance:
		addr := limbsToAddress(a0, a1, a2)
		warm := h.evm.accessList.AddressWarm(addr)
		if err := h.chargeGas(syscall.BalanceGas(warm)); err != nil {
			return false, err
		}
		bal := h.evm.StateDB.GetBalance(addr)
		setResult(bal.Uint64(), 0, 0)
		return true, nil

	case syscall.ChainID:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		setResult(h.evm.chainID, 0, 0)
		return true, nil

	case syscall.GasLeft:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		setResult(h.contract.Gas, 0, 0)
		return true, nil

	case syscall.BlockNumber:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		setResult(h.evm.Context.BlockNumber.Uint64(), 0, 0)
		return true, nil

	case syscall.BlockTimestamp:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		setResult(h.evm.Context.Time, 0, 0)
		return true, nil

	case syscall.BlockCoinbase:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		lo, mid, hi := addressLimbs(h.evm.Context.Coinbase)
		setResult(lo, mid, hi)
		return true, nil

	case syscall.BlockGasLimit:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		setResult(h.evm.Context.GasLimit, 0, 0)
		return true, nil

	case syscall.BlockBaseFee:
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		var baseFee uint64
		if h.evm.Context.BaseFee != nil {
			baseFee = h.evm.Context.BaseFee.Uint64()
		}
		setResult(baseFee, 0, 0)
		return true, nil

	case syscall.BlockDifficulty:
		// Always zero post-merge (PrevRandao has no guest-visible ECALL
		// of its own here); kept so a guest built against the full
		// numbering table never traps on this syscall.
		if err := h.chargeGas(syscall.GasContextGetter); err != nil {
			return false, err
		}
		setResult(0, 0, 0)
		return true, nil

	default:
		return false, &riscv.Trap{PC: cpu.PC, Message: "unknown syscall " + n.String()}
	}
}

// splitCallGas applies EIP-150's 63/64 rule: forward is what the callee
// receives, retained is what stays in the caller's frame across the
// call boundary (refunded back via Contract.RefundGas on return).
func splitCallGas(available uint64) (forward, retained uint64) {
	retained = available / CallGasFraction
	forward = available - retained
	return forward, retained
}
