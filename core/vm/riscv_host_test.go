package vm

import (
	"math/big"
	"testing"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/crypto"
	"github.com/r55-lang/r55/riscv"
	"github.com/r55-lang/r55/syscall"
)

func newTestHost(t *testing.T, memSize uint64) (*riscv.CPU, *riscvHost, *fakeStateDB, *Contract) {
	t.Helper()
	mem := riscv.NewMemory(memSize)
	cpu := riscv.NewCPU(mem, 0, nil)
	sdb := newFakeStateDB()
	evm := NewEVM(BlockContext{BlockNumber: big.NewInt(42), Time: 1000, GasLimit: 30_000_000, Coinbase: types.HexToAddress("0xc0ffee")},
		TxContext{Origin: types.HexToAddress("0x0101")}, 1337, sdb, Config{ArenaSize: memSize})
	self := types.HexToAddress("0xaaaa")
	caller := types.HexToAddress("0xbbbb")
	contract := NewContract(caller, self, nil, 1_000_000)
	host := newRiscvHost(evm, contract, mem)
	return cpu, host, sdb, contract
}

func TestDispatchSLoadCold(t *testing.T) {
	cpu, host, _, contract := newTestHost(t, 4096)
	slot := types.HexToHash("0x01")
	mustWrite(t, cpu.Mem, 0, slot.Bytes())
	cpu.X[riscv.RegA0] = 0
	cpu.X[riscv.RegT0] = uint64(syscall.SLoad)

	before := contract.Gas
	resume, err := host.dispatch(cpu)
	if err != nil || !resume {
		t.Fatalf("dispatch SLoad: resume=%v err=%v", resume, err)
	}
	if before-contract.Gas != syscall.GasSloadCold {
		t.Fatalf("expected cold SLOAD to cost %d, spent %d", syscall.GasSloadCold, before-contract.Gas)
	}
	out, rerr := cpu.Mem.Read(cpu.X[riscv.RegA0], 32)
	if rerr != nil {
		t.Fatal(rerr)
	}
	if types.BytesToHash(out) != (types.Hash{}) {
		t.Fatal("expected zero value for an unset slot")
	}
}

func TestDispatchSStoreColdWarmAndRefund(t *testing.T) {
	cpu, host, sdb, contract := newTestHost(t, 4096)
	slot := types.HexToHash("0x02")
	value := types.HexToHash("0x2a")
	mustWrite(t, cpu.Mem, 0, slot.Bytes())
	mustWrite(t, cpu.Mem, 32, value.Bytes())
	cpu.X[riscv.RegA0] = 0
	cpu.X[riscv.RegA1] = 32
	cpu.X[riscv.RegT0] = uint64(syscall.SStore)

	before := contract.Gas
	if resume, err := host.dispatch(cpu); err != nil || !resume {
		t.Fatalf("dispatch SStore: resume=%v err=%v", resume, err)
	}
	if before-contract.Gas != syscall.GasSstoreCold {
		t.Fatalf("expected cold SSTORE to cost %d, spent %d", syscall.GasSstoreCold, before-contract.Gas)
	}
	if got := sdb.GetState(contract.Address, slot); got != value {
		t.Fatalf("storage not updated: got %s want %s", got, value)
	}

	// Clearing the slot back to zero earns a refund.
	zero := types.Hash{}
	mustWrite(t, cpu.Mem, 32, zero.Bytes())
	before = contract.Gas
	if resume, err := host.dispatch(cpu); err != nil || !resume {
		t.Fatalf("dispatch SStore clear: resume=%v err=%v", resume, err)
	}
	if before-contract.Gas != syscall.GasSstoreWarm {
		t.Fatalf("expected warm SSTORE to cost %d, spent %d", syscall.GasSstoreWarm, before-contract.Gas)
	}
	if sdb.GetRefund() != syscall.GasSstoreClearRefund {
		t.Fatalf("expected clear refund %d, got %d", syscall.GasSstoreClearRefund, sdb.GetRefund())
	}
}

func TestDispatchKeccak256(t *testing.T) {
	cpu, host, _, _ := newTestHost(t, 4096)
	data := []byte("r55")
	mustWrite(t, cpu.Mem, 0, data)
	cpu.X[riscv.RegA0] = 0
	cpu.X[riscv.RegA1] = uint64(len(data))
	cpu.X[riscv.RegT0] = uint64(syscall.Keccak256)

	if resume, err := host.dispatch(cpu); err != nil || !resume {
		t.Fatalf("dispatch Keccak256: resume=%v err=%v", resume, err)
	}
	out, rerr := cpu.Mem.Read(cpu.X[riscv.RegA0], 32)
	if rerr != nil {
		t.Fatal(rerr)
	}
	want := crypto.Keccak256(data)
	if string(out) != string(want) {
		t.Fatalf("hash mismatch: got %x want %x", out, want)
	}
}

func TestDispatchCallDataSizeAndCopy(t *testing.T) {
	cpu, host, _, contract := newTestHost(t, 4096)
	contract.Input = []byte{1, 2, 3}

	cpu.X[riscv.RegT0] = uint64(syscall.CallDataSize)
	if _, err := host.dispatch(cpu); err != nil {
		t.Fatal(err)
	}
	if cpu.X[riscv.RegA0] != 3 {
		t.Fatalf("expected CallDataSize=3, got %d", cpu.X[riscv.RegA0])
	}

	cpu.X[riscv.RegA0] = 512
	cpu.X[riscv.RegA2] = 5 // request more bytes than calldata has
	cpu.X[riscv.RegT0] = uint64(syscall.CallDataCopy)
	if _, err := host.dispatch(cpu); err != nil {
		t.Fatal(err)
	}
	out, rerr := cpu.Mem.Read(512, 5)
	if rerr != nil {
		t.Fatal(rerr)
	}
	want := []byte{1, 2, 3, 0, 0}
	if string(out) != string(want) {
		t.Fatalf("CallDataCopy = %v, want %v (zero-padded)", out, want)
	}
}

func TestDispatchLogAddsEntry(t *testing.T) {
	cpu, host, sdb, contract := newTestHost(t, 4096)
	data := []byte("hello")
	mustWrite(t, cpu.Mem, 0, data)
	cpu.X[riscv.RegA0] = 0
	cpu.X[riscv.RegA1] = uint64(len(data))
	cpu.X[riscv.RegT0] = uint64(syscall.Log0)

	if _, err := host.dispatch(cpu); err != nil {
		t.Fatal(err)
	}
	if len(sdb.logs) != 1 {
		t.Fatalf("expected 1 log, got %d", len(sdb.logs))
	}
	if sdb.logs[0].Address != contract.Address || string(sdb.logs[0].Data) != string(data) {
		t.Fatal("log entry does not match emitted data")
	}
}

func TestDispatchContextGetters(t *testing.T) {
	cpu, host, _, _ := newTestHost(t, 4096)

	cases := []struct {
		name syscall.Number
		want uint64
	}{
		{syscall.ChainID, 1337},
		{syscall.BlockNumber, 42},
		{syscall.BlockTimestamp, 1000},
		{syscall.BlockGasLimit, 30_000_000},
	}
	for _, c := range cases {
		cpu.X[riscv.RegT0] = uint64(c.name)
		if _, err := host.dispatch(cpu); err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if cpu.X[riscv.RegA0] != c.want {
			t.Errorf("%s = %d, want %d", c.name, cpu.X[riscv.RegA0], c.want)
		}
	}
}

func TestDispatchUnknownSyscallTraps(t *testing.T) {
	cpu, host, _, _ := newTestHost(t, 4096)
	cpu.X[riscv.RegT0] = 250
	_, err := host.dispatch(cpu)
	if err == nil {
		t.Fatal("expected a trap for an unknown syscall number")
	}
	if _, ok := err.(*riscv.Trap); !ok {
		t.Fatalf("expected *riscv.Trap, got %T", err)
	}
}

func TestDispatchSLoadOutOfGas(t *testing.T) {
	cpu, host, _, contract := newTestHost(t, 4096)
	contract.Gas = 1 // less than GasSloadCold
	mustWrite(t, cpu.Mem, 0, types.HexToHash("0x01").Bytes())
	cpu.X[riscv.RegA0] = 0
	cpu.X[riscv.RegT0] = uint64(syscall.SLoad)

	_, err := host.dispatch(cpu)
	if err != ErrOutOfGas {
		t.Fatalf("expected ErrOutOfGas, got %v", err)
	}
	if contract.Gas != 1 {
		t.Fatalf("a failed charge must not touch remaining gas, got %d", contract.Gas)
	}
}

func mustWrite(t *testing.T, mem *riscv.Memory, off uint64, b []byte) {
	t.Helper()
	if err := mem.Write(off, b); err != nil {
		t.Fatal(err)
	}
}
