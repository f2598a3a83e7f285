package vm

import (
	"testing"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/riscv"
	"github.com/r55-lang/r55/syscall"
)

// TestDispatchCallEndToEnd drives a real nested riscv.CPU: the target
// contract's code is a tiny hand-assembled program that stores two bytes
// and issues Return, exercising the full Call -> evm.Call -> evm.Run ->
// runRISCV round trip rather than mocking evm.Call's result.
func TestDispatchCallEndToEnd(t *testing.T) {
	cpu, host, sdb, contract := newTestHost(t, 1<<16)
	target := types.HexToAddress("0xcccc")

	runtime := returnProgram(uint32(syscall.Return), []byte{0xca, 0xfe}, 256)
	sdb.CreateAccount(target)
	sdb.SetCode(target, append([]byte{R55Tag}, runtime...))

	lo, mid, hi := addressLimbs(target)
	cpu.X[riscv.RegA0] = lo
	cpu.X[riscv.RegA1] = mid
	cpu.X[riscv.RegA2] = hi
	cpu.X[riscv.RegA3] = 0 // value
	cpu.X[riscv.RegA4] = 0 // calldata offset
	cpu.X[riscv.RegA5] = 0 // calldata size
	cpu.X[riscv.RegT0] = uint64(syscall.Call)

	before := contract.Gas
	resume, err := host.dispatch(cpu)
	if err != nil || !resume {
		t.Fatalf("dispatch Call: resume=%v err=%v", resume, err)
	}
	if cpu.X[riscv.RegA0] != 1 {
		t.Fatalf("expected success=1, got %d", cpu.X[riscv.RegA0])
	}
	if contract.Gas >= before {
		t.Fatal("a Call must consume some gas from the caller's frame")
	}
	if string(host.returnData) != string([]byte{0xca, 0xfe}) {
		t.Fatalf("returnData = %x, want cafe", host.returnData)
	}

	// ReturnDataSize/ReturnDataCopy must reflect the callee's output.
	cpu.X[riscv.RegT0] = uint64(syscall.ReturnDataSize)
	if _, err := host.dispatch(cpu); err != nil {
		t.Fatal(err)
	}
	if cpu.X[riscv.RegA0] != 2 {
		t.Fatalf("ReturnDataSize = %d, want 2", cpu.X[riscv.RegA0])
	}
	cpu.X[riscv.RegA0] = 1024
	cpu.X[riscv.RegA2] = 2
	cpu.X[riscv.RegT0] = uint64(syscall.ReturnDataCopy)
	if _, err := host.dispatch(cpu); err != nil {
		t.Fatal(err)
	}
	out, rerr := cpu.Mem.Read(1024, 2)
	if rerr != nil {
		t.Fatal(rerr)
	}
	if string(out) != string([]byte{0xca, 0xfe}) {
		t.Fatalf("ReturnDataCopy = %x, want cafe", out)
	}
}

// TestDispatchCallToEmptyAccountIsNoop mirrors EIP-158: a zero-value call
// into a nonexistent account must not spend a CreateAccount or run code.
func TestDispatchCallToEmptyAccountIsNoop(t *testing.T) {
	cpu, host, sdb, contract := newTestHost(t, 1<<16)
	target := types.HexToAddress("0xdddd")

	lo, mid, hi := addressLimbs(target)
	cpu.X[riscv.RegA0], cpu.X[riscv.RegA1], cpu.X[riscv.RegA2] = lo, mid, hi
	cpu.X[riscv.RegA3] = 0
	cpu.X[riscv.RegA4], cpu.X[riscv.RegA5] = 0, 0
	cpu.X[riscv.RegT0] = uint64(syscall.Call)

	if _, err := host.dispatch(cpu); err != nil {
		t.Fatal(err)
	}
	if cpu.X[riscv.RegA0] != 1 {
		t.Fatalf("expected success=1 for a no-op call, got %d", cpu.X[riscv.RegA0])
	}
	if sdb.Exist(target) {
		t.Error("a zero-value call must not materialize the target account")
	}
	_ = contract
}

// TestDispatchCreateEndToEnd builds an R55 initcode blob whose embedded
// runtime program issues Return with an already-tagged payload, and
// checks that payload becomes the deployed code at the computed address.
func TestDispatchCreateEndToEnd(t *testing.T) {
	cpu, host, sdb, contract := newTestHost(t, 1<<16)

	runtimeOutput := []byte{R55Tag, 0xab}
	runtimeProgram := returnProgram(uint32(syscall.Return), runtimeOutput, 256)
	initcode := encodeR55Initcode(runtimeProgram, nil)
	mustWrite(t, cpu.Mem, 512, initcode)

	cpu.X[riscv.RegA0] = 0 // value
	cpu.X[riscv.RegA1] = 512
	cpu.X[riscv.RegA2] = uint64(len(initcode))
	cpu.X[riscv.RegT0] = uint64(syscall.Create)

	before := contract.Gas
	resume, err := host.dispatch(cpu)
	if err != nil || !resume {
		t.Fatalf("dispatch Create: resume=%v err=%v", resume, err)
	}
	if contract.Gas >= before {
		t.Fatal("a Create must consume some gas from the caller's frame")
	}

	addr := limbsToAddress(cpu.X[riscv.RegA0], cpu.X[riscv.RegA1], cpu.X[riscv.RegA2])
	wantAddr := createAddress(contract.Address, 0)
	if addr != wantAddr {
		t.Fatalf("deployed address = %s, want %s", addr, wantAddr)
	}
	if got := sdb.GetCode(addr); string(got) != string(runtimeOutput) {
		t.Fatalf("deployed code = %x, want %x", got, runtimeOutput)
	}
	if sdb.GetNonce(contract.Address) != 1 {
		t.Fatalf("creator nonce should be incremented, got %d", sdb.GetNonce(contract.Address))
	}
}

// encodeR55Initcode builds the `0xFF | codesize_be32 | runtime | ctorArgs`
// wire format defines.
func encodeR55Initcode(runtime, ctorArgs []byte) []byte {
	n := len(runtime)
	header := []byte{R55Tag, byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
	out := append(append(header, runtime...), ctorArgs...)
	return out
}
