package vm

import (
	"fmt"
	"math/big"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/riscv"
)

// GetHashFunc returns the hash of the block with the given number.
type GetHashFunc func(uint64) types.Hash

// BlockContext provides the EVM with block-level information, adapted
// from go-ethereum's core/vm/interpreter.go BlockContext — the fields
// BlockNumber/BlockTimestamp/BlockGasLimit/BlockCoinbase ECALLs
// read, trimmed of fork-specific fields (BlobBaseFee, PrevRandao,
// SlotNumber) this module's RISC-V-only scope never exposes to a guest.
type BlockContext struct {
	GetHash     GetHashFunc
	BlockNumber *big.Int
	Time        uint64
	Coinbase    types.Address
	GasLimit    uint64
	BaseFee     *big.Int
}

// TxContext provides the EVM with transaction-level information.
type TxContext struct {
	Origin   types.Address
	GasPrice *big.Int
}

// Config holds host interposer configuration.
type Config struct {
	MaxCallDepth int
	// ArenaSize is the total guest address space size handed to each
	// riscv.CPU, including the host's reserved scratch window (see
	// riscv_host.go). 16 MiB comfortably fits a compiled contract plus
	// a generous stack and bump-allocated heap.
	ArenaSize uint64
}

// EVM is the host interposer: the shared execution environment a
// RISC-V call frame's ECALLs are serviced against. Adapted from
// go-ethereum's core/vm/interpreter.go EVM struct, stripped of the
// JumpTable/precompile/witness-gas/EOF machinery that only the
// legacy EVM opcode interpreter needs.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	Config    Config
	StateDB   StateDB

	chainID     uint64
	depth       int
	readOnly    bool
	accessList  *AccessListTracker
	returnData  []byte // return data from the last Call/StaticCall/Create
}

// NewEVM creates a new host interposer instance.
func NewEVM(blockCtx BlockContext, txCtx TxContext, chainID uint64, stateDB StateDB, config Config) *EVM {
	if config.MaxCallDepth == 0 {
		config.MaxCallDepth = 1024
	}
	if config.ArenaSize == 0 {
		config.ArenaSize = 16 * 1024 * 1024
	}
	return &EVM{
		Context:    blockCtx,
		TxContext:  txCtx,
		Config:     config,
		StateDB:    stateDB,
		chainID:    chainID,
		accessList: NewAccessListTracker(),
	}
}

// AccessList exposes the frame's warm/cold tracker, e.g. for a top-level
// caller to PrePopulate before the first Call/Create.
func (evm *EVM) AccessList() *AccessListTracker { return evm.accessList }

// ReadOnly reports whether the current frame is a StaticCall context,
// the gate write-protection rule and guest.CallCtx both
// key off of.
func (evm *EVM) ReadOnly() bool { return evm.readOnly }

// Run executes a call frame's code. Only R55-tagged code is supported;
// there is no legacy EVM opcode interpreter behind ErrNotR55Bytecode,
// just the bytecode tag check.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	contract.Input = input
	if !contract.IsR55() {
		return nil, ErrNotR55Bytecode
	}
	return evm.runRISCV(contract)
}

// runRISCV instantiates a fresh riscv.CPU over contract.Code[1:] (the
// tag byte stripped) and services its ECALLs against this same *EVM and
// *Contract — gas, the access-list tracker, and StateDB are the
// identical Go values a legacy-opcode path would have used, so
// interpreter state is shared rather than duplicated.
func (evm *EVM) runRISCV(contract *Contract) ([]byte, error) {
	mem := riscv.NewMemory(evm.Config.ArenaSize)
	if err := mem.LoadProgram(contract.Code[1:], 0); err != nil {
		return nil, err
	}

	host := newRiscvHost(evm, contract, mem)
	cpu := riscv.NewCPU(mem, 0, host.dispatch)
	// Pull the stack pointer down below the host's reserved scratch
	// window (see riscv_host.go) so a deep guest stack can never grow
	// into memory the host is staging ECALL results in.
	cpu.X[riscv.RegSP] = host.scratchNext

	evm.depth++
	runErr := cpu.Run()
	evm.depth--

	if runErr != nil {
		// A riscv.Trap (illegal instruction, out-of-bounds memory access,
		// instruction budget exceeded) is host-fatal to the frame: empty
		// output, only the gas already charged is
		// spent (OutOfGas — surfaced as ErrOutOfGas by chargeGas, not a
		// *riscv.Trap — is the sole "consume everything" case, handled
		// by the caller via contract.Gas already having been zeroed).
		if runErr == ErrOutOfGas {
			contract.Gas = 0
			return nil, ErrOutOfGas
		}
		if trap, ok := runErr.(*riscv.Trap); ok {
			return nil, fmt.Errorf("%w: %s", ErrGuestTrap, trap.Error())
		}
		return nil, runErr
	}

	if host.reverted {
		return host.output, ErrExecutionReverted
	}
	return host.output, nil
}
