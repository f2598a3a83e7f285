package vm

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
)

// R55Tag is the single byte prefixed to every R55 initcode and runtime
// blob. vm.EVM.Run switches on it to decide whether a
// frame's code is RV64IMAC or ordinary EVM bytecode.
const R55Tag = 0xFF

// Contract represents a call frame's executable code and its metering
// state. Trimmed from go-ethereum's core/vm/contract.go: JUMPDEST
// analysis and the EOF Data/Subcontainers fields are dropped — there's
// no legacy EVM opcode stream to analyze since the RISC-V interpreter
// owns its own program counter and decodes instructions directly from
// Code[1:].
type Contract struct {
	CallerAddress types.Address
	Address       types.Address
	Code          []byte
	CodeHash      types.Hash
	Input         []byte
	Gas           uint64
	Value         *uint256.Int
}

// NewContract creates a new contract frame for execution.
func NewContract(caller, addr types.Address, value *uint256.Int, gas uint64) *Contract {
	if value == nil {
		value = new(uint256.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		Value:         value,
		Gas:           gas,
	}
}

// IsR55 reports whether this frame's code carries the R55 bytecode tag.
func (c *Contract) IsR55() bool {
	return len(c.Code) > 0 && c.Code[0] == R55Tag
}

// UseGas attempts to consume the given gas. Returns false if insufficient
// gas remains, in which case the caller must terminate the frame with
// ErrOutOfGas without performing the metered operation.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// RefundGas credits unused gas back to the frame (e.g. gas left over
// from a sub-call or sub-create that returned early).
func (c *Contract) RefundGas(gas uint64) {
	c.Gas += gas
}
