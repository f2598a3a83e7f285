// Package vm is the host interposer: an EVM-shaped execution environment
// that recognizes R55-tagged bytecode, hands it to the RISC-V interpreter
// in riscv/, and services ECALL traps by translating them into ordinary
// EVM account/storage/call operations at EVM gas prices.
package vm

import "errors"

var (
	ErrOutOfGas              = errors.New("out of gas")
	ErrWriteProtection       = errors.New("write protection")
	ErrExecutionReverted     = errors.New("execution reverted")
	ErrMaxCallDepthExceeded  = errors.New("max call depth exceeded")
	ErrReturnDataOutOfBounds = errors.New("return data out of bounds")
	ErrNoStateDB             = errors.New("no state database")
	ErrNotR55Bytecode        = errors.New("vm: code is not R55-tagged; legacy EVM bytecode execution is out of scope")

	ErrCreateCollision        = errors.New("create: contract address collision")
	ErrCreateCodeTooLarge     = errors.New("create: deployed code exceeds max size")
	ErrCreateInitCodeTooLarge = errors.New("create: init code exceeds max size")
	ErrCreateInsufficientFund = errors.New("create: insufficient balance for endowment")
	ErrMalformedR55Initcode   = errors.New("create: malformed R55 initcode header")

	// ErrGuestTrap wraps a fatal riscv.Trap surfaced to the host: it
	// reverts the frame with empty output, consuming only the gas
	// already charged at the point of the trap. OutOfGas is the sole
	// exception and consumes everything, matching the EVM convention
	// that a frame which runs dry forfeits its entire gas allotment
	// rather than whatever fraction happened to be spent already.
	ErrGuestTrap = errors.New("guest trapped")
)
