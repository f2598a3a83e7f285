package syscall

import "github.com/holiman/uint256"

// Gas constants mirrored from EVM practice, the same figures go-ethereum's
// own core/vm gas table carries for SLOAD/SSTORE/CALL/CREATE/LOG pricing.
const (
	GasSloadCold = 2100
	GasSloadWarm = 100

	GasSstoreCold = 2200
	GasSstoreWarm = 100
	// GasSstoreClearRefund is granted when a nonzero slot is set to zero.
	GasSstoreClearRefund = 4800

	GasCallBase         = 100
	GasCallValue        = 9000
	GasCallNewAccount   = 2600
	GasCallEmptyAccount = 25000

	GasCreateBase      = 32000
	GasCreatePerWord   = 2 // per 32-byte word of initcode, EIP-3860
	GasCreateDataWord  = 6
	GasKeccak256Base   = 30
	GasKeccak256Word   = 6
	GasLogBase         = 375
	GasLogTopic        = 375
	GasLogDataByte     = 8
	GasMemoryWord      = 3
	GasCopyPerWord     = 3
	GasContextGetter   = 2
	GasBalanceCold     = 2600
	GasBalanceWarm     = 100
	GasExtCodeSizeCold = 2600
	GasExtCodeSizeWarm = 100
)

// SloadGas returns the cost of an SLOAD of a slot that is or isn't already
// in the frame's warm set.
func SloadGas(warm bool) uint64 {
	if warm {
		return GasSloadWarm
	}
	return GasSloadCold
}

// SstoreGas returns the cost of an SSTORE and any refund it earns, given
// whether the slot was already warm and the before/after values.
func SstoreGas(warm bool, current, new uint256.Int) (cost uint64, refund uint64) {
	cost = GasSstoreWarm
	if !warm {
		cost += GasSstoreCold - GasSstoreWarm
	}
	if !current.IsZero() && new.IsZero() {
		refund = GasSstoreClearRefund
	}
	return cost, refund
}

// CallGas returns the cost of entering a new call frame. accountCold is
// true when the target address is not yet in the frame's warm set;
// accountEmpty is true when the target account has no balance, nonce, or
// code (EIP-161 "empty account" touch). The value component is only
// charged when value is nonzero, matching the real EVM CALL schedule.
func CallGas(value uint256.Int, accountCold, accountEmpty bool) uint64 {
	cost := uint64(GasCallBase)
	if accountCold {
		cost += GasCallNewAccount
	}
	if !value.IsZero() {
		cost += GasCallValue
		if accountEmpty {
			cost += GasCallEmptyAccount
		}
	}
	return cost
}

// KeccakGas returns the cost of hashing size bytes of guest memory.
func KeccakGas(size uint64) uint64 {
	return GasKeccak256Base + GasKeccak256Word*wordCount(size)
}

// LogGas returns the cost of emitting a log with the given topic count and
// data length.
func LogGas(topics int, dataLen uint64) uint64 {
	return GasLogBase + uint64(topics)*GasLogTopic + dataLen*GasLogDataByte
}

// CopyGas returns the per-word cost of moving size bytes between guest
// memory and a host buffer (ReturnDataCopy, CallDataCopy).
func CopyGas(size uint64) uint64 {
	return GasCopyPerWord * wordCount(size)
}

// BalanceGas returns the cost of a BALANCE syscall.
func BalanceGas(warm bool) uint64 {
	if warm {
		return GasBalanceWarm
	}
	return GasBalanceCold
}

func wordCount(size uint64) uint64 {
	return (size + 31) / 32
}
