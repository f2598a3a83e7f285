package vm

// call.go implements the Call/StaticCall frame-transition lifecycle,
// adapted from go-ethereum's core/vm/interpreter.go EVM.Call/StaticCall:
// depth check, snapshot, empty-account/value-transfer handling, run the
// callee, commit or revert-to-snapshot. Generalized from *big.Int values
// to the *uint256.Int this module uses throughout for wide syscall
// register limbs (syscall.CallGas et al.).

import (
	"errors"

	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
)

var errInsufficientBalance = errors.New("call: insufficient balance for transfer")

// Call executes a value-transferring message call into addr.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *uint256.Int) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, ErrNoStateDB
	}
	if value == nil {
		value = new(uint256.Int)
	}
	transfersValue := !value.IsZero()
	if transfersValue && evm.readOnly {
		return nil, gas, ErrWriteProtection
	}

	valueBig := value.ToBig()
	if transfersValue && evm.StateDB.GetBalance(caller).Cmp(valueBig) < 0 {
		return nil, gas, errInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()

	if !evm.StateDB.Exist(addr) {
		if !transfersValue {
			// EIP-158: do not create empty accounts for zero-value calls.
			return nil, gas, nil
		}
		evm.StateDB.CreateAccount(addr)
	}

	if transfersValue {
		evm.StateDB.SubBalance(caller, valueBig)
		evm.StateDB.AddBalance(addr, valueBig)
	}

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, value, gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	ret, err := evm.Run(contract, input)
	gasLeft := contract.Gas

	// Any non-nil error rolls back state. gasLeft is NOT forced to zero
	// here: runRISCV already zeroes contract.Gas for ErrOutOfGas, while a
	// bare *riscv.Trap (wrapped as ErrGuestTrap) leaves contract.Gas at
	// whatever remained unspent, which is refunded to the caller per
	// "consumes only gas already spent" rule.
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}

	evm.returnData = ret
	return ret, gasLeft, err
}

// StaticCall executes a read-only message call: no value transfer, and
// any SSTORE or value-transferring Call the callee attempts reverts with
// ErrWriteProtection.
func (evm *EVM) StaticCall(caller, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > evm.Config.MaxCallDepth {
		return nil, gas, ErrMaxCallDepthExceeded
	}
	if evm.StateDB == nil {
		return nil, gas, ErrNoStateDB
	}

	prevReadOnly := evm.readOnly
	evm.readOnly = true
	defer func() { evm.readOnly = prevReadOnly }()

	snapshot := evm.StateDB.Snapshot()

	code := evm.StateDB.GetCode(addr)
	if len(code) == 0 {
		return nil, gas, nil
	}

	contract := NewContract(caller, addr, new(uint256.Int), gas)
	contract.Code = code
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	ret, err := evm.Run(contract, input)
	gasLeft := contract.Gas
	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
	}

	evm.returnData = ret
	return ret, gasLeft, err
}
