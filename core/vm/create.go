package vm

// create.go implements the CREATE/CREATE2 lifecycle, adapted from
// go-ethereum's core/vm/evm_create.go CreateExecutor: address computation,
// collision detection, value transfer under the 63/64 gas-forwarding
// rule (EIP-150), running the constructor, and depositing the returned
// code. Generalized from EVM init-bytecode/code-deposit semantics to the
// R55 initcode wire format: `0xFF | codesize_be32 |
// runtime_bytes | abi_encoded_constructor_args`. There is no separate
// "deploy stub" bytecode distinct from the runtime: the embedded program
// is executed once with the appended constructor arguments as its
// calldata, and is expected to finish by issuing Return with
// guest.RuntimeBlob(finalRuntime) — the returned payload already carries
// the R55 tag, which becomes the address's deployed code verbatim.

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/syscall"
)

const (
	// CallGasFraction is EIP-150's 63/64 rule: the caller retains
	// 1/CallGasFraction of its remaining gas across a CALL/CREATE.
	CallGasFraction = 64
	// CreateDataGas is the Yellow Paper's per-byte code-deposit cost.
	CreateDataGas = 200
	// MaxCodeSize is EIP-170's maximum deployed contract size.
	MaxCodeSize = 24576
)

// CreateParams is the input to CreateExecutor.Execute.
type CreateParams struct {
	Caller   types.Address
	InitCode []byte
	Value    *uint256.Int
	Gas      uint64
	// Salt selects CREATE2 addressing when non-nil.
	Salt *uint256.Int
}

// CreateResult is the outcome of a contract creation.
type CreateResult struct {
	Address    types.Address
	ReturnData []byte
	GasUsed    uint64
	GasLeft    uint64
	Err        error
}

// CreateExecutor handles the full CREATE/CREATE2 lifecycle.
type CreateExecutor struct{}

// NewCreateExecutor constructs a CreateExecutor.
func NewCreateExecutor() *CreateExecutor { return &CreateExecutor{} }

func (ce *CreateExecutor) computeAddress(params *CreateParams, nonce uint64) types.Address {
	if params.Salt != nil {
		initCodeHash := keccak256OfInitcode(params.InitCode)
		return create2Address(params.Caller, params.Salt, initCodeHash)
	}
	return createAddress(params.Caller, nonce)
}

// parseR55Initcode splits a tagged initcode blob into its embedded
// program and appended constructor arguments
// format.
func parseR55Initcode(initcode []byte) (program, ctorArgs []byte, err error) {
	const headerLen = 5 // tag byte + codesize_be32
	if len(initcode) < headerLen || initcode[0] != R55Tag {
		return nil, nil, ErrMalformedR55Initcode
	}
	codesize := uint32(initcode[1])<<24 | uint32(initcode[2])<<16 | uint32(initcode[3])<<8 | uint32(initcode[4])
	end := uint64(headerLen) + uint64(codesize)
	if end > uint64(len(initcode)) {
		return nil, nil, ErrMalformedR55Initcode
	}
	return initcode[headerLen:end], initcode[end:], nil
}

// Execute performs the full creation lifecycle on the given EVM.
func (ce *CreateExecutor) Execute(evm *EVM, params *CreateParams) *CreateResult {
	result := &CreateResult{GasLeft: params.Gas}

	if evm.readOnly {
		result.Err = ErrWriteProtection
		return result
	}
	if evm.StateDB == nil {
		result.Err = ErrNoStateDB
		return result
	}

	program, ctorArgs, perr := parseR55Initcode(params.InitCode)
	if perr != nil {
		result.Err = perr
		result.GasLeft = 0
		return result
	}

	words := wordCount(uint64(len(params.InitCode)))
	upfrontGas := uint64(syscall.GasCreateBase) + syscall.GasCreatePerWord*words
	if params.Salt != nil {
		upfrontGas += syscall.GasKeccak256Word * words
	}
	if result.GasLeft < upfrontGas {
		result.Err = ErrOutOfGas
		result.GasLeft = 0
		return result
	}
	result.GasLeft -= upfrontGas

	nonce := evm.StateDB.GetNonce(params.Caller)
	addr := ce.computeAddress(params, nonce)
	result.Address = addr
	if params.Salt == nil {
		evm.StateDB.SetNonce(params.Caller, nonce+1)
	}

	codeHash := evm.StateDB.GetCodeHash(addr)
	if evm.StateDB.GetNonce(addr) != 0 || (codeHash != (types.Hash{}) && codeHash != types.EmptyCodeHash) {
		result.Err = ErrCreateCollision
		result.GasUsed = params.Gas - result.GasLeft
		return result
	}

	snapshot := evm.StateDB.Snapshot()
	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}
	evm.StateDB.SetNonce(addr, 1)

	value := params.Value
	if value == nil {
		value = new(uint256.Int)
	}
	if !value.IsZero() {
		valueBig := value.ToBig()
		if evm.StateDB.GetBalance(params.Caller).Cmp(valueBig) < 0 {
			evm.StateDB.RevertToSnapshot(snapshot)
			result.Err = ErrCreateInsufficientFund
			result.GasUsed = params.Gas - result.GasLeft
			return result
		}
		evm.StateDB.SubBalance(params.Caller, valueBig)
		evm.StateDB.AddBalance(addr, valueBig)
	}

	callGas := result.GasLeft - result.GasLeft/CallGasFraction
	result.GasLeft -= callGas

	contract := NewContract(params.Caller, addr, value, callGas)
	contract.Code = append([]byte{R55Tag}, program...)

	ret, err := evm.Run(contract, ctorArgs)
	// contract.Gas already reflects the correct refund: zeroed by
	// runRISCV on ErrOutOfGas, left at whatever remained unspent on a
	// bare trap (ErrGuestTrap), and at its post-constructor value on
	// success or ErrExecutionReverted.
	result.GasLeft += contract.Gas

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		result.Err = err
		result.ReturnData = ret
		result.GasUsed = params.Gas - result.GasLeft
		return result
	}

	if len(ret) == 0 || ret[0] != R55Tag {
		evm.StateDB.RevertToSnapshot(snapshot)
		result.Err = ErrMalformedR55Initcode
		result.GasLeft = 0
		result.GasUsed = params.Gas
		return result
	}
	if len(ret)-1 > MaxCodeSize {
		evm.StateDB.RevertToSnapshot(snapshot)
		result.Err = ErrCreateCodeTooLarge
		result.GasLeft = 0
		result.GasUsed = params.Gas
		return result
	}

	depositGas := CreateDataGas * uint64(len(ret))
	if result.GasLeft < depositGas {
		evm.StateDB.RevertToSnapshot(snapshot)
		result.Err = ErrOutOfGas
		result.GasLeft = 0
		result.GasUsed = params.Gas
		return result
	}
	result.GasLeft -= depositGas
	evm.StateDB.SetCode(addr, ret)

	result.ReturnData = ret
	result.GasUsed = params.Gas - result.GasLeft
	return result
}

func wordCount(size uint64) uint64 { return (size + 31) / 32 }
