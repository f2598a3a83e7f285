package vm

import (
	"math/big"

	"github.com/r55-lang/r55/core/types"
)

// StateDB provides the EVM-shaped host with access to Ethereum world
// state. Trimmed from go-ethereum's core/vm/interpreter.go StateDB
// interface: transient storage (EIP-1153) and self-destruct are dropped
// since no ECALL in table exposes them to a guest
// contract; any concrete implementation of go-ethereum's broader
// StateDB still satisfies this narrower interface.
type StateDB interface {
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *big.Int
	AddBalance(addr types.Address, amount *big.Int)
	SubBalance(addr types.Address, amount *big.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key types.Hash, value types.Hash)

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(log *types.Log)

	// AddRefund/SubRefund/GetRefund implement the SSTORE clear refund
	// gas table names ("plus refunds if reducing").
	AddRefund(gas uint64)
	SubRefund(gas uint64)
	GetRefund() uint64
}
