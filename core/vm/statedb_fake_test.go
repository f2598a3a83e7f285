package vm

import (
	"math/big"

	"github.com/r55-lang/r55/core/types"
)

// fakeStateDB is an in-memory StateDB for exercising the host interposer
// without a real trie-backed database, the same role go-ethereum's own
// core/vm test suite fills with its mock StateDB fixtures.
type fakeStateDB struct {
	balances map[types.Address]*big.Int
	nonces   map[types.Address]uint64
	code     map[types.Address][]byte
	storage  map[types.Address]map[types.Hash]types.Hash
	exist    map[types.Address]bool

	logs    []*types.Log
	refund  uint64
	history []fakeSnapshot
}

type fakeSnapshot struct {
	balances map[types.Address]*big.Int
	nonces   map[types.Address]uint64
	code     map[types.Address][]byte
	storage  map[types.Address]map[types.Hash]types.Hash
	exist    map[types.Address]bool
	refund   uint64
	logCount int
}

func newFakeStateDB() *fakeStateDB {
	return &fakeStateDB{
		balances: make(map[types.Address]*big.Int),
		nonces:   make(map[types.Address]uint64),
		code:     make(map[types.Address][]byte),
		storage:  make(map[types.Address]map[types.Hash]types.Hash),
		exist:    make(map[types.Address]bool),
	}
}

func (s *fakeStateDB) clone() (balances map[types.Address]*big.Int, nonces map[types.Address]uint64, code map[types.Address][]byte, storage map[types.Address]map[types.Hash]types.Hash, exist map[types.Address]bool) {
	balances = make(map[types.Address]*big.Int, len(s.balances))
	for k, v := range s.balances {
		balances[k] = new(big.Int).Set(v)
	}
	nonces = make(map[types.Address]uint64, len(s.nonces))
	for k, v := range s.nonces {
		nonces[k] = v
	}
	code = make(map[types.Address][]byte, len(s.code))
	for k, v := range s.code {
		code[k] = append([]byte(nil), v...)
	}
	storage = make(map[types.Address]map[types.Hash]types.Hash, len(s.storage))
	for addr, slots := range s.storage {
		inner := make(map[types.Hash]types.Hash, len(slots))
		for k, v := range slots {
			inner[k] = v
		}
		storage[addr] = inner
	}
	exist = make(map[types.Address]bool, len(s.exist))
	for k, v := range s.exist {
		exist[k] = v
	}
	return
}

func (s *fakeStateDB) CreateAccount(addr types.Address) {
	s.exist[addr] = true
	if _, ok := s.balances[addr]; !ok {
		s.balances[addr] = new(big.Int)
	}
}

func (s *fakeStateDB) GetBalance(addr types.Address) *big.Int {
	if b, ok := s.balances[addr]; ok {
		return b
	}
	return new(big.Int)
}

func (s *fakeStateDB) AddBalance(addr types.Address, amount *big.Int) {
	b := s.GetBalance(addr)
	s.balances[addr] = new(big.Int).Add(b, amount)
}

func (s *fakeStateDB) SubBalance(addr types.Address, amount *big.Int) {
	b := s.GetBalance(addr)
	s.balances[addr] = new(big.Int).Sub(b, amount)
}

func (s *fakeStateDB) GetNonce(addr types.Address) uint64 { return s.nonces[addr] }
func (s *fakeStateDB) SetNonce(addr types.Address, nonce uint64) {
	s.nonces[addr] = nonce
}

func (s *fakeStateDB) GetCode(addr types.Address) []byte { return s.code[addr] }
func (s *fakeStateDB) SetCode(addr types.Address, code []byte) {
	s.code[addr] = code
	s.exist[addr] = true
}
func (s *fakeStateDB) GetCodeHash(addr types.Address) types.Hash {
	c := s.code[addr]
	if len(c) == 0 {
		return types.EmptyCodeHash
	}
	return types.BytesToHash(c) // not a real keccak256; good enough to distinguish in tests
}
func (s *fakeStateDB) GetCodeSize(addr types.Address) int { return len(s.code[addr]) }

func (s *fakeStateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	slots, ok := s.storage[addr]
	if !ok {
		return types.Hash{}
	}
	return slots[key]
}

func (s *fakeStateDB) SetState(addr types.Address, key types.Hash, value types.Hash) {
	slots, ok := s.storage[addr]
	if !ok {
		slots = make(map[types.Hash]types.Hash)
		s.storage[addr] = slots
	}
	slots[key] = value
}

func (s *fakeStateDB) Exist(addr types.Address) bool { return s.exist[addr] }
func (s *fakeStateDB) Empty(addr types.Address) bool {
	if !s.exist[addr] {
		return true
	}
	return s.nonces[addr] == 0 && s.GetBalance(addr).Sign() == 0 && len(s.code[addr]) == 0
}

func (s *fakeStateDB) Snapshot() int {
	balances, nonces, code, storage, exist := s.clone()
	s.history = append(s.history, fakeSnapshot{balances, nonces, code, storage, exist, s.refund, len(s.logs)})
	return len(s.history) - 1
}

func (s *fakeStateDB) RevertToSnapshot(id int) {
	if id < 0 || id >= len(s.history) {
		return
	}
	snap := s.history[id]
	s.balances, s.nonces, s.code, s.storage, s.exist = snap.balances, snap.nonces, snap.code, snap.storage, snap.exist
	s.refund = snap.refund
	s.logs = s.logs[:snap.logCount]
	s.history = s.history[:id]
}

func (s *fakeStateDB) AddLog(log *types.Log) { s.logs = append(s.logs, log) }

func (s *fakeStateDB) AddRefund(gas uint64) { s.refund += gas }
func (s *fakeStateDB) SubRefund(gas uint64) {
	if gas > s.refund {
		s.refund = 0
		return
	}
	s.refund -= gas
}
func (s *fakeStateDB) GetRefund() uint64 { return s.refund }
