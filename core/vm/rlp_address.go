package vm

// rlp_address.go derives CREATE/CREATE2 contract addresses, ported
// verbatim from go-ethereum's core/vm/interpreter.go (createAddress,
// create2Address, and their minimal hand-rolled RLP helpers — go-ethereum
// itself hand-rolls this rather than pulling in a general RLP
// library, since only [address, nonce] ever needs encoding here), plus
// the address<->register-limb packing riscv_host.go and call.go/create.go
// share for every ECALL that carries an address.

import (
	"github.com/holiman/uint256"

	"github.com/r55-lang/r55/core/types"
	"github.com/r55-lang/r55/crypto"
)

// createAddress computes the address of a contract created with CREATE:
// addr = keccak256(rlp([sender, nonce]))[12:].
func createAddress(caller types.Address, nonce uint64) types.Address {
	addrEnc := encodeRLPBytes(caller[:])
	nonceEnc := encodeRLPUint(nonce)
	payload := append(addrEnc, nonceEnc...)
	data := wrapRLPList(payload)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

// create2Address computes addr = keccak256(0xff ++ sender ++ salt ++
// keccak256(initCode))[12:].
func create2Address(caller types.Address, salt *uint256.Int, initCodeHash []byte) types.Address {
	saltBytes := [32]byte{}
	if salt != nil {
		saltBytes = salt.Bytes32()
	}
	data := make([]byte, 0, 85)
	data = append(data, 0xff)
	data = append(data, caller[:]...)
	data = append(data, saltBytes[:]...)
	data = append(data, initCodeHash...)
	hash := crypto.Keccak256(data)
	return types.BytesToAddress(hash[12:])
}

func keccak256OfInitcode(initcode []byte) []byte {
	return crypto.Keccak256(initcode)
}

// addressLimbs/limbsToAddress pack and unpack a 20-byte address into the
// three 64-bit scratch registers (a0-a2) the ECALL convention carries an
// address in, mirroring guest/bridge.go's wire format so the host and
// guest agree on which bytes land in which limb.
func addressLimbs(a types.Address) (lo, mid, hi uint64) {
	var padded [32]byte
	copy(padded[12:], a.Bytes())
	lo = beUint64(padded[24:32])
	mid = beUint64(padded[16:24])
	hi = beUint64(padded[8:16])
	return lo, mid, hi
}

func limbsToAddress(lo, mid, hi uint64) types.Address {
	var b [20]byte
	putBE64(b[0:4], hi)
	putBE64(b[4:12], mid)
	putBE64(b[12:20], lo)
	return types.BytesToAddress(b[:])
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func putBE64(dst []byte, v uint64) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(v)
		v >>= 8
	}
}

func encodeRLPBytes(b []byte) []byte {
	if len(b) == 1 && b[0] < 0x80 {
		return b
	}
	if len(b) < 56 {
		return append([]byte{byte(0x80 + len(b))}, b...)
	}
	lenBytes := uintToMinBytes(uint64(len(b)))
	header := append([]byte{byte(0xb7 + len(lenBytes))}, lenBytes...)
	return append(header, b...)
}

func encodeRLPUint(v uint64) []byte {
	if v == 0 {
		return []byte{0x80}
	}
	if v < 128 {
		return []byte{byte(v)}
	}
	b := uintToMinBytes(v)
	return append([]byte{byte(0x80 + len(b))}, b...)
}

func wrapRLPList(payload []byte) []byte {
	if len(payload) < 56 {
		return append([]byte{byte(0xc0 + len(payload))}, payload...)
	}
	lenBytes := uintToMinBytes(uint64(len(payload)))
	header := append([]byte{byte(0xf7 + len(lenBytes))}, lenBytes...)
	return append(header, payload...)
}

// uintToMinBytes encodes a uint64 as big-endian bytes with no leading
// zeros.
func uintToMinBytes(v uint64) []byte {
	if v == 0 {
		return nil
	}
	var buf [8]byte
	n := 0
	for i := 7; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
		if buf[i] != 0 || n > 0 {
			n = 8 - i
		}
	}
	return buf[8-n:]
}
