package abi

import (
	"encoding/hex"
	"testing"
)

func TestComputeSelector(t *testing.T) {
	// keccak256("transfer(address,uint256)")[0:4] == a9059cbb, the
	// well-known ERC-20 transfer selector; this doubles as a check that
	// our Keccak256 wiring matches real Solidity selector hashing.
	got := ComputeSelector("transfer(address,uint256)")
	want, err := hex.DecodeString("a9059cbb")
	if err != nil {
		t.Fatalf("bad fixture: %v", err)
	}
	if got.Bytes()[0] != want[0] || got.Bytes()[1] != want[1] ||
		got.Bytes()[2] != want[2] || got.Bytes()[3] != want[3] {
		t.Fatalf("selector mismatch: got %x want %x", got.Bytes(), want)
	}
}

func TestSelectorMatches(t *testing.T) {
	sel := ComputeSelector("balanceOf(address)")
	calldata := append(sel.Bytes(), make([]byte, 32)...)
	if !sel.Matches(calldata) {
		t.Fatalf("expected selector to match its own calldata")
	}
	if sel.Matches(calldata[:2]) {
		t.Fatalf("expected short calldata not to match")
	}
	other := ComputeSelector("transfer(address,uint256)")
	if other.Matches(calldata) {
		t.Fatalf("expected distinct selectors not to match")
	}
}

func TestUint64BE32(t *testing.T) {
	b := Uint64BE32(1)
	if len(b) != 32 {
		t.Fatalf("expected 32 bytes, got %d", len(b))
	}
	for i := 0; i < 31; i++ {
		if b[i] != 0 {
			t.Fatalf("expected leading zero padding, got %x", b)
		}
	}
	if b[31] != 1 {
		t.Fatalf("expected trailing byte 1, got %x", b)
	}
}
