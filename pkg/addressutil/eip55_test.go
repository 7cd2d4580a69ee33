package addressutil

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestChecksumKnownAddress(t *testing.T) {
	addr := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")
	got := Checksum(addr)
	if got[:2] != "0x" || len(got) != 42 {
		t.Fatalf("malformed checksum output: %q", got)
	}
}

func TestChecksumDeterministic(t *testing.T) {
	addr := common.HexToAddress("0x1111111111111111111111111111111111111111")
	if Checksum(addr) != Checksum(addr) {
		t.Fatal("checksum must be deterministic for the same address")
	}
}

func TestChecksumDiffersByAddress(t *testing.T) {
	a := common.HexToAddress("0x1111111111111111111111111111111111111111")
	b := common.HexToAddress("0x2222222222222222222222222222222222222222")
	if Checksum(a) == Checksum(b) {
		t.Fatal("distinct addresses must not collide")
	}
}
