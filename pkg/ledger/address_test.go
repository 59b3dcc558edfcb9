package ledger

import "testing"

func TestDeriveTokenAccountAddress(t *testing.T) {
	owner := testIdentity(1)

	addr1 := DeriveTokenAccountAddress(owner, 0, 255)
	addr2 := DeriveTokenAccountAddress(owner, 0, 255)
	if addr1 != addr2 {
		t.Error("derivation should be deterministic")
	}

	if DeriveTokenAccountAddress(owner, 1, 255) == addr1 {
		t.Error("different mint should derive a different address")
	}
	if DeriveTokenAccountAddress(testIdentity(2), 0, 255) == addr1 {
		t.Error("different owner should derive a different address")
	}
	if DeriveTokenAccountAddress(owner, 0, 254) == addr1 {
		t.Error("different bump should derive a different address")
	}
}

func TestFindTokenAccountAddress(t *testing.T) {
	owner := testIdentity(3)

	addr, bump := FindTokenAccountAddress(owner, 7)
	if addr != DeriveTokenAccountAddress(owner, 7, bump) {
		t.Error("found address should match derivation with the returned bump")
	}
}
