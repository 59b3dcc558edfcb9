package ledger

import (
	"errors"
	"testing"

	"github.com/cavemanloverboy/nanotoken/pkg/runtime"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

func makeInfo(key types.Pubkey, owner types.Pubkey, data []byte, signer, writable bool) *runtime.AccountInfo {
	return &runtime.AccountInfo{
		Key:        key,
		Owner:      owner,
		Data:       data,
		IsSigner:   signer,
		IsWritable: writable,
	}
}

func TestResolveBindsByPosition(t *testing.T) {
	a := makeInfo(testIdentity(1), types.NanotokenProgramID, nil, true, false)
	b := makeInfo(testIdentity(2), types.NanotokenProgramID, nil, false, true)
	window := []*runtime.AccountInfo{a, b}

	bound, err := Resolve(window, []AccountRole{
		{Index: 1, Writable: true},
		{Index: 0, Signer: true},
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if bound[0] != b || bound[1] != a {
		t.Error("roles bound to wrong accounts")
	}
}

func TestResolveMissingAccount(t *testing.T) {
	window := []*runtime.AccountInfo{makeInfo(testIdentity(1), types.NanotokenProgramID, nil, false, false)}

	_, err := Resolve(window, []AccountRole{{Index: 1}})
	if !errors.Is(err, ErrMissingAccount) {
		t.Errorf("expected ErrMissingAccount, got %v", err)
	}
}

func TestResolveSignerRequired(t *testing.T) {
	window := []*runtime.AccountInfo{makeInfo(testIdentity(1), types.NanotokenProgramID, nil, false, true)}

	_, err := Resolve(window, []AccountRole{{Index: 0, Signer: true}})
	if !errors.Is(err, ErrNotSigner) {
		t.Errorf("expected ErrNotSigner, got %v", err)
	}
}

func TestResolveWritableRequired(t *testing.T) {
	window := []*runtime.AccountInfo{makeInfo(testIdentity(1), types.NanotokenProgramID, nil, true, false)}

	_, err := Resolve(window, []AccountRole{{Index: 0, Writable: true}})
	if !errors.Is(err, ErrNotWritable) {
		t.Errorf("expected ErrNotWritable, got %v", err)
	}
}

func TestResolveOwnerConstraint(t *testing.T) {
	window := []*runtime.AccountInfo{makeInfo(testIdentity(1), types.TokenkegProgramID, nil, false, false)}

	_, err := Resolve(window, []AccountRole{{Index: 0, Owner: &types.NanotokenProgramID}})
	if !errors.Is(err, ErrWrongOwner) {
		t.Errorf("expected ErrWrongOwner, got %v", err)
	}
}

func TestResolveDiscriminantConstraint(t *testing.T) {
	buf := make([]byte, MintSize)
	if _, err := InitMint(buf, 0, testIdentity(9), 0); err != nil {
		t.Fatalf("InitMint failed: %v", err)
	}
	window := []*runtime.AccountInfo{makeInfo(testIdentity(1), types.NanotokenProgramID, buf, false, false)}

	if _, err := Resolve(window, []AccountRole{{Index: 0, Discriminant: disc(DiscriminantMint)}}); err != nil {
		t.Errorf("matching discriminant rejected: %v", err)
	}
	_, err := Resolve(window, []AccountRole{{Index: 0, Discriminant: disc(DiscriminantToken)}})
	if !errors.Is(err, ErrWrongDiscriminant) {
		t.Errorf("expected ErrWrongDiscriminant, got %v", err)
	}
}

func TestResolveEmptyBufferNeverMatchesDiscriminant(t *testing.T) {
	window := []*runtime.AccountInfo{makeInfo(testIdentity(1), types.NanotokenProgramID, nil, false, false)}

	_, err := Resolve(window, []AccountRole{{Index: 0, Discriminant: disc(DiscriminantUninitialized)}})
	if !errors.Is(err, ErrWrongDiscriminant) {
		t.Errorf("expected ErrWrongDiscriminant for empty buffer, got %v", err)
	}
}
