package ledger

import (
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/runtime"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// AccountRole declares the constraints a sub-instruction places on one of
// its accounts: position within the handler's account window, required
// access, and the expected owner program and record discriminant.
//
// Roles identify accounts purely by position. Nothing here assumes one
// token account per (owner, mint) pair; callers that need that invariant
// enforce it at account-address derivation time.
type AccountRole struct {
	// Index is the position within the handler's account window.
	Index int

	// Signer requires the account to have signed the transaction.
	Signer bool

	// Writable requires the transaction to have declared write access.
	Writable bool

	// Owner, when non-nil, is the program that must own the account.
	Owner *types.Pubkey

	// Discriminant, when non-nil, is the record kind the account's buffer
	// must carry in its leading byte. An empty buffer never matches.
	Discriminant *uint8
}

// Resolve binds each declared role to a concrete account from the window,
// validating every constraint before the caller mutates anything.
// Resolution is a plain positional scan; no index structure is built.
func Resolve(window []*runtime.AccountInfo, roles []AccountRole) ([]*runtime.AccountInfo, error) {
	bound := make([]*runtime.AccountInfo, len(roles))
	for i, role := range roles {
		acc, err := resolveOne(window, role)
		if err != nil {
			return nil, err
		}
		bound[i] = acc
	}
	return bound, nil
}

func resolveOne(window []*runtime.AccountInfo, role AccountRole) (*runtime.AccountInfo, error) {
	if role.Index < 0 || role.Index >= len(window) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrMissingAccount, role.Index, len(window))
	}
	acc := window[role.Index]

	if role.Signer && !acc.IsSigner {
		return nil, fmt.Errorf("%w: %s", ErrNotSigner, acc.Key)
	}
	if role.Writable && !acc.IsWritable {
		return nil, fmt.Errorf("%w: %s", ErrNotWritable, acc.Key)
	}
	if role.Owner != nil && acc.Owner != *role.Owner {
		return nil, fmt.Errorf("%w: %s owned by %s, expected %s",
			ErrWrongOwner, acc.Key, acc.Owner, *role.Owner)
	}
	if role.Discriminant != nil {
		if len(acc.Data) == 0 || acc.Data[0] != *role.Discriminant {
			return nil, fmt.Errorf("%w: %s", ErrWrongDiscriminant, acc.Key)
		}
	}
	return acc, nil
}

// disc is a shorthand for building discriminant constraints.
func disc(d uint8) *uint8 { return &d }
