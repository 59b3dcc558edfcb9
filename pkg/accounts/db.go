// Package accounts provides persistent and in-memory account storage for
// the nanotoken host.
package accounts

import (
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// DB is the interface the host uses to load and persist account state.
type DB interface {
	// GetAccount retrieves an account by pubkey.
	// Returns nil, nil if the account does not exist.
	GetAccount(pubkey types.Pubkey) (*types.Account, error)

	// SetAccount stores an account.
	SetAccount(pubkey types.Pubkey, account *types.Account) error

	// DeleteAccount removes an account.
	DeleteAccount(pubkey types.Pubkey) error

	// HasAccount returns true if the account exists.
	HasAccount(pubkey types.Pubkey) bool

	// AccountsCount returns the total number of accounts.
	AccountsCount() uint64

	// ForEach calls fn for every stored account until fn returns false or
	// an error. Iteration order is unspecified.
	ForEach(fn func(pubkey types.Pubkey, account *types.Account) (bool, error)) error

	// Close closes the database.
	Close() error
}
