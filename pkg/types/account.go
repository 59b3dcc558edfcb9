package types

import "golang.org/x/crypto/blake2b"

// Account represents one persisted ledger account: a raw data buffer plus
// the program that owns it. The host owns this memory; the engine only ever
// sees borrowed views of it for the duration of one invocation.
type Account struct {
	Data  []byte // Account data
	Owner Pubkey // Program that owns this account
}

// NewAccount creates a new account with a zeroed buffer of the given size.
func NewAccount(size int, owner Pubkey) *Account {
	return &Account{
		Data:  make([]byte, size),
		Owner: owner,
	}
}

// Clone creates a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := &Account{
		Owner: a.Owner,
	}
	if a.Data != nil {
		clone.Data = make([]byte, len(a.Data))
		copy(clone.Data, a.Data)
	}
	return clone
}

// DataLen returns the length of account data.
func (a *Account) DataLen() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// IsEmpty returns true if the account has no data.
func (a *Account) IsEmpty() bool {
	return a == nil || len(a.Data) == 0
}

// Hash computes the account's state hash, used as a leaf of the accounts
// delta hash.
func (a *Account) Hash(pubkey Pubkey) Hash {
	h, _ := blake2b.New256(nil)
	h.Write(a.Data)
	h.Write(a.Owner[:])
	h.Write(pubkey[:])
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// AccountRef pairs an account with its pubkey for hashing.
type AccountRef struct {
	Pubkey  Pubkey
	Account *Account
}

// AccountMeta describes one account referenced by an invocation: its
// identity and the access the transaction declared for it.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}
