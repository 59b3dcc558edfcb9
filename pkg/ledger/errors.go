// Package ledger implements the nanotoken token program: fixed-layout
// account records mutated in place by a batched instruction processor.
package ledger

import "errors"

// Ledger program errors
var (
	// ErrLayoutMismatch indicates a buffer's length does not match the
	// expected record size.
	ErrLayoutMismatch = errors.New("account layout mismatch")

	// ErrDiscriminantMismatch indicates a buffer's leading discriminant
	// byte does not match the expected record kind.
	ErrDiscriminantMismatch = errors.New("account discriminant mismatch")

	// ErrAlreadyInitialized indicates record creation was attempted on a
	// buffer whose discriminant is already set.
	ErrAlreadyInitialized = errors.New("account already initialized")

	// ErrMissingAccount indicates a sub-instruction referenced an account
	// position past the end of the supplied account list.
	ErrMissingAccount = errors.New("missing account")

	// ErrNotSigner indicates a required signer did not sign.
	ErrNotSigner = errors.New("account is not a signer")

	// ErrNotWritable indicates a required writable account is read-only.
	ErrNotWritable = errors.New("account is not writable")

	// ErrWrongOwner indicates an account is not owned by the expected
	// program, or a token account's owner does not match the authority.
	ErrWrongOwner = errors.New("wrong account owner")

	// ErrWrongDiscriminant indicates an account holds a different record
	// kind than the role requires.
	ErrWrongDiscriminant = errors.New("wrong account discriminant")

	// ErrCounterOverflow indicates the global mint counter is exhausted.
	ErrCounterOverflow = errors.New("mint counter overflow")

	// ErrUnknownMint indicates a mint index at or past the global counter.
	ErrUnknownMint = errors.New("unknown mint")

	// ErrMintMismatch indicates source and destination accounts reference
	// different mints.
	ErrMintMismatch = errors.New("mint mismatch")

	// ErrMintNotBound indicates the native mint supplied to a transmute is
	// not the vault mint created for the external mint.
	ErrMintNotBound = errors.New("mint not bound to external mint")

	// ErrWrongAccountAddress indicates a token account is not at the
	// canonical address derived from its (owner, mint, bump).
	ErrWrongAccountAddress = errors.New("wrong token account address")

	// ErrInsufficientFunds indicates a debit larger than the balance.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrArithmeticOverflow indicates balance or supply math would wrap.
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// ErrSourceUninitialized indicates a transmute source account has no
	// discriminant set.
	ErrSourceUninitialized = errors.New("transmute source uninitialized")

	// ErrDestinationLayoutMismatch indicates a transmute destination buffer
	// does not match the expected external or native shape.
	ErrDestinationLayoutMismatch = errors.New("transmute destination layout mismatch")

	// ErrInvalidInstructionData indicates a malformed instruction payload.
	ErrInvalidInstructionData = errors.New("invalid instruction data")

	// ErrInvalidDecimals indicates mint decimals above the maximum.
	ErrInvalidDecimals = errors.New("invalid decimals")

	// ErrNotEnoughAccounts indicates the invocation supplied fewer
	// accounts than the batch requires.
	ErrNotEnoughAccounts = errors.New("not enough accounts")

	// ErrWrongConfigAccount indicates the trailing config slot does not
	// hold the config singleton.
	ErrWrongConfigAccount = errors.New("wrong config account")

	// ErrWrongSystemAccount indicates the trailing system slot does not
	// hold the system program marker.
	ErrWrongSystemAccount = errors.New("wrong system account")
)
