package ledger

import (
	"encoding/binary"
	"fmt"
)

// External canonical ("tokenkeg") layout. These shapes are fixed by the
// external token program; byte-exact compatibility is required for the
// transmute bridge to interoperate.
const (
	// TokenkegAccountSize is the size of an external token account
	// (mint 32 | owner 32 | amount 8 | delegate 36 | state 1 |
	// is_native 12 | delegated_amount 8 | close_authority 36).
	TokenkegAccountSize = 165

	// TokenkegMintSize is the size of an external mint
	// (mint_authority 36 | supply 8 | decimals 1 | is_initialized 1 |
	// freeze_authority 36).
	TokenkegMintSize = 82
)

// External account states.
const (
	TokenkegStateUninitialized uint8 = 0
	TokenkegStateInitialized   uint8 = 1
	TokenkegStateFrozen        uint8 = 2
)

// Field offsets within the external token account layout.
const (
	tokenkegMintOffset   = 0
	tokenkegOwnerOffset  = 32
	tokenkegAmountOffset = 64
	tokenkegStateOffset  = 108
)

// TokenkegAccountView is a typed view over an external token account
// buffer. Like the native views it aliases the caller's storage.
type TokenkegAccountView struct {
	data []byte
}

// LoadTokenkegAccount constructs a view over an external token account
// buffer, validating only its shape. Callers check state, mint and owner
// according to the operation's rules.
func LoadTokenkegAccount(data []byte) (TokenkegAccountView, error) {
	if len(data) != TokenkegAccountSize {
		return TokenkegAccountView{}, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrLayoutMismatch, TokenkegAccountSize, len(data))
	}
	return TokenkegAccountView{data: data}, nil
}

// MintBytes returns the mint identity field without copying.
func (v TokenkegAccountView) MintBytes() []byte {
	return v.data[tokenkegMintOffset : tokenkegMintOffset+32]
}

// OwnerBytes returns the owner identity field without copying.
func (v TokenkegAccountView) OwnerBytes() []byte {
	return v.data[tokenkegOwnerOffset : tokenkegOwnerOffset+32]
}

// Amount returns the account's balance.
func (v TokenkegAccountView) Amount() uint64 {
	return binary.LittleEndian.Uint64(v.data[tokenkegAmountOffset:])
}

// SetAmount stores the account's balance.
func (v TokenkegAccountView) SetAmount(amount uint64) {
	binary.LittleEndian.PutUint64(v.data[tokenkegAmountOffset:], amount)
}

// State returns the account's state byte.
func (v TokenkegAccountView) State() uint8 {
	return v.data[tokenkegStateOffset]
}

// Initialized reports whether the account's state byte is set.
func (v TokenkegAccountView) Initialized() bool {
	return v.State() != TokenkegStateUninitialized
}

// ValidTokenkegMint reports whether data holds an initialized external
// mint: correct size, valid optional-authority tags and the initialized
// flag set.
func ValidTokenkegMint(data []byte) bool {
	if len(data) != TokenkegMintSize {
		return false
	}
	// mint_authority and freeze_authority carry a 4-byte 0/1 tag.
	if tag := binary.LittleEndian.Uint32(data[0:4]); tag > 1 {
		return false
	}
	if data[45] != 1 {
		return false
	}
	if tag := binary.LittleEndian.Uint32(data[46:50]); tag > 1 {
		return false
	}
	return true
}

// TokenkegMintDecimals reads the decimals field of an external mint
// buffer. Callers validate shape with ValidTokenkegMint first.
func TokenkegMintDecimals(data []byte) uint8 {
	return data[44]
}
