package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Record discriminants. Every native record starts with an 8-byte
// discriminant field of which only the first byte is significant; the
// remaining seven bytes keep the body 8-byte aligned.
const (
	DiscriminantUninitialized uint8 = 0
	DiscriminantConfig        uint8 = 1
	DiscriminantMint          uint8 = 2
	DiscriminantToken         uint8 = 3
)

// DiscriminantSize is the size of the padded discriminant prefix.
const DiscriminantSize = 8

// Record sizes, discriminant included.
const (
	// ConfigSize is the size of the config record (8 + 8).
	ConfigSize = DiscriminantSize + 8

	// MintSize is the size of a mint record
	// (8 + mint_index 8 + authority 32 + supply 8 + decimals 1 + pad 7).
	MintSize = DiscriminantSize + 56

	// TokenAccountSize is the size of a token account record
	// (8 + owner 32 + mint_index 8 + balance 8).
	TokenAccountSize = DiscriminantSize + 48
)

// MaxDecimals is the largest decimals value a mint may carry.
const MaxDecimals = 12

// Field offsets within the mint record body.
const (
	mintIndexOffset     = DiscriminantSize
	mintAuthorityOffset = DiscriminantSize + 8
	mintSupplyOffset    = DiscriminantSize + 40
	mintDecimalsOffset  = DiscriminantSize + 48
)

// Field offsets within the token account record body.
const (
	tokenOwnerOffset   = DiscriminantSize
	tokenMintOffset    = DiscriminantSize + 32
	tokenBalanceOffset = DiscriminantSize + 40
)

// checkRecord validates a buffer's size and discriminant for a typed view.
// The buffer must be exactly size bytes (ErrLayoutMismatch) and carry the
// expected discriminant (ErrDiscriminantMismatch).
func checkRecord(data []byte, size int, disc uint8) error {
	if len(data) != size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrLayoutMismatch, size, len(data))
	}
	if data[0] != disc {
		return fmt.Errorf("%w: expected %d, got %d", ErrDiscriminantMismatch, disc, data[0])
	}
	return nil
}

// initRecord validates a fresh buffer and writes the discriminant. The
// buffer must be exactly size bytes and still uninitialized
// (ErrAlreadyInitialized otherwise).
func initRecord(data []byte, size int, disc uint8) error {
	if len(data) != size {
		return fmt.Errorf("%w: expected %d bytes, got %d", ErrLayoutMismatch, size, len(data))
	}
	if data[0] != DiscriminantUninitialized {
		return ErrAlreadyInitialized
	}
	data[0] = disc
	return nil
}

// ConfigView is a typed view over the config singleton's buffer. The view
// aliases the caller-supplied storage; it copies and allocates nothing.
type ConfigView struct {
	data []byte
}

// LoadConfig constructs a view over an initialized config record.
func LoadConfig(data []byte) (ConfigView, error) {
	if err := checkRecord(data, ConfigSize, DiscriminantConfig); err != nil {
		return ConfigView{}, err
	}
	return ConfigView{data: data}, nil
}

// InitConfig initializes a fresh config record in place and returns a view
// over it. The mint counter starts at zero.
func InitConfig(data []byte) (ConfigView, error) {
	if err := initRecord(data, ConfigSize, DiscriminantConfig); err != nil {
		return ConfigView{}, err
	}
	v := ConfigView{data: data}
	v.SetMintIndex(0)
	return v, nil
}

// MintIndex returns the next mint index to be assigned.
func (v ConfigView) MintIndex() uint64 {
	return binary.LittleEndian.Uint64(v.data[DiscriminantSize:])
}

// SetMintIndex stores the next mint index.
func (v ConfigView) SetMintIndex(idx uint64) {
	binary.LittleEndian.PutUint64(v.data[DiscriminantSize:], idx)
}

// MintView is a typed view over a mint record's buffer.
type MintView struct {
	data []byte
}

// LoadMint constructs a view over an initialized mint record.
func LoadMint(data []byte) (MintView, error) {
	if err := checkRecord(data, MintSize, DiscriminantMint); err != nil {
		return MintView{}, err
	}
	return MintView{data: data}, nil
}

// InitMint initializes a fresh mint record in place: assigned index, given
// authority and decimals, zero supply.
func InitMint(data []byte, index uint64, authority types.Pubkey, decimals uint8) (MintView, error) {
	if decimals > MaxDecimals {
		return MintView{}, fmt.Errorf("%w: max is %d, got %d", ErrInvalidDecimals, MaxDecimals, decimals)
	}
	if err := initRecord(data, MintSize, DiscriminantMint); err != nil {
		return MintView{}, err
	}
	v := MintView{data: data}
	binary.LittleEndian.PutUint64(v.data[mintIndexOffset:], index)
	copy(v.data[mintAuthorityOffset:mintAuthorityOffset+32], authority[:])
	binary.LittleEndian.PutUint64(v.data[mintSupplyOffset:], 0)
	v.data[mintDecimalsOffset] = decimals
	return v, nil
}

// MintIndex returns the mint's assigned index.
func (v MintView) MintIndex() uint64 {
	return binary.LittleEndian.Uint64(v.data[mintIndexOffset:])
}

// Authority returns the identity permitted to grow supply. The all-zero
// pubkey means the supply is fixed.
func (v MintView) Authority() types.Pubkey {
	var pk types.Pubkey
	copy(pk[:], v.data[mintAuthorityOffset:mintAuthorityOffset+32])
	return pk
}

// AuthorityBytes returns the authority field without copying.
func (v MintView) AuthorityBytes() []byte {
	return v.data[mintAuthorityOffset : mintAuthorityOffset+32]
}

// Supply returns the mint's total supply.
func (v MintView) Supply() uint64 {
	return binary.LittleEndian.Uint64(v.data[mintSupplyOffset:])
}

// SetSupply stores the mint's total supply.
func (v MintView) SetSupply(supply uint64) {
	binary.LittleEndian.PutUint64(v.data[mintSupplyOffset:], supply)
}

// Decimals returns the mint's decimal precision.
func (v MintView) Decimals() uint8 {
	return v.data[mintDecimalsOffset]
}

// TokenAccountView is a typed view over a token account record's buffer.
type TokenAccountView struct {
	data []byte
}

// LoadTokenAccount constructs a view over an initialized token account.
func LoadTokenAccount(data []byte) (TokenAccountView, error) {
	if err := checkRecord(data, TokenAccountSize, DiscriminantToken); err != nil {
		return TokenAccountView{}, err
	}
	return TokenAccountView{data: data}, nil
}

// InitTokenAccount initializes a fresh token account record in place with
// the given owner and mint index and a zero balance.
func InitTokenAccount(data []byte, owner types.Pubkey, mint uint64) (TokenAccountView, error) {
	if err := initRecord(data, TokenAccountSize, DiscriminantToken); err != nil {
		return TokenAccountView{}, err
	}
	v := TokenAccountView{data: data}
	copy(v.data[tokenOwnerOffset:tokenOwnerOffset+32], owner[:])
	binary.LittleEndian.PutUint64(v.data[tokenMintOffset:], mint)
	binary.LittleEndian.PutUint64(v.data[tokenBalanceOffset:], 0)
	return v, nil
}

// Owner returns the account's authorizing identity.
func (v TokenAccountView) Owner() types.Pubkey {
	var pk types.Pubkey
	copy(pk[:], v.data[tokenOwnerOffset:tokenOwnerOffset+32])
	return pk
}

// OwnerBytes returns the owner field without copying.
func (v TokenAccountView) OwnerBytes() []byte {
	return v.data[tokenOwnerOffset : tokenOwnerOffset+32]
}

// MintIndex returns the referenced mint's index.
func (v TokenAccountView) MintIndex() uint64 {
	return binary.LittleEndian.Uint64(v.data[tokenMintOffset:])
}

// Balance returns the account's balance.
func (v TokenAccountView) Balance() uint64 {
	return binary.LittleEndian.Uint64(v.data[tokenBalanceOffset:])
}

// SetBalance stores the account's balance.
func (v TokenAccountView) SetBalance(balance uint64) {
	binary.LittleEndian.PutUint64(v.data[tokenBalanceOffset:], balance)
}
