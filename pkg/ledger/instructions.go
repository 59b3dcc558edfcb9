package ledger

import (
	"encoding/binary"
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Sub-instruction tags. The wire form is an 8-byte little-endian field of
// which only the low byte is significant, keeping argument blocks 8-byte
// aligned.
const (
	TagInitializeConfig  uint8 = 0
	TagInitializeMint    uint8 = 1
	TagInitializeAccount uint8 = 2
	TagMint              uint8 = 3
	TagBurn              uint8 = 4
	TagTransfer          uint8 = 5
	TagTransmute         uint8 = 6
	TagInitializeVault   uint8 = 7
)

// TagSize is the wire size of the padded sub-instruction tag.
const TagSize = 8

// Argument block sizes.
const (
	initializeMintArgsLen    = 40 // authority 32 + decimals u64
	initializeAccountArgsLen = 48 // owner 32 + mint u64 + bump u64
	amountArgsLen            = 8  // amount u64
)

// InitializeMintArgs are the arguments of an InitializeMint sub-instruction.
type InitializeMintArgs struct {
	Authority types.Pubkey // Identity permitted to grow supply; zero = fixed supply
	Decimals  uint64       // u64 for alignment; max value is MaxDecimals
}

func (a *InitializeMintArgs) decode(data []byte) ([]byte, error) {
	if len(data) < initializeMintArgsLen {
		return nil, fmt.Errorf("%w: InitializeMint args need %d bytes, got %d",
			ErrInvalidInstructionData, initializeMintArgsLen, len(data))
	}
	copy(a.Authority[:], data[0:32])
	a.Decimals = binary.LittleEndian.Uint64(data[32:40])
	return data[initializeMintArgsLen:], nil
}

// Encode encodes the sub-instruction, tag included.
func (a *InitializeMintArgs) Encode() []byte {
	data := make([]byte, TagSize+initializeMintArgsLen)
	data[0] = TagInitializeMint
	copy(data[TagSize:TagSize+32], a.Authority[:])
	binary.LittleEndian.PutUint64(data[TagSize+32:], a.Decimals)
	return data
}

// InitializeAccountArgs are the arguments of an InitializeAccount
// sub-instruction.
type InitializeAccountArgs struct {
	Owner types.Pubkey // Authorizing identity for the new account
	Mint  uint64       // Index of an already created mint
	Bump  uint64       // Address derivation bump, provided by the caller
}

func (a *InitializeAccountArgs) decode(data []byte) ([]byte, error) {
	if len(data) < initializeAccountArgsLen {
		return nil, fmt.Errorf("%w: InitializeAccount args need %d bytes, got %d",
			ErrInvalidInstructionData, initializeAccountArgsLen, len(data))
	}
	copy(a.Owner[:], data[0:32])
	a.Mint = binary.LittleEndian.Uint64(data[32:40])
	a.Bump = binary.LittleEndian.Uint64(data[40:48])
	return data[initializeAccountArgsLen:], nil
}

// Encode encodes the sub-instruction, tag included.
func (a *InitializeAccountArgs) Encode() []byte {
	data := make([]byte, TagSize+initializeAccountArgsLen)
	data[0] = TagInitializeAccount
	copy(data[TagSize:TagSize+32], a.Owner[:])
	binary.LittleEndian.PutUint64(data[TagSize+32:], a.Mint)
	binary.LittleEndian.PutUint64(data[TagSize+40:], a.Bump)
	return data
}

// AmountArgs are the arguments shared by Mint, Burn, Transfer and
// Transmute sub-instructions.
type AmountArgs struct {
	Amount uint64
}

func (a *AmountArgs) decode(data []byte) ([]byte, error) {
	if len(data) < amountArgsLen {
		return nil, fmt.Errorf("%w: amount args need %d bytes, got %d",
			ErrInvalidInstructionData, amountArgsLen, len(data))
	}
	a.Amount = binary.LittleEndian.Uint64(data[0:8])
	return data[amountArgsLen:], nil
}

// EncodeAmount encodes an amount-only sub-instruction for the given tag.
func EncodeAmount(tag uint8, amount uint64) []byte {
	data := make([]byte, TagSize+amountArgsLen)
	data[0] = tag
	binary.LittleEndian.PutUint64(data[TagSize:], amount)
	return data
}

// EncodeInitializeConfig encodes an InitializeConfig sub-instruction.
func EncodeInitializeConfig() []byte {
	data := make([]byte, TagSize)
	data[0] = TagInitializeConfig
	return data
}

// EncodeInitializeVault encodes an InitializeVault sub-instruction. The
// bound external mint and the fresh native mint arrive as accounts, so
// there is no argument block.
func EncodeInitializeVault() []byte {
	data := make([]byte, TagSize)
	data[0] = TagInitializeVault
	return data
}

// Instruction is one decoded sub-instruction of a batch.
type Instruction struct {
	Tag               uint8
	InitializeMint    InitializeMintArgs
	InitializeAccount InitializeAccountArgs
	Amount            AmountArgs
}

// InstructionIter decodes sub-instructions from a batch payload one at a
// time, without allocating. Iteration ends when fewer than TagSize bytes
// remain; trailing garbage shorter than a tag is ignored, matching the
// wire format's padding rule.
type InstructionIter struct {
	data []byte
}

// NewInstructionIter creates an iterator over a batch payload.
func NewInstructionIter(data []byte) *InstructionIter {
	return &InstructionIter{data: data}
}

// Next decodes the next sub-instruction into inst. It returns false when
// the payload is exhausted, and an error for an unknown tag or a
// truncated argument block.
func (it *InstructionIter) Next(inst *Instruction) (bool, error) {
	if len(it.data) < TagSize {
		return false, nil
	}

	tag := it.data[0]
	rest := it.data[TagSize:]

	var err error
	switch tag {
	case TagInitializeConfig, TagInitializeVault:
		// No arguments.
	case TagInitializeMint:
		rest, err = inst.InitializeMint.decode(rest)
	case TagInitializeAccount:
		rest, err = inst.InitializeAccount.decode(rest)
	case TagMint, TagBurn, TagTransfer, TagTransmute:
		rest, err = inst.Amount.decode(rest)
	default:
		return false, fmt.Errorf("%w: unknown tag %d", ErrInvalidInstructionData, tag)
	}
	if err != nil {
		return false, err
	}

	inst.Tag = tag
	it.data = rest
	return true, nil
}
