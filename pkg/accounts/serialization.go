package accounts

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Serialization format:
// - data_len: 4 bytes (little-endian uint32)
// - data:     data_len bytes
// - owner:    32 bytes
//
// Total fixed size: 4 + 32 = 36 bytes + variable data

const (
	serializationHeaderSize = 4  // data_len
	serializationFooterSize = 32 // owner
	serializationMinSize    = serializationHeaderSize + serializationFooterSize
)

var (
	// ErrInvalidAccountData is returned when serialized account data is
	// malformed.
	ErrInvalidAccountData = errors.New("invalid account data")
)

// SerializeAccount serializes an account to binary format.
func SerializeAccount(account *types.Account) ([]byte, error) {
	if account == nil {
		return nil, errors.New("cannot serialize nil account")
	}

	dataLen := len(account.Data)
	buf := make([]byte, serializationMinSize+dataLen)

	offset := 0

	// Write data_len (4 bytes, little-endian)
	binary.LittleEndian.PutUint32(buf[offset:], uint32(dataLen))
	offset += 4

	// Write data
	if dataLen > 0 {
		copy(buf[offset:], account.Data)
		offset += dataLen
	}

	// Write owner (32 bytes)
	copy(buf[offset:], account.Owner[:])

	return buf, nil
}

// DeserializeAccount deserializes an account from binary format.
func DeserializeAccount(data []byte) (*types.Account, error) {
	if len(data) < serializationMinSize {
		return nil, fmt.Errorf("%w: data too short, need at least %d bytes, got %d",
			ErrInvalidAccountData, serializationMinSize, len(data))
	}

	offset := 0

	// Read data_len (4 bytes, little-endian)
	dataLen := binary.LittleEndian.Uint32(data[offset:])
	offset += 4

	// Validate total size
	expectedSize := serializationMinSize + int(dataLen)
	if len(data) < expectedSize {
		return nil, fmt.Errorf("%w: data length mismatch, expected %d bytes, got %d",
			ErrInvalidAccountData, expectedSize, len(data))
	}

	// Read data
	var accountData []byte
	if dataLen > 0 {
		accountData = make([]byte, dataLen)
		copy(accountData, data[offset:offset+int(dataLen)])
		offset += int(dataLen)
	}

	// Read owner (32 bytes)
	var owner types.Pubkey
	copy(owner[:], data[offset:offset+32])

	return &types.Account{
		Data:  accountData,
		Owner: owner,
	}, nil
}
