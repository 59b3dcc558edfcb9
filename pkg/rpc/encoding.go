package rpc

import (
	"encoding/base64"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/mr-tron/base58"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Encoding types supported for account data.
const (
	EncodingBase58     = "base58"
	EncodingBase64     = "base64"
	EncodingBase64Zstd = "base64+zstd"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil)
	zstdDecoder, _ = zstd.NewReader(nil)
)

// EncodeBase58 encodes bytes to a base58 string.
func EncodeBase58(data []byte) string {
	return base58.Encode(data)
}

// DecodeBase58 decodes a base58 string to bytes.
func DecodeBase58(s string) ([]byte, error) {
	return base58.Decode(s)
}

// EncodeBase64 encodes bytes to a base64 string.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 decodes a base64 string to bytes.
func DecodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

// EncodePubkey encodes a pubkey to a base58 string.
func EncodePubkey(pk types.Pubkey) string {
	return pk.String()
}

// DecodePubkey decodes a base58 string to a pubkey.
func DecodePubkey(s string) (types.Pubkey, error) {
	return types.PubkeyFromBase58(s)
}

// EncodeAccountData encodes account data in the specified encoding.
// Returns a [data, encoding] tuple.
func EncodeAccountData(data []byte, encoding string) ([]interface{}, error) {
	switch encoding {
	case EncodingBase58:
		// Base58 is only viable for small buffers.
		if len(data) > 128 {
			return nil, fmt.Errorf("data too large for base58 encoding, use base64")
		}
		return []interface{}{EncodeBase58(data), EncodingBase58}, nil

	case EncodingBase64, "":
		return []interface{}{EncodeBase64(data), EncodingBase64}, nil

	case EncodingBase64Zstd:
		compressed := zstdEncoder.EncodeAll(data, nil)
		return []interface{}{EncodeBase64(compressed), EncodingBase64Zstd}, nil

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// DecodeAccountData decodes account data from the specified encoding.
func DecodeAccountData(encoded string, encoding string) ([]byte, error) {
	switch encoding {
	case EncodingBase58:
		return DecodeBase58(encoded)

	case EncodingBase64, "":
		return DecodeBase64(encoded)

	case EncodingBase64Zstd:
		compressed, err := DecodeBase64(encoded)
		if err != nil {
			return nil, err
		}
		return zstdDecoder.DecodeAll(compressed, nil)

	default:
		return nil, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// ValidateEncoding validates that an encoding string is supported.
func ValidateEncoding(encoding string) error {
	switch encoding {
	case EncodingBase58, EncodingBase64, EncodingBase64Zstd, "":
		return nil
	default:
		return fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// SliceData returns a slice of data based on offset and length.
// Returns the full data if slice is nil.
func SliceData(data []byte, slice *DataSlice) []byte {
	if slice == nil {
		return data
	}

	dataLen := uint64(len(data))
	if slice.Offset >= dataLen {
		return []byte{}
	}

	end := slice.Offset + slice.Length
	if end > dataLen {
		end = dataLen
	}

	return data[slice.Offset:end]
}
