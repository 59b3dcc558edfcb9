// Package rpc provides a read-only JSON-RPC 2.0 server over the
// nanotoken account database.
package rpc

import (
	"encoding/json"
)

// JSON-RPC 2.0 constants
const (
	JSONRPCVersion = "2.0"
)

// Standard JSON-RPC 2.0 error codes
const (
	ParseError     = -32700
	InvalidRequest = -32600
	MethodNotFound = -32601
	InvalidParams  = -32602
	InternalError  = -32603

	// Nanotoken-specific error codes
	AccountNotFound     = -32001
	NotATokenAccount    = -32002
	NotAMint            = -32003
	ConfigUninitialized = -32004
	UnsupportedEncoding = -32005
)

// RPCRequest represents a JSON-RPC 2.0 request.
type RPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id"`
}

// RPCResponse represents a JSON-RPC 2.0 response.
type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// RPCError represents a JSON-RPC 2.0 error.
type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *RPCError) Error() string {
	return e.Message
}

// NewRPCError creates a new RPC error.
func NewRPCError(code int, message string) *RPCError {
	return &RPCError{
		Code:    code,
		Message: message,
	}
}

// AccountInfoResult represents the result of getAccountInfo.
type AccountInfoResult struct {
	Data  []interface{} `json:"data"` // [data, encoding]
	Owner string        `json:"owner"`
	Space uint64        `json:"space"`
}

// TokenAccountResult represents a decoded token account record.
type TokenAccountResult struct {
	Owner   string `json:"owner"`
	Mint    uint64 `json:"mint"`
	Balance uint64 `json:"balance"`
}

// MintResult represents a decoded mint record.
type MintResult struct {
	Index     uint64 `json:"index"`
	Authority string `json:"authority"`
	Supply    uint64 `json:"supply"`
	Decimals  uint8  `json:"decimals"`
}

// SupplyResult represents the result of getTokenSupply.
type SupplyResult struct {
	Supply   uint64 `json:"supply"`
	Decimals uint8  `json:"decimals"`
}

// ConfigResult represents the decoded config singleton.
type ConfigResult struct {
	Address   string `json:"address"`
	MintIndex uint64 `json:"mintIndex"`
}

// TokenAddressResult represents the result of findTokenAccountAddress.
type TokenAddressResult struct {
	Address string `json:"address"`
	Bump    uint8  `json:"bump"`
}

// AccountsCountResult is the number of accounts in the database.
type AccountsCountResult uint64

// HealthResult represents the result of getHealth.
type HealthResult string

// VersionResult represents the result of getVersion.
type VersionResult struct {
	Version string `json:"nanotoken-core"`
}

// AccountInfoOptions represents optional parameters for getAccountInfo.
type AccountInfoOptions struct {
	Encoding  string     `json:"encoding,omitempty"` // base58, base64, base64+zstd
	DataSlice *DataSlice `json:"dataSlice,omitempty"`
}

// DataSlice limits the returned account data to a byte range.
type DataSlice struct {
	Offset uint64 `json:"offset"`
	Length uint64 `json:"length"`
}
