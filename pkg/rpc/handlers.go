package rpc

import (
	"encoding/json"
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/ledger"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// NodeVersion is reported by getVersion.
const NodeVersion = "0.1.0"

// Handler is the function signature for RPC method handlers.
type Handler func(params json.RawMessage) (interface{}, *RPCError)

// Handlers manages RPC method handlers over the account database.
type Handlers struct {
	db       accounts.DB
	handlers map[string]Handler
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db accounts.DB) *Handlers {
	h := &Handlers{
		db:       db,
		handlers: make(map[string]Handler),
	}

	h.registerHandlers()

	return h
}

// GetHandler returns the handler for a method, or nil if not found.
func (h *Handlers) GetHandler(method string) Handler {
	return h.handlers[method]
}

// registerHandlers registers all RPC method handlers.
func (h *Handlers) registerHandlers() {
	h.handlers["getAccountInfo"] = h.handleGetAccountInfo
	h.handlers["getBalance"] = h.handleGetBalance
	h.handlers["getTokenAccount"] = h.handleGetTokenAccount
	h.handlers["getMintInfo"] = h.handleGetMintInfo
	h.handlers["getTokenSupply"] = h.handleGetTokenSupply
	h.handlers["getConfig"] = h.handleGetConfig
	h.handlers["getAccountsCount"] = h.handleGetAccountsCount
	h.handlers["findTokenAccountAddress"] = h.handleFindTokenAccountAddress
	h.handlers["getHealth"] = h.handleGetHealth
	h.handlers["getVersion"] = h.handleGetVersion
}

// parsePubkeyParam extracts a base58 pubkey from position 0 of a params array.
func parsePubkeyParam(params json.RawMessage) (types.Pubkey, []json.RawMessage, *RPCError) {
	var rawParams []json.RawMessage
	if err := json.Unmarshal(params, &rawParams); err != nil {
		return types.ZeroPubkey, nil, NewRPCError(InvalidParams, "invalid params: expected array")
	}

	if len(rawParams) < 1 {
		return types.ZeroPubkey, nil, NewRPCError(InvalidParams, "missing pubkey parameter")
	}

	var pubkeyStr string
	if err := json.Unmarshal(rawParams[0], &pubkeyStr); err != nil {
		return types.ZeroPubkey, nil, NewRPCError(InvalidParams, "invalid pubkey parameter")
	}

	pubkey, err := DecodePubkey(pubkeyStr)
	if err != nil {
		return types.ZeroPubkey, nil, NewRPCError(InvalidParams, fmt.Sprintf("invalid pubkey: %v", err))
	}

	return pubkey, rawParams, nil
}

// lookupAccount fetches an account, mapping a miss to AccountNotFound.
func (h *Handlers) lookupAccount(pubkey types.Pubkey) (*types.Account, *RPCError) {
	account, err := h.db.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}
	if account == nil {
		return nil, NewRPCError(AccountNotFound, fmt.Sprintf("account not found: %s", pubkey))
	}
	return account, nil
}

// handleGetAccountInfo handles the getAccountInfo RPC method.
// Params: [pubkey, {encoding, dataSlice}]
func (h *Handlers) handleGetAccountInfo(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, rawParams, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	encoding := EncodingBase64
	var dataSlice *DataSlice

	if len(rawParams) > 1 {
		var options AccountInfoOptions
		if err := json.Unmarshal(rawParams[1], &options); err == nil {
			if options.Encoding != "" {
				if err := ValidateEncoding(options.Encoding); err != nil {
					return nil, NewRPCError(UnsupportedEncoding, err.Error())
				}
				encoding = options.Encoding
			}
			dataSlice = options.DataSlice
		}
	}

	account, err := h.db.GetAccount(pubkey)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get account: %v", err))
	}

	// Missing accounts yield a null result rather than an error.
	if account == nil {
		return nil, nil
	}

	data := account.Data
	if dataSlice != nil {
		data = SliceData(data, dataSlice)
	}

	encodedData, encErr := EncodeAccountData(data, encoding)
	if encErr != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to encode data: %v", encErr))
	}

	return AccountInfoResult{
		Data:  encodedData,
		Owner: EncodePubkey(account.Owner),
		Space: uint64(len(account.Data)),
	}, nil
}

// handleGetBalance handles the getBalance RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetBalance(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, rpcErr := h.lookupAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}

	v, err := ledger.LoadTokenAccount(account.Data)
	if err != nil {
		return nil, NewRPCError(NotATokenAccount, fmt.Sprintf("not a token account: %v", err))
	}

	return v.Balance(), nil
}

// handleGetTokenAccount handles the getTokenAccount RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetTokenAccount(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, rpcErr := h.lookupAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}

	v, err := ledger.LoadTokenAccount(account.Data)
	if err != nil {
		return nil, NewRPCError(NotATokenAccount, fmt.Sprintf("not a token account: %v", err))
	}

	return TokenAccountResult{
		Owner:   EncodePubkey(v.Owner()),
		Mint:    v.MintIndex(),
		Balance: v.Balance(),
	}, nil
}

// handleGetMintInfo handles the getMintInfo RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetMintInfo(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, rpcErr := h.lookupAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}

	v, err := ledger.LoadMint(account.Data)
	if err != nil {
		return nil, NewRPCError(NotAMint, fmt.Sprintf("not a mint: %v", err))
	}

	return MintResult{
		Index:     v.MintIndex(),
		Authority: EncodePubkey(v.Authority()),
		Supply:    v.Supply(),
		Decimals:  v.Decimals(),
	}, nil
}

// handleGetTokenSupply handles the getTokenSupply RPC method.
// Params: [pubkey]
func (h *Handlers) handleGetTokenSupply(params json.RawMessage) (interface{}, *RPCError) {
	pubkey, _, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	account, rpcErr := h.lookupAccount(pubkey)
	if rpcErr != nil {
		return nil, rpcErr
	}

	v, err := ledger.LoadMint(account.Data)
	if err != nil {
		return nil, NewRPCError(NotAMint, fmt.Sprintf("not a mint: %v", err))
	}

	return SupplyResult{
		Supply:   v.Supply(),
		Decimals: v.Decimals(),
	}, nil
}

// handleGetConfig handles the getConfig RPC method.
// Params: none
func (h *Handlers) handleGetConfig(params json.RawMessage) (interface{}, *RPCError) {
	account, err := h.db.GetAccount(types.ConfigAccountID)
	if err != nil {
		return nil, NewRPCError(InternalError, fmt.Sprintf("failed to get config: %v", err))
	}
	if account == nil {
		return nil, NewRPCError(ConfigUninitialized, "config account not found")
	}

	v, loadErr := ledger.LoadConfig(account.Data)
	if loadErr != nil {
		return nil, NewRPCError(ConfigUninitialized, fmt.Sprintf("config not initialized: %v", loadErr))
	}

	return ConfigResult{
		Address:   EncodePubkey(types.ConfigAccountID),
		MintIndex: v.MintIndex(),
	}, nil
}

// handleGetAccountsCount handles the getAccountsCount RPC method.
// Params: none
func (h *Handlers) handleGetAccountsCount(params json.RawMessage) (interface{}, *RPCError) {
	return AccountsCountResult(h.db.AccountsCount()), nil
}

// handleFindTokenAccountAddress handles the findTokenAccountAddress RPC method.
// Params: [owner, mintIndex]
func (h *Handlers) handleFindTokenAccountAddress(params json.RawMessage) (interface{}, *RPCError) {
	owner, rawParams, rpcErr := parsePubkeyParam(params)
	if rpcErr != nil {
		return nil, rpcErr
	}

	if len(rawParams) < 2 {
		return nil, NewRPCError(InvalidParams, "missing mint index parameter")
	}
	var mintIndex uint64
	if err := json.Unmarshal(rawParams[1], &mintIndex); err != nil {
		return nil, NewRPCError(InvalidParams, "invalid mint index parameter")
	}

	address, bump := ledger.FindTokenAccountAddress(owner, mintIndex)

	return TokenAddressResult{
		Address: EncodePubkey(address),
		Bump:    bump,
	}, nil
}

// handleGetHealth handles the getHealth RPC method.
// Params: none
func (h *Handlers) handleGetHealth(params json.RawMessage) (interface{}, *RPCError) {
	return HealthResult("ok"), nil
}

// handleGetVersion handles the getVersion RPC method.
// Params: none
func (h *Handlers) handleGetVersion(params json.RawMessage) (interface{}, *RPCError) {
	return VersionResult{Version: NodeVersion}, nil
}
