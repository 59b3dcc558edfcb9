package rpc

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/ledger"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	var pk types.Pubkey
	copy(pk[:], hash[:])
	return pk
}

// seededDB builds a database holding an initialized config, one mint and
// one token account. Returns the db plus the mint and token pubkeys.
func seededDB(t *testing.T) (*accounts.MemoryDB, types.Pubkey, types.Pubkey) {
	t.Helper()
	db := accounts.NewMemoryDB()

	configData := make([]byte, ledger.ConfigSize)
	cfg, err := ledger.InitConfig(configData)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	cfg.SetMintIndex(1)
	if err := db.SetAccount(types.ConfigAccountID, &types.Account{
		Data:  configData,
		Owner: types.NanotokenProgramID,
	}); err != nil {
		t.Fatalf("SetAccount failed: %v", err)
	}

	mintData := make([]byte, ledger.MintSize)
	mv, err := ledger.InitMint(mintData, 0, testPubkey("authority"), 9)
	if err != nil {
		t.Fatalf("InitMint failed: %v", err)
	}
	mv.SetSupply(12345)
	mint := testPubkey("mint")
	if err := db.SetAccount(mint, &types.Account{
		Data:  mintData,
		Owner: types.NanotokenProgramID,
	}); err != nil {
		t.Fatalf("SetAccount failed: %v", err)
	}

	tokenData := make([]byte, ledger.TokenAccountSize)
	tv, err := ledger.InitTokenAccount(tokenData, testPubkey("alice"), 0)
	if err != nil {
		t.Fatalf("InitTokenAccount failed: %v", err)
	}
	tv.SetBalance(777)
	token := testPubkey("token")
	if err := db.SetAccount(token, &types.Account{
		Data:  tokenData,
		Owner: types.NanotokenProgramID,
	}); err != nil {
		t.Fatalf("SetAccount failed: %v", err)
	}

	return db, mint, token
}

func callHandler(t *testing.T, h *Handlers, method string, params string) (interface{}, *RPCError) {
	t.Helper()
	handler := h.GetHandler(method)
	if handler == nil {
		t.Fatalf("no handler registered for %s", method)
	}
	return handler(json.RawMessage(params))
}

func TestGetBalance(t *testing.T) {
	db, _, token := seededDB(t)
	h := NewHandlers(db)

	result, rpcErr := callHandler(t, h, "getBalance", `["`+token.String()+`"]`)
	if rpcErr != nil {
		t.Fatalf("getBalance failed: %v", rpcErr)
	}
	if got := result.(uint64); got != 777 {
		t.Errorf("balance = %d, want 777", got)
	}
}

func TestGetBalanceNotTokenAccount(t *testing.T) {
	db, mint, _ := seededDB(t)
	h := NewHandlers(db)

	_, rpcErr := callHandler(t, h, "getBalance", `["`+mint.String()+`"]`)
	if rpcErr == nil || rpcErr.Code != NotATokenAccount {
		t.Errorf("expected NotATokenAccount, got %v", rpcErr)
	}
}

func TestGetBalanceMissingAccount(t *testing.T) {
	db, _, _ := seededDB(t)
	h := NewHandlers(db)

	_, rpcErr := callHandler(t, h, "getBalance", `["`+testPubkey("nobody").String()+`"]`)
	if rpcErr == nil || rpcErr.Code != AccountNotFound {
		t.Errorf("expected AccountNotFound, got %v", rpcErr)
	}
}

func TestGetTokenAccount(t *testing.T) {
	db, _, token := seededDB(t)
	h := NewHandlers(db)

	result, rpcErr := callHandler(t, h, "getTokenAccount", `["`+token.String()+`"]`)
	if rpcErr != nil {
		t.Fatalf("getTokenAccount failed: %v", rpcErr)
	}
	r := result.(TokenAccountResult)
	if r.Owner != testPubkey("alice").String() {
		t.Errorf("owner = %s, want alice pubkey", r.Owner)
	}
	if r.Mint != 0 || r.Balance != 777 {
		t.Errorf("mint/balance = %d/%d, want 0/777", r.Mint, r.Balance)
	}
}

func TestGetMintInfoAndSupply(t *testing.T) {
	db, mint, _ := seededDB(t)
	h := NewHandlers(db)

	result, rpcErr := callHandler(t, h, "getMintInfo", `["`+mint.String()+`"]`)
	if rpcErr != nil {
		t.Fatalf("getMintInfo failed: %v", rpcErr)
	}
	m := result.(MintResult)
	if m.Index != 0 || m.Supply != 12345 || m.Decimals != 9 {
		t.Errorf("mint = %+v, want index 0, supply 12345, decimals 9", m)
	}

	result, rpcErr = callHandler(t, h, "getTokenSupply", `["`+mint.String()+`"]`)
	if rpcErr != nil {
		t.Fatalf("getTokenSupply failed: %v", rpcErr)
	}
	s := result.(SupplyResult)
	if s.Supply != 12345 || s.Decimals != 9 {
		t.Errorf("supply = %+v, want 12345/9", s)
	}
}

func TestGetConfig(t *testing.T) {
	db, _, _ := seededDB(t)
	h := NewHandlers(db)

	result, rpcErr := callHandler(t, h, "getConfig", `[]`)
	if rpcErr != nil {
		t.Fatalf("getConfig failed: %v", rpcErr)
	}
	c := result.(ConfigResult)
	if c.MintIndex != 1 {
		t.Errorf("mint index = %d, want 1", c.MintIndex)
	}

	empty := NewHandlers(accounts.NewMemoryDB())
	_, rpcErr = callHandler(t, empty, "getConfig", `[]`)
	if rpcErr == nil || rpcErr.Code != ConfigUninitialized {
		t.Errorf("expected ConfigUninitialized, got %v", rpcErr)
	}
}

func TestGetAccountInfoEncodings(t *testing.T) {
	db, _, token := seededDB(t)
	h := NewHandlers(db)

	for _, encoding := range []string{EncodingBase58, EncodingBase64, EncodingBase64Zstd} {
		result, rpcErr := callHandler(t, h, "getAccountInfo",
			`["`+token.String()+`", {"encoding": "`+encoding+`"}]`)
		if rpcErr != nil {
			t.Fatalf("getAccountInfo %s failed: %v", encoding, rpcErr)
		}
		info := result.(AccountInfoResult)
		if info.Space != ledger.TokenAccountSize {
			t.Errorf("space = %d, want %d", info.Space, ledger.TokenAccountSize)
		}

		decoded, err := DecodeAccountData(info.Data[0].(string), info.Data[1].(string))
		if err != nil {
			t.Fatalf("DecodeAccountData %s failed: %v", encoding, err)
		}
		if len(decoded) != ledger.TokenAccountSize {
			t.Errorf("decoded %d bytes, want %d", len(decoded), ledger.TokenAccountSize)
		}
	}
}

func TestGetAccountInfoMissingIsNull(t *testing.T) {
	db, _, _ := seededDB(t)
	h := NewHandlers(db)

	result, rpcErr := callHandler(t, h, "getAccountInfo", `["`+testPubkey("nobody").String()+`"]`)
	if rpcErr != nil {
		t.Fatalf("getAccountInfo failed: %v", rpcErr)
	}
	if result != nil {
		t.Errorf("missing account should yield null result, got %v", result)
	}
}

func TestFindTokenAccountAddress(t *testing.T) {
	db, _, _ := seededDB(t)
	h := NewHandlers(db)

	owner := testPubkey("alice")
	result, rpcErr := callHandler(t, h, "findTokenAccountAddress", `["`+owner.String()+`", 0]`)
	if rpcErr != nil {
		t.Fatalf("findTokenAccountAddress failed: %v", rpcErr)
	}
	r := result.(TokenAddressResult)
	want, bump := ledger.FindTokenAccountAddress(owner, 0)
	if r.Address != want.String() || r.Bump != bump {
		t.Errorf("address/bump = %s/%d, want %s/%d", r.Address, r.Bump, want, bump)
	}
}

func TestServerProcessRequest(t *testing.T) {
	db, _, token := seededDB(t)
	s := NewServer(":0", db)

	resp := s.processRequest([]byte(`{"jsonrpc":"2.0","method":"getBalance","params":["` + token.String() + `"],"id":1}`))
	if resp.Error != nil {
		t.Fatalf("getBalance failed: %v", resp.Error)
	}
	if resp.Result.(uint64) != 777 {
		t.Errorf("balance = %v, want 777", resp.Result)
	}

	resp = s.processRequest([]byte(`{"jsonrpc":"2.0","method":"noSuchMethod","id":2}`))
	if resp.Error == nil || resp.Error.Code != MethodNotFound {
		t.Errorf("expected MethodNotFound, got %v", resp.Error)
	}

	resp = s.processRequest([]byte(`{"jsonrpc":"1.0","method":"getHealth","id":3}`))
	if resp.Error == nil || resp.Error.Code != InvalidRequest {
		t.Errorf("expected InvalidRequest for wrong version, got %v", resp.Error)
	}

	resp = s.processRequest([]byte(`{not json`))
	if resp.Error == nil || resp.Error.Code != ParseError {
		t.Errorf("expected ParseError, got %v", resp.Error)
	}
}

func TestServerHTTPBatch(t *testing.T) {
	db, mint, _ := seededDB(t)
	s := NewServer(":0", db)

	body := `[{"jsonrpc":"2.0","method":"getHealth","id":1},` +
		`{"jsonrpc":"2.0","method":"getTokenSupply","params":["` + mint.String() + `"],"id":2}]`
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	s.handleRequest(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var responses []RPCResponse
	if err := json.NewDecoder(rec.Body).Decode(&responses); err != nil {
		t.Fatalf("decode batch response failed: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(responses))
	}
	for _, r := range responses {
		if r.Error != nil {
			t.Errorf("batch entry %v failed: %v", r.ID, r.Error)
		}
	}
}

func TestServerRejectsGet(t *testing.T) {
	db, _, _ := seededDB(t)
	s := NewServer(":0", db)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.handleRequest(rec, req)

	var resp RPCResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != InvalidRequest {
		t.Errorf("expected InvalidRequest for GET, got %v", resp.Error)
	}
}
