package ledger

import (
	"errors"
	"testing"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

func testIdentity(seed byte) types.Pubkey {
	var pk types.Pubkey
	for i := range pk {
		pk[i] = seed
	}
	return pk
}

func TestRecordSizes(t *testing.T) {
	if ConfigSize != 16 {
		t.Errorf("ConfigSize = %d, want 16", ConfigSize)
	}
	if MintSize != 64 {
		t.Errorf("MintSize = %d, want 64", MintSize)
	}
	if TokenAccountSize != 56 {
		t.Errorf("TokenAccountSize = %d, want 56", TokenAccountSize)
	}
}

func TestConfigInitAndLoad(t *testing.T) {
	buf := make([]byte, ConfigSize)

	v, err := InitConfig(buf)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if v.MintIndex() != 0 {
		t.Errorf("fresh config mint index = %d, want 0", v.MintIndex())
	}
	if buf[0] != DiscriminantConfig {
		t.Errorf("discriminant byte = %d, want %d", buf[0], DiscriminantConfig)
	}

	v.SetMintIndex(7)
	loaded, err := LoadConfig(buf)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.MintIndex() != 7 {
		t.Errorf("reloaded mint index = %d, want 7", loaded.MintIndex())
	}
}

func TestConfigDoubleInit(t *testing.T) {
	buf := make([]byte, ConfigSize)
	if _, err := InitConfig(buf); err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if _, err := InitConfig(buf); !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestConfigLayoutMismatch(t *testing.T) {
	if _, err := InitConfig(make([]byte, ConfigSize-1)); !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch, got %v", err)
	}
	if _, err := LoadConfig(make([]byte, ConfigSize+1)); !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch, got %v", err)
	}
}

func TestLoadWrongDiscriminant(t *testing.T) {
	buf := make([]byte, MintSize)
	if _, err := InitMint(buf, 0, testIdentity(1), 6); err != nil {
		t.Fatalf("InitMint failed: %v", err)
	}

	// A mint record viewed as a config record must be rejected even when
	// sizes are tampered to match.
	if _, err := LoadConfig(buf[:ConfigSize]); !errors.Is(err, ErrDiscriminantMismatch) {
		t.Errorf("expected ErrDiscriminantMismatch, got %v", err)
	}
}

func TestMintInitAndLoad(t *testing.T) {
	buf := make([]byte, MintSize)
	authority := testIdentity(9)

	v, err := InitMint(buf, 3, authority, 12)
	if err != nil {
		t.Fatalf("InitMint failed: %v", err)
	}
	if v.MintIndex() != 3 {
		t.Errorf("mint index = %d, want 3", v.MintIndex())
	}
	if v.Authority() != authority {
		t.Error("authority round trip failed")
	}
	if v.Supply() != 0 {
		t.Errorf("fresh supply = %d, want 0", v.Supply())
	}
	if v.Decimals() != 12 {
		t.Errorf("decimals = %d, want 12", v.Decimals())
	}

	v.SetSupply(1_000_000)
	loaded, err := LoadMint(buf)
	if err != nil {
		t.Fatalf("LoadMint failed: %v", err)
	}
	if loaded.Supply() != 1_000_000 {
		t.Errorf("reloaded supply = %d, want 1000000", loaded.Supply())
	}
}

func TestMintDecimalsLimit(t *testing.T) {
	buf := make([]byte, MintSize)
	if _, err := InitMint(buf, 0, testIdentity(1), MaxDecimals+1); !errors.Is(err, ErrInvalidDecimals) {
		t.Errorf("expected ErrInvalidDecimals, got %v", err)
	}
	// The failed init must not mark the buffer initialized.
	if buf[0] != DiscriminantUninitialized {
		t.Error("failed init should leave the buffer uninitialized")
	}
}

func TestTokenAccountInitAndLoad(t *testing.T) {
	buf := make([]byte, TokenAccountSize)
	owner := testIdentity(5)

	v, err := InitTokenAccount(buf, owner, 2)
	if err != nil {
		t.Fatalf("InitTokenAccount failed: %v", err)
	}
	if v.Owner() != owner {
		t.Error("owner round trip failed")
	}
	if v.MintIndex() != 2 {
		t.Errorf("mint index = %d, want 2", v.MintIndex())
	}
	if v.Balance() != 0 {
		t.Errorf("fresh balance = %d, want 0", v.Balance())
	}

	v.SetBalance(42)
	loaded, err := LoadTokenAccount(buf)
	if err != nil {
		t.Fatalf("LoadTokenAccount failed: %v", err)
	}
	if loaded.Balance() != 42 {
		t.Errorf("reloaded balance = %d, want 42", loaded.Balance())
	}
}

func TestViewsAliasBuffer(t *testing.T) {
	buf := make([]byte, TokenAccountSize)
	v, err := InitTokenAccount(buf, testIdentity(1), 0)
	if err != nil {
		t.Fatalf("InitTokenAccount failed: %v", err)
	}

	v.SetBalance(99)
	// The view writes straight into the caller's buffer.
	other, _ := LoadTokenAccount(buf)
	if other.Balance() != 99 {
		t.Error("view mutation not visible through the shared buffer")
	}
}

func TestTokenkegAccountView(t *testing.T) {
	buf := make([]byte, TokenkegAccountSize)
	mint := testIdentity(3)
	owner := testIdentity(4)
	copy(buf[0:32], mint[:])
	copy(buf[32:64], owner[:])
	buf[108] = TokenkegStateInitialized

	v, err := LoadTokenkegAccount(buf)
	if err != nil {
		t.Fatalf("LoadTokenkegAccount failed: %v", err)
	}
	if !v.Initialized() {
		t.Error("account should report initialized")
	}
	v.SetAmount(777)
	if v.Amount() != 777 {
		t.Errorf("amount = %d, want 777", v.Amount())
	}

	if _, err := LoadTokenkegAccount(make([]byte, TokenkegAccountSize-1)); !errors.Is(err, ErrLayoutMismatch) {
		t.Errorf("expected ErrLayoutMismatch, got %v", err)
	}
}

func TestValidTokenkegMint(t *testing.T) {
	buf := make([]byte, TokenkegMintSize)
	buf[45] = 1 // is_initialized
	if !ValidTokenkegMint(buf) {
		t.Error("initialized external mint should validate")
	}

	buf[45] = 0
	if ValidTokenkegMint(buf) {
		t.Error("uninitialized external mint should not validate")
	}

	buf[45] = 1
	buf[0] = 2 // invalid optional tag
	if ValidTokenkegMint(buf) {
		t.Error("invalid authority tag should not validate")
	}

	if ValidTokenkegMint(make([]byte, TokenkegMintSize-1)) {
		t.Error("wrong size should not validate")
	}
}
