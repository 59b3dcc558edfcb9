package snapshot

import (
	"archive/tar"
	"bytes"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	var pk types.Pubkey
	copy(pk[:], hash[:])
	return pk
}

func populatedDB(t *testing.T, n int) *accounts.MemoryDB {
	t.Helper()
	db := accounts.NewMemoryDB()
	for i := 0; i < n; i++ {
		pubkey := testPubkey("account" + string(rune('a'+i)))
		account := &types.Account{
			Data:  []byte{byte(i), byte(i + 1), byte(i + 2)},
			Owner: types.NanotokenProgramID,
		}
		if err := db.SetAccount(pubkey, account); err != nil {
			t.Fatalf("SetAccount failed: %v", err)
		}
	}
	return db
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := populatedDB(t, 10)
	path := filepath.Join(t.TempDir(), "state.tar.zst")

	manifest, err := Save(db, path)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if manifest.AccountsCount != 10 {
		t.Errorf("manifest count = %d, want 10", manifest.AccountsCount)
	}
	if manifest.AccountsHash == types.ZeroHash {
		t.Error("manifest should carry a non-zero accounts hash")
	}

	restoredDB := accounts.NewMemoryDB()
	restored, err := Load(restoredDB, path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restored.AccountsHash != manifest.AccountsHash {
		t.Error("restored manifest hash differs from saved")
	}
	if restoredDB.AccountsCount() != 10 {
		t.Errorf("restored %d accounts, want 10", restoredDB.AccountsCount())
	}

	// Every account must round trip byte for byte.
	err = db.ForEach(func(pubkey types.Pubkey, account *types.Account) (bool, error) {
		got, err := restoredDB.GetAccount(pubkey)
		if err != nil || got == nil {
			t.Fatalf("account %s missing after restore", pubkey)
		}
		if !bytes.Equal(got.Data, account.Data) || got.Owner != account.Owner {
			t.Errorf("account %s did not round trip", pubkey)
		}
		return true, nil
	})
	if err != nil {
		t.Fatalf("ForEach failed: %v", err)
	}
}

func TestSaveEmptyDB(t *testing.T) {
	db := accounts.NewMemoryDB()
	path := filepath.Join(t.TempDir(), "empty.tar.zst")

	manifest, err := Save(db, path)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if manifest.AccountsCount != 0 {
		t.Errorf("manifest count = %d, want 0", manifest.AccountsCount)
	}

	restoredDB := accounts.NewMemoryDB()
	if _, err := Load(restoredDB, path); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if restoredDB.AccountsCount() != 0 {
		t.Errorf("restored %d accounts, want 0", restoredDB.AccountsCount())
	}
}

func TestSaveIsDeterministic(t *testing.T) {
	db := populatedDB(t, 20)
	dir := t.TempDir()
	path1 := filepath.Join(dir, "a.tar.zst")
	path2 := filepath.Join(dir, "b.tar.zst")

	m1, err := Save(db, path1)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	m2, err := Save(db, path2)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if m1.AccountsHash != m2.AccountsHash {
		t.Error("same state should produce the same accounts hash")
	}
}

func TestLoadMissingArchive(t *testing.T) {
	db := accounts.NewMemoryDB()
	if _, err := Load(db, filepath.Join(t.TempDir(), "missing.tar.zst")); err == nil {
		t.Error("expected error for missing archive")
	}
}

func TestManifestJSONRoundTrip(t *testing.T) {
	m := &Manifest{
		Version:       ManifestVersion,
		AccountsCount: 3,
		AccountsHash:  types.SHA256([]byte("state")),
	}

	data, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	var restored Manifest
	if err := restored.UnmarshalJSON(data); err != nil {
		t.Fatalf("UnmarshalJSON failed: %v", err)
	}
	if restored.AccountsHash != m.AccountsHash {
		t.Error("accounts hash did not round trip")
	}
	if restored.AccountsCount != 3 || restored.Version != ManifestVersion {
		t.Error("manifest fields did not round trip")
	}
}

// writeArchive writes a raw archive with the given manifest and no
// account records.
func writeArchive(t *testing.T, path string, manifest *Manifest) {
	t.Helper()
	data, err := manifest.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}

	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	defer file.Close()

	encoder, err := zstd.NewWriter(file)
	if err != nil {
		t.Fatalf("zstd.NewWriter failed: %v", err)
	}
	tw := tar.NewWriter(encoder)
	if err := writeTarEntry(tw, manifestEntryName, data); err != nil {
		t.Fatalf("writeTarEntry failed: %v", err)
	}
	if err := writeTarEntry(tw, accountsEntryName, nil); err != nil {
		t.Fatalf("writeTarEntry failed: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close failed: %v", err)
	}
	if err := encoder.Close(); err != nil {
		t.Fatalf("zstd close failed: %v", err)
	}
}

func TestLoadRejectsUnsupportedVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tar.zst")
	writeArchive(t, path, &Manifest{Version: 99})

	_, err := Load(accounts.NewMemoryDB(), path)
	if !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("expected ErrInvalidManifest, got %v", err)
	}
}

func TestLoadRejectsHashMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tampered.tar.zst")
	writeArchive(t, path, &Manifest{
		Version:      ManifestVersion,
		AccountsHash: types.SHA256([]byte("not the real state")),
	})

	_, err := Load(accounts.NewMemoryDB(), path)
	if !errors.Is(err, ErrHashMismatch) {
		t.Errorf("expected ErrHashMismatch, got %v", err)
	}
}
