package snapshot

import (
	"archive/tar"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Load restores the account state from the archive at path into db and
// verifies it against the manifest's accounts hash. Existing accounts
// with the same pubkeys are overwritten.
func Load(db accounts.DB, path string) (*Manifest, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	decoder, err := zstd.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	tr := tar.NewReader(decoder)

	var manifest *Manifest
	var refs []types.AccountRef
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar header: %w", err)
		}

		switch header.Name {
		case manifestEntryName:
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("failed to read manifest: %w", err)
			}
			manifest = &Manifest{}
			if err := json.Unmarshal(data, manifest); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
			}
		case accountsEntryName:
			data, err := io.ReadAll(tr)
			if err != nil {
				return nil, fmt.Errorf("failed to read accounts: %w", err)
			}
			refs, err = parseAccounts(data)
			if err != nil {
				return nil, err
			}
		}
	}

	if manifest == nil {
		return nil, fmt.Errorf("%w: manifest not found", ErrInvalidArchive)
	}
	if manifest.Version != ManifestVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidManifest, manifest.Version)
	}
	if uint64(len(refs)) != manifest.AccountsCount {
		return nil, fmt.Errorf("%w: manifest lists %d accounts, archive holds %d",
			ErrInvalidArchive, manifest.AccountsCount, len(refs))
	}
	if hash := accounts.ComputeDeltaHash(refs); hash != manifest.AccountsHash {
		return nil, fmt.Errorf("%w: accounts hash %s, manifest %s",
			ErrHashMismatch, hash, manifest.AccountsHash)
	}

	for _, ref := range refs {
		if err := db.SetAccount(ref.Pubkey, ref.Account); err != nil {
			return nil, fmt.Errorf("failed to store account %s: %w", ref.Pubkey, err)
		}
	}

	return manifest, nil
}

func parseAccounts(data []byte) ([]types.AccountRef, error) {
	var refs []types.AccountRef
	for len(data) > 0 {
		if len(data) < 36 {
			return nil, fmt.Errorf("%w: truncated account record", ErrInvalidArchive)
		}

		var pubkey types.Pubkey
		copy(pubkey[:], data[:32])

		recordLen := binary.LittleEndian.Uint32(data[32:36])
		data = data[36:]
		if uint32(len(data)) < recordLen {
			return nil, fmt.Errorf("%w: truncated account record for %s", ErrInvalidArchive, pubkey)
		}

		account, err := accounts.DeserializeAccount(data[:recordLen])
		if err != nil {
			return nil, fmt.Errorf("%w: account %s: %v", ErrInvalidArchive, pubkey, err)
		}
		data = data[recordLen:]

		refs = append(refs, types.AccountRef{Pubkey: pubkey, Account: account})
	}
	return refs, nil
}
