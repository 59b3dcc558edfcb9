package snapshot

import (
	"archive/tar"
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/cavemanloverboy/nanotoken/pkg/accounts"
	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// Accounts entry format, repeated per account:
// - pubkey:     32 bytes
// - record_len: 4 bytes (little-endian uint32)
// - record:     record_len bytes (accounts serialization format)

// Save writes the full account state of db to a tar.zst archive at path.
// The manifest commits to the accounts hash so Load can verify what it
// restored.
func Save(db accounts.DB, path string) (*Manifest, error) {
	var refs []types.AccountRef
	err := db.ForEach(func(pubkey types.Pubkey, account *types.Account) (bool, error) {
		refs = append(refs, types.AccountRef{Pubkey: pubkey, Account: account})
		return true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk accounts: %w", err)
	}

	// Deterministic archives: records are ordered by pubkey.
	sort.Slice(refs, func(i, j int) bool {
		return bytes.Compare(refs[i].Pubkey[:], refs[j].Pubkey[:]) < 0
	})

	var body bytes.Buffer
	for _, ref := range refs {
		record, err := accounts.SerializeAccount(ref.Account)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize account %s: %w", ref.Pubkey, err)
		}
		body.Write(ref.Pubkey[:])
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(record)))
		body.Write(lenBuf[:])
		body.Write(record)
	}

	manifest := &Manifest{
		Version:       ManifestVersion,
		AccountsCount: uint64(len(refs)),
		AccountsHash:  accounts.ComputeDeltaHash(refs),
	}
	manifestData, err := json.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	defer file.Close()

	encoder, err := zstd.NewWriter(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	tw := tar.NewWriter(encoder)
	if err := writeTarEntry(tw, manifestEntryName, manifestData); err != nil {
		return nil, err
	}
	if err := writeTarEntry(tw, accountsEntryName, body.Bytes()); err != nil {
		return nil, err
	}

	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish tar: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish zstd stream: %w", err)
	}

	return manifest, nil
}
