// Package snapshot saves and restores account state as tar.zst archives.
// A snapshot lets a host start from a known state instead of replaying
// every invocation.
package snapshot

import (
	"archive/tar"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

var (
	// ErrInvalidManifest is returned when the manifest is malformed.
	ErrInvalidManifest = errors.New("invalid manifest")
	// ErrInvalidArchive is returned when the archive is malformed.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrHashMismatch is returned when the restored accounts do not match
	// the manifest's accounts hash.
	ErrHashMismatch = errors.New("hash mismatch")
)

// Archive entry names.
const (
	manifestEntryName = "manifest"
	accountsEntryName = "accounts"
)

// ManifestVersion is the current manifest format version.
const ManifestVersion = 1

// Manifest contains metadata about a snapshot.
type Manifest struct {
	Version       uint32     `json:"version"`
	AccountsCount uint64     `json:"accounts_count"`
	AccountsHash  types.Hash `json:"accounts_hash"`
}

// MarshalJSON renders the accounts hash in base58.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	type Alias Manifest
	return json.Marshal(&struct {
		AccountsHash string `json:"accounts_hash"`
		*Alias
	}{
		AccountsHash: m.AccountsHash.String(),
		Alias:        (*Alias)(m),
	})
}

// UnmarshalJSON parses the base58 accounts hash.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	type Alias Manifest
	aux := &struct {
		AccountsHash string `json:"accounts_hash"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}
	if aux.AccountsHash != "" {
		hash, err := types.HashFromBase58(aux.AccountsHash)
		if err != nil {
			return fmt.Errorf("%w: accounts hash: %v", ErrInvalidManifest, err)
		}
		m.AccountsHash = hash
	}
	return nil
}

func writeTarEntry(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
