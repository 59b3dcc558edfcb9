package ledger

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/cavemanloverboy/nanotoken/pkg/types"
)

// derivedAddressMarker terminates the hash input for derived addresses,
// separating them from ordinary key material.
const derivedAddressMarker = "ProgramDerivedAddress"

// DeriveTokenAccountAddress computes the canonical address for the token
// account of (owner, mint) with the given bump. Clients and the host use
// it to name account storage; the address gives each (owner, mint) pair
// a single well-known account.
func DeriveTokenAccountAddress(owner types.Pubkey, mint uint64, bump uint8) types.Pubkey {
	var mintLE [8]byte
	binary.LittleEndian.PutUint64(mintLE[:], mint)

	h := sha256.New()
	h.Write(owner[:])
	h.Write(mintLE[:])
	h.Write([]byte{bump})
	h.Write(types.NanotokenProgramID[:])
	h.Write([]byte(derivedAddressMarker))

	var pk types.Pubkey
	copy(pk[:], h.Sum(nil))
	return pk
}

// FindTokenAccountAddress returns the canonical address and bump for
// (owner, mint), scanning bumps from the top down.
func FindTokenAccountAddress(owner types.Pubkey, mint uint64) (types.Pubkey, uint8) {
	bump := uint8(255)
	return DeriveTokenAccountAddress(owner, mint, bump), bump
}

// vaultSeed prefixes vault authority derivations.
const vaultSeed = "info"

// DeriveVaultAuthority computes the authority identity that binds a
// native mint to the external mint it bridges. InitializeVault creates
// the native mint with this authority; transmute accepts only a mint
// whose authority matches the supplied external mint's derivation.
func DeriveVaultAuthority(externalMint types.Pubkey, bump uint8) types.Pubkey {
	h := sha256.New()
	h.Write([]byte(vaultSeed))
	h.Write(externalMint[:])
	h.Write([]byte{bump})
	h.Write(types.NanotokenProgramID[:])
	h.Write([]byte(derivedAddressMarker))

	var pk types.Pubkey
	copy(pk[:], h.Sum(nil))
	return pk
}

// FindVaultAuthority returns the canonical vault authority and bump for
// an external mint.
func FindVaultAuthority(externalMint types.Pubkey) (types.Pubkey, uint8) {
	bump := uint8(255)
	return DeriveVaultAuthority(externalMint, bump), bump
}
