package address_lookup_table

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/ridgeline-labs/solana-alt/pkg/solana"
)

// DeriveTableAddress derives the address of the lookup table account
// controlled by authority and initialized at recentSlot, along with the
// bump seed to pass to Create. The derivation is deterministic: identical
// inputs always produce the identical address and bump.
func DeriveTableAddress(authority ed25519.PublicKey, recentSlot uint64) (ed25519.PublicKey, uint8, error) {
	var recentSlotBytes [8]byte
	binary.LittleEndian.PutUint64(recentSlotBytes[:], recentSlot)

	return solana.FindProgramAddressAndBump(
		ProgramKey,
		authority,
		recentSlotBytes[:],
	)
}
