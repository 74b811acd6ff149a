package address_lookup_table

import (
	"crypto/ed25519"

	"github.com/ridgeline-labs/solana-alt/pkg/solana"
	"github.com/ridgeline-labs/solana-alt/pkg/solana/binary"
	"github.com/ridgeline-labs/solana-alt/pkg/solana/system"
)

// Reference: https://github.com/solana-program/address-lookup-table/blob/main/program/src/instruction.rs

// AddressLookupTab1e1111111111111111111111111
var ProgramKey = ed25519.PublicKey{2, 119, 166, 175, 151, 51, 155, 122, 200, 141, 24, 146, 201, 4, 70, 245, 0, 2, 48, 146, 102, 246, 46, 83, 193, 24, 36, 73, 130, 0, 0, 0}

// DiscriminatorLength is the width of the command tag written as the first
// bytes of every instruction payload.
const DiscriminatorLength = 4

const (
	commandCreateLookupTable uint32 = iota
	commandFreezeLookupTable
	commandExtendLookupTable
	commandDeactivateLookupTable
	commandCloseLookupTable
)

// Create builds the instruction initializing a new lookup table account.
// The table address must be derived from the authority and recentSlot (see
// DeriveTableAddress); bumpSeed is the bump produced by that derivation.
//
// # Account references
//   - 0. [WRITE] Uninitialized lookup table account
//   - 1. [SIGNER] Account used to derive and control the table
//   - 2. [WRITE, SIGNER] Account funding the table's rent-exempt balance
//   - 3. [] System program for CPI
func Create(table, authority, funder ed25519.PublicKey, recentSlot uint64, bumpSeed uint8) solana.Instruction {
	data := make([]byte, DiscriminatorLength+8+1)

	var offset int
	binary.PutUint32(data[offset:], commandCreateLookupTable, &offset)
	binary.PutUint64(data[offset:], recentSlot, &offset)
	binary.PutUint8(data[offset:], bumpSeed, &offset)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(table, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(funder, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)
}

// Freeze builds the instruction permanently freezing a lookup table,
// making it immutable.
//
// # Account references
//   - 0. [WRITE] Lookup table account to freeze
//   - 1. [SIGNER] Current authority
func Freeze(table, authority ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		commandData(commandFreezeLookupTable),
		solana.NewAccountMeta(table, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

// Extend builds the instruction appending addresses to a lookup table,
// without a funding account. Use ExtendWithFunder when the table needs
// additional lamports to cover the rent-exempt balance after growing.
//
// # Account references
//   - 0. [WRITE] Lookup table account to extend
//   - 1. [SIGNER] Current authority
func Extend(table, authority ed25519.PublicKey, addresses ...ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		extendData(addresses),
		solana.NewAccountMeta(table, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

// ExtendWithFunder builds the instruction appending addresses to a lookup
// table, with a funding account covering any additional rent-exempt
// balance. The funder and system program references always travel together.
//
// # Account references
//   - 0. [WRITE] Lookup table account to extend
//   - 1. [SIGNER] Current authority
//   - 2. [WRITE, SIGNER] Account funding the table reallocation
//   - 3. [] System program for CPI
func ExtendWithFunder(table, authority, funder ed25519.PublicKey, addresses ...ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		extendData(addresses),
		solana.NewAccountMeta(table, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(funder, true),
		solana.NewReadonlyAccountMeta(system.ProgramKey[:], false),
	)
}

// Deactivate builds the instruction deactivating a lookup table, making
// it unusable and eligible for closure after a cool-down period.
//
// # Account references
//   - 0. [WRITE] Lookup table account to deactivate
//   - 1. [SIGNER] Current authority
func Deactivate(table, authority ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		commandData(commandDeactivateLookupTable),
		solana.NewAccountMeta(table, false),
		solana.NewReadonlyAccountMeta(authority, true),
	)
}

// Close builds the instruction closing a deactivated lookup table account
// and reclaiming its lamports.
//
// # Account references
//   - 0. [WRITE] Lookup table account to close
//   - 1. [SIGNER] Current authority
//   - 2. [WRITE] Recipient of the closed account's lamports
func Close(table, authority, recipient ed25519.PublicKey) solana.Instruction {
	return solana.NewInstruction(
		ProgramKey,
		commandData(commandCloseLookupTable),
		solana.NewAccountMeta(table, false),
		solana.NewReadonlyAccountMeta(authority, true),
		solana.NewAccountMeta(recipient, false),
	)
}

func commandData(command uint32) []byte {
	data := make([]byte, DiscriminatorLength)

	var offset int
	binary.PutUint32(data, command, &offset)

	return data
}

func extendData(addresses []ed25519.PublicKey) []byte {
	data := make([]byte, DiscriminatorLength+8+len(addresses)*ed25519.PublicKeySize)

	var offset int
	binary.PutUint32(data[offset:], commandExtendLookupTable, &offset)
	binary.PutUint64(data[offset:], uint64(len(addresses)), &offset)
	for _, address := range addresses {
		binary.PutKey32(data[offset:], address, &offset)
	}

	return data
}
