package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

type MessageVersion uint8

const (
	MessageVersionLegacy MessageVersion = iota
	MessageVersion0
)

func (v MessageVersion) String() string {
	switch v {
	case MessageVersionLegacy:
		return "legacy"
	case MessageVersion0:
		return "v0"
	}
	return "unknown"
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// MessageAddressTableLookup references a set of accounts that are loaded
// dynamically from an on-chain address lookup table instead of being
// listed statically in the message.
type MessageAddressTableLookup struct {
	PublicKey       ed25519.PublicKey
	WritableIndexes []byte
	ReadonlyIndexes []byte
}

type Message struct {
	Version             MessageVersion
	Header              Header
	Accounts            []ed25519.PublicKey
	RecentBlockhash     Blockhash
	Instructions        []CompiledInstruction
	AddressTableLookups []MessageAddressTableLookup
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewLegacyTransaction assembles an unsigned legacy transaction from the
// provided instructions, with payer as the fee payer.
func NewLegacyTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	return newTransaction(payer, nil, instructions)
}

// NewV0Transaction assembles an unsigned transaction, resolving accounts
// against the provided address lookup tables. The message version is v0
// only if at least one account was resolved dynamically.
func NewV0Transaction(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	return newTransaction(payer, addressLookupTables, instructions)
}

func newTransaction(payer ed25519.PublicKey, addressLookupTables []AddressLookupTable, instructions []Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}

	// Extract all of the unique accounts from the instructions.
	for _, i := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: i.Program,
			isProgram: true,
		})
		accounts = append(accounts, i.Accounts...)
	}

	// Sort the account metas based on:
	//   1. Payer is always the first account / signer.
	//   2. All signers are before non-signers.
	//   3. Writable accounts before read-only accounts.
	//   4. Programs last.
	accounts = filterUnique(accounts)
	sort.Sort(SortableAccountMeta(accounts))

	// Sort address tables to guarantee consistent marshalling.
	sortedTables := make([]AddressLookupTable, len(addressLookupTables))
	copy(sortedTables, addressLookupTables)
	sort.Sort(SortableAddressLookupTables(sortedTables))

	writableTableIndexes := make([][]byte, len(sortedTables))
	readonlyTableIndexes := make([][]byte, len(sortedTables))

	var m Message
	for _, account := range accounts {
		// If the account is eligible for dynamic loading, pull its index
		// from the first address table where it's defined.
		tableIndex, addressIndex := findTableEntry(sortedTables, account)
		if tableIndex >= 0 {
			if account.IsWritable {
				writableTableIndexes[tableIndex] = append(writableTableIndexes[tableIndex], byte(addressIndex))
			} else {
				readonlyTableIndexes[tableIndex] = append(readonlyTableIndexes[tableIndex], byte(addressIndex))
			}
			continue
		}

		// Otherwise, the account is defined statically.
		m.Accounts = append(m.Accounts, account.PublicKey)

		if account.IsSigner {
			m.Header.NumSignatures++

			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.IsWritable {
			m.Header.NumReadOnly++
		}
	}

	// Consolidate static and dynamically loaded accounts into a single
	// ordered list, which backs the index references encoded into the
	// compiled instructions.
	allAccounts := make([]ed25519.PublicKey, 0, len(accounts))
	allAccounts = append(allAccounts, m.Accounts...)
	for i, indexes := range writableTableIndexes {
		for _, index := range indexes {
			allAccounts = append(allAccounts, sortedTables[i].Addresses[index])
		}
	}
	for i, indexes := range readonlyTableIndexes {
		for _, index := range indexes {
			allAccounts = append(allAccounts, sortedTables[i].Addresses[index])
		}
	}

	// Compile the instructions, which use indices instead of raw account
	// keys.
	for _, i := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(allAccounts, i.Program)),
			Data:         i.Data,
		}

		for _, a := range i.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(allAccounts, a.PublicKey)))
		}

		m.Instructions = append(m.Instructions, c)
	}

	// Compile the message address table lookups.
	for i, table := range sortedTables {
		if len(writableTableIndexes[i]) == 0 && len(readonlyTableIndexes[i]) == 0 {
			continue
		}

		m.AddressTableLookups = append(m.AddressTableLookups, MessageAddressTableLookup{
			PublicKey:       table.PublicKey,
			WritableIndexes: writableTableIndexes[i],
			ReadonlyIndexes: readonlyTableIndexes[i],
		})
	}
	if len(m.AddressTableLookups) > 0 {
		m.Version = MessageVersion0
	}

	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Version: %s\n", t.Message.Version.String()))
	sb.WriteString("  Header:\n")
	sb.WriteString(fmt.Sprintf("    NumSignatures: %d\n", t.Message.Header.NumSignatures))
	sb.WriteString(fmt.Sprintf("    NumReadOnly: %d\n", t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("    NumReadOnlySigned: %d\n", t.Message.Header.NumReadonlySigned))
	sb.WriteString("  Static Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d:\n", i))
		sb.WriteString(fmt.Sprintf("      ProgramIndex: %d\n", t.Message.Instructions[i].ProgramIndex))
		sb.WriteString(fmt.Sprintf("      Accounts: %v\n", t.Message.Instructions[i].Accounts))
		sb.WriteString(fmt.Sprintf("      Data: %v\n", t.Message.Instructions[i].Data))
	}
	if len(t.Message.AddressTableLookups) > 0 {
		sb.WriteString("  Address Table Lookups:\n")
		for i := range t.Message.AddressTableLookups {
			sb.WriteString(fmt.Sprintf("    %s:\n", base58.Encode(t.Message.AddressTableLookups[i].PublicKey)))
			sb.WriteString(fmt.Sprintf("      Writable Indexes: %v\n", t.Message.AddressTableLookups[i].WritableIndexes))
			sb.WriteString(fmt.Sprintf("      Readonly Indexes: %v\n", t.Message.AddressTableLookups[i].ReadonlyIndexes))
		}
	}
	return sb.String()
}

// findTableEntry returns the position of the first table entry matching
// the account, or (-1, -1) if the account must be listed statically.
// Payers, signers and programs are never loaded dynamically.
func findTableEntry(tables []AddressLookupTable, account AccountMeta) (tableIndex, addressIndex int) {
	if account.isPayer || account.IsSigner || account.isProgram {
		return -1, -1
	}

	for i, table := range tables {
		for j, address := range table.Addresses {
			if bytes.Equal(address, account.PublicKey) {
				return i, j
			}
		}
	}

	return -1, -1
}

func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for i := range accounts {
		for j := range filtered {
			// If we've already seen the account before, check whether any
			// of its permissions should be promoted.
			if bytes.Equal(accounts[i].PublicKey, filtered[j].PublicKey) {
				if accounts[i].IsSigner {
					filtered[j].IsSigner = true
				}
				if accounts[i].IsWritable {
					filtered[j].IsWritable = true
				}
				if accounts[i].isPayer {
					filtered[j].isPayer = true
				}

				goto next
			}
		}

		filtered = append(filtered, accounts[i])
	next:
	}

	return filtered
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}
