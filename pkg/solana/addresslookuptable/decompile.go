package address_lookup_table

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/ridgeline-labs/solana-alt/pkg/solana"
	"github.com/ridgeline-labs/solana-alt/pkg/solana/binary"
	"github.com/ridgeline-labs/solana-alt/pkg/solana/system"
)

type DecompiledCreate struct {
	Table     ed25519.PublicKey
	Authority ed25519.PublicKey
	Funder    ed25519.PublicKey

	RecentSlot uint64
	BumpSeed   uint8
}

func DecompileCreate(m solana.Message, index int) (*DecompiledCreate, error) {
	i, err := getCommandInstruction(m, index, commandCreateLookupTable)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != DiscriminatorLength+8+1 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}
	if !bytes.Equal(m.Accounts[i.Accounts[3]], system.ProgramKey[:]) {
		return nil, errors.New("invalid system program account")
	}

	v := &DecompiledCreate{
		Table:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[1]],
		Funder:    m.Accounts[i.Accounts[2]],
	}

	offset := DiscriminatorLength
	binary.GetUint64(i.Data[offset:], &v.RecentSlot, &offset)
	binary.GetUint8(i.Data[offset:], &v.BumpSeed, &offset)

	return v, nil
}

type DecompiledFreeze struct {
	Table     ed25519.PublicKey
	Authority ed25519.PublicKey
}

func DecompileFreeze(m solana.Message, index int) (*DecompiledFreeze, error) {
	i, err := getCommandInstruction(m, index, commandFreezeLookupTable)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != DiscriminatorLength {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledFreeze{
		Table:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[1]],
	}, nil
}

type DecompiledExtend struct {
	Table     ed25519.PublicKey
	Authority ed25519.PublicKey

	// Funder is nil when the instruction carries no funding account pair.
	Funder ed25519.PublicKey

	Addresses []ed25519.PublicKey
}

func DecompileExtend(m solana.Message, index int) (*DecompiledExtend, error) {
	i, err := getCommandInstruction(m, index, commandExtendLookupTable)
	if err != nil {
		return nil, err
	}

	// The funding account and system program references are optional, but
	// always travel together.
	if len(i.Accounts) != 2 && len(i.Accounts) != 4 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) < DiscriminatorLength+8 {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	v := &DecompiledExtend{
		Table:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[1]],
	}
	if len(i.Accounts) == 4 {
		if !bytes.Equal(m.Accounts[i.Accounts[3]], system.ProgramKey[:]) {
			return nil, errors.New("invalid system program account")
		}
		v.Funder = m.Accounts[i.Accounts[2]]
	}

	offset := DiscriminatorLength

	var count uint64
	binary.GetUint64(i.Data[offset:], &count, &offset)
	if len(i.Data) != DiscriminatorLength+8+int(count)*ed25519.PublicKeySize {
		return nil, errors.Errorf("invalid instruction data size: %d for %d addresses", len(i.Data), count)
	}

	v.Addresses = make([]ed25519.PublicKey, count)
	for j := range v.Addresses {
		binary.GetKey32(i.Data[offset:], &v.Addresses[j], &offset)
	}

	return v, nil
}

type DecompiledDeactivate struct {
	Table     ed25519.PublicKey
	Authority ed25519.PublicKey
}

func DecompileDeactivate(m solana.Message, index int) (*DecompiledDeactivate, error) {
	i, err := getCommandInstruction(m, index, commandDeactivateLookupTable)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 2 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != DiscriminatorLength {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledDeactivate{
		Table:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[1]],
	}, nil
}

type DecompiledClose struct {
	Table     ed25519.PublicKey
	Authority ed25519.PublicKey
	Recipient ed25519.PublicKey
}

func DecompileClose(m solana.Message, index int) (*DecompiledClose, error) {
	i, err := getCommandInstruction(m, index, commandCloseLookupTable)
	if err != nil {
		return nil, err
	}

	if len(i.Accounts) != 3 {
		return nil, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	if len(i.Data) != DiscriminatorLength {
		return nil, errors.Errorf("invalid instruction data size: %d", len(i.Data))
	}

	return &DecompiledClose{
		Table:     m.Accounts[i.Accounts[0]],
		Authority: m.Accounts[i.Accounts[1]],
		Recipient: m.Accounts[i.Accounts[2]],
	}, nil
}

// getCommandInstruction validates the instruction at index targets this
// program with the expected command tag.
func getCommandInstruction(m solana.Message, index int, command uint32) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]

	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return solana.CompiledInstruction{}, solana.ErrIncorrectProgram
	}

	prefix := make([]byte, DiscriminatorLength)
	var offset int
	binary.PutUint32(prefix, command, &offset)

	if !bytes.HasPrefix(i.Data, prefix) {
		return solana.CompiledInstruction{}, solana.ErrIncorrectInstruction
	}

	return i, nil
}
