package solana

import (
	"bytes"
	"crypto/ed25519"
	"io"

	"github.com/pkg/errors"

	"github.com/ridgeline-labs/solana-alt/pkg/solana/shortvec"
)

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Signatures
	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	// Message
	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return (&t.Message).Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	// Version prefix (only encoded for versioned messages)
	switch m.Version {
	case MessageVersionLegacy:
	case MessageVersion0:
		_ = b.WriteByte(byte(m.Version) + 127)
	default:
		panic("unsupported message version")
	}

	// Header
	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	// Accounts
	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	// Recent Blockhash
	_, _ = b.Write(m.RecentBlockhash[:])

	// Instructions
	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		// Accounts
		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		// Data
		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	// Address Table Lookups
	if m.Version == MessageVersion0 {
		_, _ = shortvec.EncodeLen(b, len(m.AddressTableLookups))
		for _, lookup := range m.AddressTableLookups {
			_, _ = b.Write(lookup.PublicKey)

			_, _ = shortvec.EncodeLen(b, len(lookup.WritableIndexes))
			_, _ = b.Write(lookup.WritableIndexes)

			_, _ = shortvec.EncodeLen(b, len(lookup.ReadonlyIndexes))
			_, _ = b.Write(lookup.ReadonlyIndexes)
		}
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) (err error) {
	if len(b) == 0 {
		return errors.New("empty message")
	}

	buf := bytes.NewBuffer(b)

	// The high bit of the first byte distinguishes versioned messages
	// from legacy ones, whose first byte is the signature count (<= 127).
	m.Version = MessageVersionLegacy
	if b[0] > 127 {
		version := MessageVersion(b[0] - 127)
		if version != MessageVersion0 {
			return errors.Errorf("unsupported message version: %d", version)
		}

		m.Version = version
		_, _ = buf.ReadByte()
	}

	// Header
	if m.Header.NumSignatures, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num signatures")
	}
	if m.Header.NumReadonlySigned, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly signatures")
	}
	if m.Header.NumReadOnly, err = buf.ReadByte(); err != nil {
		return errors.Wrap(err, "failed to read num readonly")
	}

	// Accounts
	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account len")
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := 0; i < accountLen; i++ {
		m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		if _, err = io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at index %d", i)
		}
	}

	// Recent Blockhash
	if _, err = io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read recent block hash")
	}

	// Instructions
	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction len")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := 0; i < instructionLen; i++ {
		var c CompiledInstruction

		// Program Index
		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] program index", i)
		}
		if int(c.ProgramIndex) >= accountLen {
			return errors.Errorf("program index out of range: %d:%d", i, c.ProgramIndex)
		}

		// Account Indexes
		instructionAccountLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] account len", i)
		}
		c.Accounts = make([]byte, instructionAccountLen)
		if _, err = io.ReadFull(buf, c.Accounts); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] accounts", i)
		}

		// Account indices beyond the static list are resolved from the
		// message's address table lookups, so the bound only applies to
		// legacy messages.
		if m.Version == MessageVersionLegacy {
			for _, index := range c.Accounts {
				if int(index) >= accountLen {
					return errors.Errorf("account index out of range: %d:%d", i, index)
				}
			}
		}

		// Data
		dataLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data len", i)
		}
		c.Data = make([]byte, dataLen)
		if _, err = io.ReadFull(buf, c.Data); err != nil {
			return errors.Wrapf(err, "failed to read instruction[%d] data", i)
		}

		m.Instructions[i] = c
	}

	// Address Table Lookups
	if m.Version == MessageVersion0 {
		lookupLen, err := shortvec.DecodeLen(buf)
		if err != nil {
			return errors.Wrap(err, "failed to read address table lookup len")
		}

		for i := 0; i < lookupLen; i++ {
			var lookup MessageAddressTableLookup

			lookup.PublicKey = make([]byte, ed25519.PublicKeySize)
			if _, err = io.ReadFull(buf, lookup.PublicKey); err != nil {
				return errors.Wrapf(err, "failed to read lookup[%d] table address", i)
			}

			writableLen, err := shortvec.DecodeLen(buf)
			if err != nil {
				return errors.Wrapf(err, "failed to read lookup[%d] writable index len", i)
			}
			lookup.WritableIndexes = make([]byte, writableLen)
			if _, err = io.ReadFull(buf, lookup.WritableIndexes); err != nil {
				return errors.Wrapf(err, "failed to read lookup[%d] writable indexes", i)
			}

			readonlyLen, err := shortvec.DecodeLen(buf)
			if err != nil {
				return errors.Wrapf(err, "failed to read lookup[%d] readonly index len", i)
			}
			lookup.ReadonlyIndexes = make([]byte, readonlyLen)
			if _, err = io.ReadFull(buf, lookup.ReadonlyIndexes); err != nil {
				return errors.Wrapf(err, "failed to read lookup[%d] readonly indexes", i)
			}

			m.AddressTableLookups = append(m.AddressTableLookups, lookup)
		}
	}

	return nil
}
