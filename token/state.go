package token

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Account is a decoded view of a token account. It borrows the backing
// buffer; extension lookups return sub-slices of it.
type Account struct {
	Mint   solana.PublicKey
	Owner  solana.PublicKey
	Amount uint64
	Frozen bool

	tlv []tlvEntry
}

// Mint is a decoded view of a mint. It borrows the backing buffer.
type Mint struct {
	MintAuthority   *solana.PublicKey
	Supply          uint64
	Decimals        uint8
	Initialized     bool
	FreezeAuthority *solana.PublicKey

	tlv []tlvEntry
}

type tlvEntry struct {
	typ   ExtensionType
	value []byte
}

const (
	accountStateUninitialized = 0
	accountStateFrozen        = 2

	accountStateOffset = 108
)

// UnpackAccount decodes a token account, including any TLV extensions.
func UnpackAccount(data []byte) (*Account, error) {
	if len(data) < BaseAccountSize {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrMalformedAccount, len(data), BaseAccountSize)
	}
	state := data[accountStateOffset]
	if state == accountStateUninitialized {
		return nil, fmt.Errorf("%w: account not initialized", ErrMalformedAccount)
	}

	acc := &Account{
		Mint:   solana.PublicKeyFromBytes(data[0:32]),
		Owner:  solana.PublicKeyFromBytes(data[32:64]),
		Amount: binary.LittleEndian.Uint64(data[64:72]),
		Frozen: state == accountStateFrozen,
	}

	if len(data) > BaseAccountSize {
		if len(data) < tlvStart {
			return nil, fmt.Errorf("%w: truncated account type byte", ErrMalformedAccount)
		}
		if AccountType(data[accountTypeOffset]) != AccountTypeAccount {
			return nil, fmt.Errorf("%w: account type byte %d", ErrMalformedAccount, data[accountTypeOffset])
		}
		tlv, err := parseTLV(data[tlvStart:])
		if err != nil {
			return nil, err
		}
		acc.tlv = tlv
	}
	return acc, nil
}

// UnpackMint decodes a mint, including any TLV extensions.
func UnpackMint(data []byte) (*Mint, error) {
	if len(data) < BaseMintSize {
		return nil, fmt.Errorf("%w: %d bytes, want at least %d", ErrMalformedAccount, len(data), BaseMintSize)
	}
	if data[45] != 1 {
		return nil, fmt.Errorf("%w: mint not initialized", ErrMalformedAccount)
	}

	mint := &Mint{
		MintAuthority:   unpackCOptionKey(data[0:36]),
		Supply:          binary.LittleEndian.Uint64(data[36:44]),
		Decimals:        data[44],
		Initialized:     true,
		FreezeAuthority: unpackCOptionKey(data[46:82]),
	}

	if len(data) > BaseMintSize {
		// Extended mints are zero-padded to the account layout size
		// before the account type byte.
		if len(data) < tlvStart {
			return nil, fmt.Errorf("%w: truncated account type byte", ErrMalformedAccount)
		}
		if AccountType(data[accountTypeOffset]) != AccountTypeMint {
			return nil, fmt.Errorf("%w: account type byte %d", ErrMalformedAccount, data[accountTypeOffset])
		}
		tlv, err := parseTLV(data[tlvStart:])
		if err != nil {
			return nil, err
		}
		mint.tlv = tlv
	}
	return mint, nil
}

func parseTLV(data []byte) ([]tlvEntry, error) {
	var entries []tlvEntry
	for len(data) > 0 {
		if len(data) < tlvHeaderSize {
			// Trailing zero padding after the last entry is tolerated.
			if isAllZero(data) {
				return entries, nil
			}
			return nil, fmt.Errorf("%w: truncated extension header", ErrMalformedAccount)
		}
		typ := ExtensionType(binary.LittleEndian.Uint16(data[0:2]))
		length := int(binary.LittleEndian.Uint16(data[2:4]))
		if typ == 0 {
			if isAllZero(data) {
				return entries, nil
			}
			return nil, fmt.Errorf("%w: stray bytes after extensions", ErrMalformedAccount)
		}
		if len(data) < tlvHeaderSize+length {
			return nil, fmt.Errorf("%w: extension %d truncated", ErrMalformedAccount, typ)
		}
		entries = append(entries, tlvEntry{typ: typ, value: data[tlvHeaderSize : tlvHeaderSize+length]})
		data = data[tlvHeaderSize+length:]
	}
	return entries, nil
}

func isAllZero(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

// Extension returns the raw value of the given extension type.
func (a *Account) Extension(typ ExtensionType) ([]byte, bool) {
	return findExtension(a.tlv, typ)
}

// Extension returns the raw value of the given extension type.
func (m *Mint) Extension(typ ExtensionType) ([]byte, bool) {
	return findExtension(m.tlv, typ)
}

func findExtension(tlv []tlvEntry, typ ExtensionType) ([]byte, bool) {
	for _, e := range tlv {
		if e.typ == typ {
			return e.value, true
		}
	}
	return nil, false
}

func unpackCOptionKey(data []byte) *solana.PublicKey {
	if binary.LittleEndian.Uint32(data[0:4]) == 0 {
		return nil
	}
	key := solana.PublicKeyFromBytes(data[4:36])
	return &key
}
