package token

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/crypto/authenc"
	"github.com/tos-network/ctoken/crypto/elgamal"
)

const (
	// ConfidentialTransferMintSize is the TLV value size of the mint
	// extension: authority, auto-approve flag, auditor key.
	ConfidentialTransferMintSize = 32 + 1 + 32
	// ConfidentialTransferAccountSize is the TLV value size of the
	// account extension.
	ConfidentialTransferAccountSize = 1 + 32 + 64 + 64 + 64 + 36 + 1 + 1 + 8 + 8 + 8 + 8
)

// ConfidentialTransferMint configures confidential transfers on a mint.
// Zero-valued keys mean "none".
type ConfidentialTransferMint struct {
	Authority              solana.PublicKey
	AutoApproveNewAccounts bool
	AuditorElGamalPubkey   elgamal.PublicKey
}

// ConfidentialTransferAccount is the per-account confidential state.
//
// The pending balance is split into a low 16-bit and a high 48-bit
// ciphertext so each stays inside a tractable discrete log window; see
// DecryptPendingBalance for the recombination.
type ConfidentialTransferAccount struct {
	Approved                            bool
	ElGamalPubkey                       elgamal.PublicKey
	PendingBalanceLo                    elgamal.Ciphertext
	PendingBalanceHi                    elgamal.Ciphertext
	AvailableBalance                    elgamal.Ciphertext
	DecryptableAvailableBalance         authenc.Ciphertext
	AllowConfidentialCredits            bool
	AllowNonConfidentialCredits         bool
	PendingBalanceCreditCounter         uint64
	MaximumPendingBalanceCreditCounter  uint64
	ExpectedPendingBalanceCreditCounter uint64
	ActualPendingBalanceCreditCounter   uint64
}

// ConfidentialTransferMint returns the decoded mint extension.
func (m *Mint) ConfidentialTransferMint() (*ConfidentialTransferMint, error) {
	raw, ok := m.Extension(ExtensionConfidentialTransferMint)
	if !ok {
		return nil, fmt.Errorf("%w: confidential transfer mint", ErrMissingExtension)
	}
	if len(raw) != ConfidentialTransferMintSize {
		return nil, fmt.Errorf("%w: confidential transfer mint extension is %d bytes", ErrMalformedAccount, len(raw))
	}
	ext := &ConfidentialTransferMint{
		Authority:              solana.PublicKeyFromBytes(raw[0:32]),
		AutoApproveNewAccounts: raw[32] != 0,
	}
	copy(ext.AuditorElGamalPubkey[:], raw[33:65])
	return ext, nil
}

// ConfidentialTransferAccount returns the decoded account extension.
func (a *Account) ConfidentialTransferAccount() (*ConfidentialTransferAccount, error) {
	raw, ok := a.Extension(ExtensionConfidentialTransferAccount)
	if !ok {
		return nil, fmt.Errorf("%w: confidential transfer account", ErrMissingExtension)
	}
	if len(raw) != ConfidentialTransferAccountSize {
		return nil, fmt.Errorf("%w: confidential transfer account extension is %d bytes", ErrMalformedAccount, len(raw))
	}

	ext := &ConfidentialTransferAccount{Approved: raw[0] != 0}
	off := 1
	copy(ext.ElGamalPubkey[:], raw[off:off+32])
	off += 32
	var err error
	if ext.PendingBalanceLo, err = elgamal.CiphertextFromBytes(raw[off : off+64]); err != nil {
		return nil, err
	}
	off += 64
	if ext.PendingBalanceHi, err = elgamal.CiphertextFromBytes(raw[off : off+64]); err != nil {
		return nil, err
	}
	off += 64
	if ext.AvailableBalance, err = elgamal.CiphertextFromBytes(raw[off : off+64]); err != nil {
		return nil, err
	}
	off += 64
	if ext.DecryptableAvailableBalance, err = authenc.CiphertextFromBytes(raw[off : off+36]); err != nil {
		return nil, err
	}
	off += 36
	ext.AllowConfidentialCredits = raw[off] != 0
	ext.AllowNonConfidentialCredits = raw[off+1] != 0
	off += 2
	ext.PendingBalanceCreditCounter = binary.LittleEndian.Uint64(raw[off : off+8])
	ext.MaximumPendingBalanceCreditCounter = binary.LittleEndian.Uint64(raw[off+8 : off+16])
	ext.ExpectedPendingBalanceCreditCounter = binary.LittleEndian.Uint64(raw[off+16 : off+24])
	ext.ActualPendingBalanceCreditCounter = binary.LittleEndian.Uint64(raw[off+24 : off+32])
	return ext, nil
}

// AccountLenWithExtensions computes the allocation size for an account (or
// mint) that carries the given extensions. Any extended layout starts at
// the account-type byte and appends one TLV header per extension.
func AccountLenWithExtensions(extensions ...ExtensionType) (uint64, error) {
	size := uint64(tlvStart)
	for _, ext := range extensions {
		var valueLen uint64
		switch ext {
		case ExtensionConfidentialTransferMint:
			valueLen = ConfidentialTransferMintSize
		case ExtensionConfidentialTransferAccount:
			valueLen = ConfidentialTransferAccountSize
		default:
			return 0, fmt.Errorf("token: unknown extension type %d", ext)
		}
		size += tlvHeaderSize + valueLen
	}
	return size, nil
}
