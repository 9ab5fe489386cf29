// Package token implements the client side of the confidential token
// program ABI: account and mint state decoding, the TLV extension layer,
// instruction encoding, and the balance codec that turns on-chain
// ciphertexts back into amounts.
package token

import (
	"errors"

	"github.com/gagliardetto/solana-go"
)

// ProgramID is the address of the extension-enabled token program.
var ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

const (
	// BaseAccountSize is the legacy token account layout size.
	BaseAccountSize = 165
	// BaseMintSize is the legacy mint layout size.
	BaseMintSize = 82

	// accountTypeOffset is where the discriminating account-type byte
	// lives when extensions are present. Mints shorter than the account
	// layout are zero-padded up to it so the two cannot be confused.
	accountTypeOffset = BaseAccountSize
	tlvStart          = accountTypeOffset + 1
	tlvHeaderSize     = 4
)

// AccountType discriminates extended account layouts.
type AccountType uint8

const (
	AccountTypeUninitialized AccountType = 0
	AccountTypeMint          AccountType = 1
	AccountTypeAccount       AccountType = 2
)

// ExtensionType identifies a TLV entry.
type ExtensionType uint16

// Extension tags follow the token program's enum ordering; entries 1-3
// are the transfer-fee and mint-close-authority extensions this client
// never touches.
const (
	ExtensionConfidentialTransferMint    ExtensionType = 4
	ExtensionConfidentialTransferAccount ExtensionType = 5
)

var (
	ErrMalformedAccount = errors.New("token: malformed account data")
	ErrMissingExtension = errors.New("token: extension not present")
	// ErrWrongProgram reports an account owned by a different program.
	ErrWrongProgram = errors.New("token: account not owned by the token program")
	// ErrBalanceUnsearchable reports a pending balance component outside
	// its discrete log search window.
	ErrBalanceUnsearchable = errors.New("token: balance outside the decryption search window")
)

// CheckProgram verifies that owner is the token program.
func CheckProgram(owner solana.PublicKey) error {
	if !owner.Equals(ProgramID) {
		return ErrWrongProgram
	}
	return nil
}
