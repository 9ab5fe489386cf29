package token

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/crypto/authenc"
	"github.com/tos-network/ctoken/crypto/elgamal"
)

// Top-level instruction discriminants.
const (
	ixInitializeMint                = 0
	ixInitializeAccount             = 1
	ixConfidentialTransferExtension = 27
)

// Confidential transfer sub-instruction discriminants.
const (
	ctInitializeMint      = 0
	ctConfigureAccount    = 2
	ctDeposit             = 5
	ctWithdraw            = 6
	ctApplyPendingBalance = 8
)

// Instruction is a token program instruction. Instructions whose data
// embeds relative proof offsets expose them for pre-submit validation.
type Instruction struct {
	accounts     solana.AccountMetaSlice
	data         []byte
	proofOffsets []int8
}

func (ix *Instruction) ProgramID() solana.PublicKey     { return ProgramID }
func (ix *Instruction) Accounts() []*solana.AccountMeta { return ix.accounts }
func (ix *Instruction) Data() ([]byte, error)           { return ix.data, nil }

// ProofOffsets returns the relative proof instruction offsets embedded in
// the instruction data, in encoding order.
func (ix *Instruction) ProofOffsets() []int8 { return ix.proofOffsets }

// NewInitializeMintInstruction initializes the base mint layout. Must run
// after every extension initializer.
func NewInitializeMintInstruction(mint solana.PublicKey, decimals uint8, mintAuthority solana.PublicKey, freezeAuthority *solana.PublicKey) *Instruction {
	data := make([]byte, 0, 1+1+32+1+32)
	data = append(data, ixInitializeMint, decimals)
	data = append(data, mintAuthority[:]...)
	if freezeAuthority != nil {
		data = append(data, 1)
		data = append(data, freezeAuthority[:]...)
	} else {
		data = append(data, 0)
	}
	return &Instruction{
		accounts: solana.AccountMetaSlice{
			solana.Meta(mint).WRITE(),
			solana.Meta(solana.SysVarRentPubkey),
		},
		data: data,
	}
}

// NewInitializeAccountInstruction initializes the base account layout.
func NewInitializeAccountInstruction(account, mint, owner solana.PublicKey) *Instruction {
	return &Instruction{
		accounts: solana.AccountMetaSlice{
			solana.Meta(account).WRITE(),
			solana.Meta(mint),
			solana.Meta(owner),
			solana.Meta(solana.SysVarRentPubkey),
		},
		data: []byte{ixInitializeAccount},
	}
}

// NewInitializeConfidentialTransferMintInstruction initializes the mint's
// confidential transfer extension. Must run before the base mint
// initializer. A nil authority or auditor encodes as the zero key.
func NewInitializeConfidentialTransferMintInstruction(mint solana.PublicKey, authority *solana.PublicKey, autoApproveNewAccounts bool, auditor *elgamal.PublicKey) *Instruction {
	data := make([]byte, 0, 2+32+1+32)
	data = append(data, ixConfidentialTransferExtension, ctInitializeMint)
	var authorityKey solana.PublicKey
	if authority != nil {
		authorityKey = *authority
	}
	data = append(data, authorityKey[:]...)
	data = append(data, boolByte(autoApproveNewAccounts))
	var auditorKey elgamal.PublicKey
	if auditor != nil {
		auditorKey = *auditor
	}
	data = append(data, auditorKey[:]...)
	return &Instruction{
		accounts: solana.AccountMetaSlice{solana.Meta(mint).WRITE()},
		data:     data,
	}
}

// NewConfigureAccountInstruction enables confidential transfers on an
// account. proofOffset points at the pubkey validity verification
// instruction, relative to this one.
func NewConfigureAccountInstruction(
	account, mint solana.PublicKey,
	decryptableZeroBalance authenc.Ciphertext,
	maximumPendingBalanceCreditCounter uint64,
	proofOffset int8,
	authority solana.PublicKey,
	multisigSigners []solana.PublicKey,
) *Instruction {
	data := make([]byte, 0, 2+authenc.CiphertextSize+8+1)
	data = append(data, ixConfidentialTransferExtension, ctConfigureAccount)
	data = append(data, decryptableZeroBalance[:]...)
	data = appendUint64(data, maximumPendingBalanceCreditCounter)
	data = append(data, byte(proofOffset))

	accounts := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(mint),
		solana.Meta(solana.SysVarInstructionsPubkey),
	}
	accounts = appendAuthority(accounts, authority, multisigSigners)
	return &Instruction{accounts: accounts, data: data, proofOffsets: []int8{proofOffset}}
}

// NewDepositInstruction moves public balance into the pending balance.
func NewDepositInstruction(
	account, mint solana.PublicKey,
	amount uint64,
	decimals uint8,
	authority solana.PublicKey,
	multisigSigners []solana.PublicKey,
) *Instruction {
	data := make([]byte, 0, 2+8+1)
	data = append(data, ixConfidentialTransferExtension, ctDeposit)
	data = appendUint64(data, amount)
	data = append(data, decimals)

	accounts := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(mint),
	}
	accounts = appendAuthority(accounts, authority, multisigSigners)
	return &Instruction{accounts: accounts, data: data}
}

// NewWithdrawInstruction moves available balance back to public balance.
// The two offsets point at the equality and range proof verification
// instructions, relative to this one.
func NewWithdrawInstruction(
	account, mint solana.PublicKey,
	amount uint64,
	decimals uint8,
	newDecryptableAvailableBalance authenc.Ciphertext,
	equalityProofOffset, rangeProofOffset int8,
	authority solana.PublicKey,
	multisigSigners []solana.PublicKey,
) *Instruction {
	data := make([]byte, 0, 2+8+1+authenc.CiphertextSize+2)
	data = append(data, ixConfidentialTransferExtension, ctWithdraw)
	data = appendUint64(data, amount)
	data = append(data, decimals)
	data = append(data, newDecryptableAvailableBalance[:]...)
	data = append(data, byte(equalityProofOffset), byte(rangeProofOffset))

	accounts := solana.AccountMetaSlice{
		solana.Meta(account).WRITE(),
		solana.Meta(mint),
		solana.Meta(solana.SysVarInstructionsPubkey),
	}
	accounts = appendAuthority(accounts, authority, multisigSigners)
	return &Instruction{
		accounts:     accounts,
		data:         data,
		proofOffsets: []int8{equalityProofOffset, rangeProofOffset},
	}
}

// NewApplyPendingBalanceInstruction folds the pending balance into the
// available balance. expectedCounter fences the update against deposits
// that land between the client's read and the apply.
func NewApplyPendingBalanceInstruction(
	account solana.PublicKey,
	expectedCounter uint64,
	newDecryptableAvailableBalance authenc.Ciphertext,
	authority solana.PublicKey,
	multisigSigners []solana.PublicKey,
) *Instruction {
	data := make([]byte, 0, 2+8+authenc.CiphertextSize)
	data = append(data, ixConfidentialTransferExtension, ctApplyPendingBalance)
	data = appendUint64(data, expectedCounter)
	data = append(data, newDecryptableAvailableBalance[:]...)

	accounts := solana.AccountMetaSlice{solana.Meta(account).WRITE()}
	accounts = appendAuthority(accounts, authority, multisigSigners)
	return &Instruction{accounts: accounts, data: data}
}

// appendAuthority adds the owner meta: a direct signer when there are no
// multisig signers, otherwise the non-signing multisig account followed by
// its signing members.
func appendAuthority(accounts solana.AccountMetaSlice, authority solana.PublicKey, multisigSigners []solana.PublicKey) solana.AccountMetaSlice {
	if len(multisigSigners) == 0 {
		return append(accounts, solana.Meta(authority).SIGNER())
	}
	accounts = append(accounts, solana.Meta(authority))
	for _, signer := range multisigSigners {
		accounts = append(accounts, solana.Meta(signer).SIGNER())
	}
	return accounts
}

func appendUint64(data []byte, v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return append(data, buf[:]...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
