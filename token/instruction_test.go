package token

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/crypto/authenc"
)

func TestNewInitializeMintInstruction(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()
	freeze := solana.NewWallet().PublicKey()

	ix := NewInitializeMintInstruction(mint, 9, authority, &freeze)
	data, _ := ix.Data()
	if data[0] != ixInitializeMint || data[1] != 9 {
		t.Fatalf("header = %v", data[:2])
	}
	if !bytes.Equal(data[2:34], authority[:]) {
		t.Fatal("mint authority mismatch")
	}
	if data[34] != 1 || !bytes.Equal(data[35:67], freeze[:]) {
		t.Fatal("freeze authority mismatch")
	}
	if !ix.Accounts()[0].PublicKey.Equals(mint) || !ix.Accounts()[0].IsWritable {
		t.Fatal("mint meta must be writable")
	}
	if !ix.Accounts()[1].PublicKey.Equals(solana.SysVarRentPubkey) {
		t.Fatal("rent sysvar missing")
	}

	noFreeze := NewInitializeMintInstruction(mint, 9, authority, nil)
	data, _ = noFreeze.Data()
	if data[34] != 0 || len(data) != 35 {
		t.Fatalf("no-freeze encoding = %d bytes, tag %d", len(data), data[34])
	}
}

func TestNewInitializeConfidentialTransferMintInstruction(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	authority := solana.NewWallet().PublicKey()

	ix := NewInitializeConfidentialTransferMintInstruction(mint, &authority, true, nil)
	data, _ := ix.Data()
	if data[0] != ixConfidentialTransferExtension || data[1] != ctInitializeMint {
		t.Fatalf("header = %v", data[:2])
	}
	if !bytes.Equal(data[2:34], authority[:]) {
		t.Fatal("authority mismatch")
	}
	if data[34] != 1 {
		t.Fatal("auto-approve must encode as 1")
	}
	if !bytes.Equal(data[35:67], make([]byte, 32)) {
		t.Fatal("nil auditor must encode as the zero key")
	}
	if len(ix.Accounts()) != 1 || !ix.Accounts()[0].IsWritable {
		t.Fatal("single writable mint meta expected")
	}
}

func TestNewConfigureAccountInstruction(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	var zeroBalance authenc.Ciphertext

	ix := NewConfigureAccountInstruction(account, mint, zeroBalance, ^uint64(0), -1, owner, nil)
	data, _ := ix.Data()
	if data[0] != ixConfidentialTransferExtension || data[1] != ctConfigureAccount {
		t.Fatalf("header = %v", data[:2])
	}
	if counter := binary.LittleEndian.Uint64(data[2+authenc.CiphertextSize:]); counter != ^uint64(0) {
		t.Fatalf("max credit counter = %d", counter)
	}
	if int8(data[len(data)-1]) != -1 {
		t.Fatalf("proof offset byte = %d, want -1", int8(data[len(data)-1]))
	}
	if got := ix.ProofOffsets(); len(got) != 1 || got[0] != -1 {
		t.Fatalf("ProofOffsets = %v", got)
	}

	metas := ix.Accounts()
	if !metas[2].PublicKey.Equals(solana.SysVarInstructionsPubkey) {
		t.Fatal("instructions sysvar missing")
	}
	if !metas[3].PublicKey.Equals(owner) || !metas[3].IsSigner {
		t.Fatal("owner must sign")
	}
}

func TestNewWithdrawInstruction(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	var newBalance authenc.Ciphertext

	ix := NewWithdrawInstruction(account, mint, 5000, 6, newBalance, -2, -1, owner, nil)
	data, _ := ix.Data()
	if data[0] != ixConfidentialTransferExtension || data[1] != ctWithdraw {
		t.Fatalf("header = %v", data[:2])
	}
	if amount := binary.LittleEndian.Uint64(data[2:10]); amount != 5000 {
		t.Fatalf("amount = %d", amount)
	}
	if data[10] != 6 {
		t.Fatalf("decimals = %d", data[10])
	}
	if int8(data[len(data)-2]) != -2 || int8(data[len(data)-1]) != -1 {
		t.Fatalf("offset bytes = %d, %d", int8(data[len(data)-2]), int8(data[len(data)-1]))
	}
	if got := ix.ProofOffsets(); len(got) != 2 || got[0] != -2 || got[1] != -1 {
		t.Fatalf("ProofOffsets = %v", got)
	}
}

func TestNewDepositInstruction(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()

	ix := NewDepositInstruction(account, mint, 123, 0, owner, nil)
	data, _ := ix.Data()
	if data[0] != ixConfidentialTransferExtension || data[1] != ctDeposit {
		t.Fatalf("header = %v", data[:2])
	}
	if amount := binary.LittleEndian.Uint64(data[2:10]); amount != 123 {
		t.Fatalf("amount = %d", amount)
	}
	if len(ix.ProofOffsets()) != 0 {
		t.Fatal("deposit carries no proofs")
	}
}

func TestNewApplyPendingBalanceInstruction(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	var newBalance authenc.Ciphertext

	ix := NewApplyPendingBalanceInstruction(account, 7, newBalance, owner, nil)
	data, _ := ix.Data()
	if data[0] != ixConfidentialTransferExtension || data[1] != ctApplyPendingBalance {
		t.Fatalf("header = %v", data[:2])
	}
	if counter := binary.LittleEndian.Uint64(data[2:10]); counter != 7 {
		t.Fatalf("expected counter = %d", counter)
	}
	metas := ix.Accounts()
	if len(metas) != 2 || !metas[1].IsSigner {
		t.Fatalf("metas = %v", metas)
	}
}

func TestMultisigAuthorityMetas(t *testing.T) {
	account := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	multisig := solana.NewWallet().PublicKey()
	signerA := solana.NewWallet().PublicKey()
	signerB := solana.NewWallet().PublicKey()

	ix := NewDepositInstruction(account, mint, 1, 0, multisig, []solana.PublicKey{signerA, signerB})
	metas := ix.Accounts()
	if metas[2].IsSigner {
		t.Fatal("multisig account itself must not sign")
	}
	if !metas[3].IsSigner || !metas[4].IsSigner {
		t.Fatal("multisig members must sign")
	}
	if !metas[3].PublicKey.Equals(signerA) || !metas[4].PublicKey.Equals(signerB) {
		t.Fatal("multisig member order mismatch")
	}
}
