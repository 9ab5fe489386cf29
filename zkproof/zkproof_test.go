package zkproof

import (
	"bytes"
	"errors"
	"testing"

	"github.com/tos-network/ctoken/crypto/elgamal"
)

func testKeypair(t *testing.T) *elgamal.Keypair {
	t.Helper()
	kp, err := elgamal.NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	return kp
}

func TestPubkeyValidityProof(t *testing.T) {
	kp := testKeypair(t)
	data, err := NewPubkeyValidityProofData(kp)
	if err != nil {
		t.Fatalf("NewPubkeyValidityProofData: %v", err)
	}
	if err := data.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	raw, err := data.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(raw) != PubkeyValidityDataSize {
		t.Fatalf("marshaled %d bytes, want %d", len(raw), PubkeyValidityDataSize)
	}
	parsed, err := ParsePubkeyValidityProofData(raw)
	if err != nil {
		t.Fatalf("ParsePubkeyValidityProofData: %v", err)
	}
	if err := parsed.Verify(); err != nil {
		t.Fatalf("Verify after parse: %v", err)
	}
}

func TestPubkeyValidityProofRejectsForeignKey(t *testing.T) {
	kp := testKeypair(t)
	other := testKeypair(t)
	data, err := NewPubkeyValidityProofData(kp)
	if err != nil {
		t.Fatalf("NewPubkeyValidityProofData: %v", err)
	}
	data.Pubkey = other.Public()
	if err := data.Verify(); !errors.Is(err, ErrProofVerification) {
		t.Fatalf("Verify with swapped pubkey: err = %v, want ErrProofVerification", err)
	}
}

func TestCiphertextCommitmentEqualityProof(t *testing.T) {
	kp := testKeypair(t)
	const amount = 77777

	opening, err := elgamal.NewOpening()
	if err != nil {
		t.Fatalf("NewOpening: %v", err)
	}
	ct, err := kp.Public().EncryptWith(amount, opening)
	if err != nil {
		t.Fatalf("EncryptWith: %v", err)
	}
	commitment, err := elgamal.Commit(amount, opening)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	data, err := NewCiphertextCommitmentEqualityProofData(kp, ct, commitment, opening, amount)
	if err != nil {
		t.Fatalf("NewCiphertextCommitmentEqualityProofData: %v", err)
	}
	if err := data.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	raw, err := data.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(raw) != CiphertextCommitmentEqualityDataSize {
		t.Fatalf("marshaled %d bytes, want %d", len(raw), CiphertextCommitmentEqualityDataSize)
	}
	parsed, err := ParseCiphertextCommitmentEqualityProofData(raw)
	if err != nil {
		t.Fatalf("ParseCiphertextCommitmentEqualityProofData: %v", err)
	}
	if err := parsed.Verify(); err != nil {
		t.Fatalf("Verify after parse: %v", err)
	}
}

func TestCiphertextCommitmentEqualityProofRejectsMismatch(t *testing.T) {
	kp := testKeypair(t)

	opening, err := elgamal.NewOpening()
	if err != nil {
		t.Fatalf("NewOpening: %v", err)
	}
	ct, err := kp.Public().EncryptWith(100, opening)
	if err != nil {
		t.Fatalf("EncryptWith: %v", err)
	}
	// Commitment to a different amount under the same opening.
	commitment, err := elgamal.Commit(101, opening)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}

	data, err := NewCiphertextCommitmentEqualityProofData(kp, ct, commitment, opening, 100)
	if err != nil {
		t.Fatalf("NewCiphertextCommitmentEqualityProofData: %v", err)
	}
	if err := data.Verify(); !errors.Is(err, ErrProofVerification) {
		t.Fatalf("Verify on mismatched statement: err = %v, want ErrProofVerification", err)
	}
}

func rangeItem(t *testing.T, amount uint64, bits int) RangeItem {
	t.Helper()
	commitment, opening, err := elgamal.NewCommitment(amount)
	if err != nil {
		t.Fatalf("NewCommitment: %v", err)
	}
	return RangeItem{Amount: amount, BitLength: bits, Commitment: commitment, Opening: opening}
}

func TestBatchedRangeProofSingleCommitment(t *testing.T) {
	data, err := NewBatchedRangeProofU64Data([]RangeItem{rangeItem(t, 123456789, 64)})
	if err != nil {
		t.Fatalf("NewBatchedRangeProofU64Data: %v", err)
	}
	if err := data.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	raw, err := data.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	parsed, err := ParseBatchedRangeProofU64Data(raw)
	if err != nil {
		t.Fatalf("ParseBatchedRangeProofU64Data: %v", err)
	}
	if err := parsed.Verify(); err != nil {
		t.Fatalf("Verify after parse: %v", err)
	}
	if !bytes.Equal(parsed.Commitments[0][:], data.Commitments[0][:]) {
		t.Fatal("parse changed the commitment")
	}
}

func TestBatchedRangeProofSplitBatch(t *testing.T) {
	items := []RangeItem{
		rangeItem(t, 1<<15, 16),
		rangeItem(t, (1<<48)-1, 48),
	}
	data, err := NewBatchedRangeProofU64Data(items)
	if err != nil {
		t.Fatalf("NewBatchedRangeProofU64Data: %v", err)
	}
	if err := data.Verify(); err != nil {
		t.Fatalf("Verify: %v", err)
	}
}

func TestBatchedRangeProofRejectsBadBatches(t *testing.T) {
	if _, err := NewBatchedRangeProofU64Data(nil); err == nil {
		t.Fatal("empty batch must be rejected")
	}
	// Amount wider than the claimed bit length.
	if _, err := NewBatchedRangeProofU64Data([]RangeItem{rangeItem(t, 1<<20, 16), rangeItem(t, 0, 48)}); err == nil {
		t.Fatal("amount above the bit length must be rejected")
	}
	// Bit lengths not summing to 64.
	if _, err := NewBatchedRangeProofU64Data([]RangeItem{rangeItem(t, 1, 16), rangeItem(t, 1, 16)}); err == nil {
		t.Fatal("bit lengths short of 64 must be rejected")
	}
}

func TestBatchedRangeProofRejectsForeignCommitment(t *testing.T) {
	data, err := NewBatchedRangeProofU64Data([]RangeItem{rangeItem(t, 42, 64)})
	if err != nil {
		t.Fatalf("NewBatchedRangeProofU64Data: %v", err)
	}
	foreign, _, err := elgamal.NewCommitment(42)
	if err != nil {
		t.Fatalf("NewCommitment: %v", err)
	}
	data.Commitments[0] = foreign
	if err := data.Verify(); !errors.Is(err, ErrProofVerification) {
		t.Fatalf("Verify with swapped commitment: err = %v, want ErrProofVerification", err)
	}
}

func TestVerifyInstruction(t *testing.T) {
	kp := testKeypair(t)
	data, err := NewPubkeyValidityProofData(kp)
	if err != nil {
		t.Fatalf("NewPubkeyValidityProofData: %v", err)
	}
	ix, err := VerifyInstruction(data)
	if err != nil {
		t.Fatalf("VerifyInstruction: %v", err)
	}
	if ix.ProgramID() != ProgramID {
		t.Fatalf("program ID = %s, want %s", ix.ProgramID(), ProgramID)
	}
	raw, err := ix.Data()
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if Opcode(raw[0]) != OpVerifyPubkeyValidity {
		t.Fatalf("opcode = %d, want %d", raw[0], OpVerifyPubkeyValidity)
	}
	if len(raw) != 1+PubkeyValidityDataSize {
		t.Fatalf("instruction data %d bytes, want %d", len(raw), 1+PubkeyValidityDataSize)
	}
}
