package zkproof

import (
	"fmt"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/tos-network/ctoken/crypto/elgamal"
)

const (
	equalityContextSize = 32 + 64 + 32
	equalityProofSize   = 192
	// CiphertextCommitmentEqualityDataSize is context plus proof body.
	CiphertextCommitmentEqualityDataSize = equalityContextSize + equalityProofSize
)

// CiphertextCommitmentEqualityProof proves that an ElGamal ciphertext under
// the prover's key and a standalone Pedersen commitment hide the same
// amount. The prover knows the secret key s, the amount x, and the
// commitment opening r.
//
// With ciphertext (C, D) and commitment Ct, the relations are
//
//	s*P = H            (the key is well formed)
//	x*G + s*D = C      (decryption recovers x*G)
//	x*G + r*H = Ct     (the commitment opens to x)
type CiphertextCommitmentEqualityProof struct {
	y0 [32]byte // Y0 = ys*P
	y1 [32]byte // Y1 = yx*G + ys*D
	y2 [32]byte // Y2 = yx*G + yr*H
	zs [32]byte // zs = c*s + ys
	zx [32]byte // zx = c*x + yx
	zr [32]byte // zr = c*r + yr
}

// CiphertextCommitmentEqualityProofData is the proof with its statement.
type CiphertextCommitmentEqualityProofData struct {
	Pubkey     elgamal.PublicKey
	Ciphertext elgamal.Ciphertext
	Commitment elgamal.Commitment
	Proof      CiphertextCommitmentEqualityProof
}

// NewCiphertextCommitmentEqualityProofData proves that ciphertext and
// commitment both hide amount. opening is the commitment's opening.
func NewCiphertextCommitmentEqualityProofData(
	kp *elgamal.Keypair,
	ciphertext elgamal.Ciphertext,
	commitment elgamal.Commitment,
	opening *elgamal.Opening,
	amount uint64,
) (*CiphertextCommitmentEqualityProofData, error) {
	pub := kp.Public()
	P, err := pub.Decompress()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	D, err := decodePoint(ciphertext.Handle[:])
	if err != nil {
		return nil, fmt.Errorf("%w: ciphertext handle", ErrProofConstruction)
	}
	H, err := elgamal.BlindingPoint()
	if err != nil {
		return nil, err
	}

	t := newEqualityTranscript(pub, ciphertext, commitment)

	ys, err := elgamal.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	yx, err := elgamal.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	yr, err := elgamal.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}

	Y0 := ristretto255.NewElement().ScalarMult(ys, P)
	Y1 := ristretto255.NewElement().ScalarBaseMult(yx)
	Y1.Add(Y1, ristretto255.NewElement().ScalarMult(ys, D))
	Y2 := ristretto255.NewElement().ScalarBaseMult(yx)
	Y2.Add(Y2, ristretto255.NewElement().ScalarMult(yr, H))

	appendPoint(t, "Y0", Y0)
	appendPoint(t, "Y1", Y1)
	appendPoint(t, "Y2", Y2)
	c, err := challengeScalar(t, "c")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}

	zs := ristretto255.NewScalar().Multiply(c, kp.Secret().Scalar())
	zs.Add(zs, ys)
	zx := ristretto255.NewScalar().Multiply(c, elgamal.AmountScalar(amount))
	zx.Add(zx, yx)
	zr := ristretto255.NewScalar().Multiply(c, opening.Scalar())
	zr.Add(zr, yr)

	data := &CiphertextCommitmentEqualityProofData{
		Pubkey:     pub,
		Ciphertext: ciphertext,
		Commitment: commitment,
	}
	copy(data.Proof.y0[:], Y0.Encode(nil))
	copy(data.Proof.y1[:], Y1.Encode(nil))
	copy(data.Proof.y2[:], Y2.Encode(nil))
	copy(data.Proof.zs[:], zs.Bytes())
	copy(data.Proof.zx[:], zx.Bytes())
	copy(data.Proof.zr[:], zr.Bytes())
	return data, nil
}

func (d *CiphertextCommitmentEqualityProofData) Opcode() Opcode {
	return OpVerifyCiphertextCommitmentEquality
}

func (d *CiphertextCommitmentEqualityProofData) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, CiphertextCommitmentEqualityDataSize)
	out = append(out, d.Pubkey[:]...)
	ct := d.Ciphertext.Bytes()
	out = append(out, ct[:]...)
	out = append(out, d.Commitment[:]...)
	out = append(out, d.Proof.y0[:]...)
	out = append(out, d.Proof.y1[:]...)
	out = append(out, d.Proof.y2[:]...)
	out = append(out, d.Proof.zs[:]...)
	out = append(out, d.Proof.zx[:]...)
	out = append(out, d.Proof.zr[:]...)
	return out, nil
}

// ParseCiphertextCommitmentEqualityProofData decodes a proof datum.
func ParseCiphertextCommitmentEqualityProofData(raw []byte) (*CiphertextCommitmentEqualityProofData, error) {
	if len(raw) != CiphertextCommitmentEqualityDataSize {
		return nil, ErrMalformedProof
	}
	data := &CiphertextCommitmentEqualityProofData{}
	copy(data.Pubkey[:], raw[:32])
	ct, err := elgamal.CiphertextFromBytes(raw[32:96])
	if err != nil {
		return nil, err
	}
	data.Ciphertext = ct
	copy(data.Commitment[:], raw[96:128])
	copy(data.Proof.y0[:], raw[128:160])
	copy(data.Proof.y1[:], raw[160:192])
	copy(data.Proof.y2[:], raw[192:224])
	copy(data.Proof.zs[:], raw[224:256])
	copy(data.Proof.zx[:], raw[256:288])
	copy(data.Proof.zr[:], raw[288:320])
	return data, nil
}

// Verify checks the three sigma relations against the recomputed challenge.
func (d *CiphertextCommitmentEqualityProofData) Verify() error {
	P, err := d.Pubkey.Decompress()
	if err != nil {
		return ErrProofVerification
	}
	C, err := decodePoint(d.Ciphertext.Commitment[:])
	if err != nil {
		return ErrProofVerification
	}
	D, err := decodePoint(d.Ciphertext.Handle[:])
	if err != nil {
		return ErrProofVerification
	}
	Ct, err := d.Commitment.Decompress()
	if err != nil {
		return ErrProofVerification
	}
	Y0, err := decodePoint(d.Proof.y0[:])
	if err != nil {
		return ErrProofVerification
	}
	Y1, err := decodePoint(d.Proof.y1[:])
	if err != nil {
		return ErrProofVerification
	}
	Y2, err := decodePoint(d.Proof.y2[:])
	if err != nil {
		return ErrProofVerification
	}
	zs, err := decodeScalar(d.Proof.zs[:])
	if err != nil {
		return ErrProofVerification
	}
	zx, err := decodeScalar(d.Proof.zx[:])
	if err != nil {
		return ErrProofVerification
	}
	zr, err := decodeScalar(d.Proof.zr[:])
	if err != nil {
		return ErrProofVerification
	}
	H, err := elgamal.BlindingPoint()
	if err != nil {
		return err
	}

	t := newEqualityTranscript(d.Pubkey, d.Ciphertext, d.Commitment)
	appendPoint(t, "Y0", Y0)
	appendPoint(t, "Y1", Y1)
	appendPoint(t, "Y2", Y2)
	c, err := challengeScalar(t, "c")
	if err != nil {
		return err
	}

	// zs*P == c*H + Y0
	lhs := ristretto255.NewElement().ScalarMult(zs, P)
	rhs := ristretto255.NewElement().ScalarMult(c, H)
	rhs.Add(rhs, Y0)
	if lhs.Equal(rhs) != 1 {
		return ErrProofVerification
	}

	// zx*G + zs*D == c*C + Y1
	lhs = ristretto255.NewElement().ScalarBaseMult(zx)
	lhs.Add(lhs, ristretto255.NewElement().ScalarMult(zs, D))
	rhs = ristretto255.NewElement().ScalarMult(c, C)
	rhs.Add(rhs, Y1)
	if lhs.Equal(rhs) != 1 {
		return ErrProofVerification
	}

	// zx*G + zr*H == c*Ct + Y2
	lhs = ristretto255.NewElement().ScalarBaseMult(zx)
	lhs.Add(lhs, ristretto255.NewElement().ScalarMult(zr, H))
	rhs = ristretto255.NewElement().ScalarMult(c, Ct)
	rhs.Add(rhs, Y2)
	if lhs.Equal(rhs) != 1 {
		return ErrProofVerification
	}
	return nil
}

func newEqualityTranscript(pub elgamal.PublicKey, ct elgamal.Ciphertext, commitment elgamal.Commitment) *merlin.Transcript {
	t := merlin.NewTranscript("ciphertext-commitment-equality-proof")
	t.AppendMessage([]byte("pubkey"), pub[:])
	raw := ct.Bytes()
	t.AppendMessage([]byte("ciphertext"), raw[:])
	t.AppendMessage([]byte("commitment"), commitment[:])
	return t
}
