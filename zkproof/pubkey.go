package zkproof

import (
	"fmt"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/tos-network/ctoken/crypto/elgamal"
)

const (
	pubkeyContextSize = 32
	pubkeyProofSize   = 64
	// PubkeyValidityDataSize is context plus proof body.
	PubkeyValidityDataSize = pubkeyContextSize + pubkeyProofSize
)

// PubkeyValidityProof proves knowledge of the secret scalar s behind a
// public key P = s^-1 * H, i.e. that s*P = H. Schnorr proof on base P.
type PubkeyValidityProof struct {
	y [32]byte // announcement Y = y*P
	z [32]byte // response z = c*s + y
}

// PubkeyValidityProofData is the proof together with its public statement.
type PubkeyValidityProofData struct {
	Pubkey elgamal.PublicKey
	Proof  PubkeyValidityProof
}

// NewPubkeyValidityProofData proves that the keypair's public key was
// produced from a known, invertible secret scalar.
func NewPubkeyValidityProofData(kp *elgamal.Keypair) (*PubkeyValidityProofData, error) {
	pub := kp.Public()
	P, err := pub.Decompress()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}

	t := newPubkeyTranscript(pub)
	y, err := elgamal.RandomScalar()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	Y := ristretto255.NewElement().ScalarMult(y, P)
	appendPoint(t, "Y", Y)

	c, err := challengeScalar(t, "c")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	z := ristretto255.NewScalar().Multiply(c, kp.Secret().Scalar())
	z.Add(z, y)

	data := &PubkeyValidityProofData{Pubkey: pub}
	copy(data.Proof.y[:], Y.Encode(nil))
	copy(data.Proof.z[:], z.Bytes())
	return data, nil
}

func (d *PubkeyValidityProofData) Opcode() Opcode { return OpVerifyPubkeyValidity }

func (d *PubkeyValidityProofData) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, PubkeyValidityDataSize)
	out = append(out, d.Pubkey[:]...)
	out = append(out, d.Proof.y[:]...)
	out = append(out, d.Proof.z[:]...)
	return out, nil
}

// ParsePubkeyValidityProofData decodes a proof datum.
func ParsePubkeyValidityProofData(raw []byte) (*PubkeyValidityProofData, error) {
	if len(raw) != PubkeyValidityDataSize {
		return nil, ErrMalformedProof
	}
	data := &PubkeyValidityProofData{}
	copy(data.Pubkey[:], raw[:32])
	copy(data.Proof.y[:], raw[32:64])
	copy(data.Proof.z[:], raw[64:96])
	return data, nil
}

// Verify checks z*P == c*H + Y.
func (d *PubkeyValidityProofData) Verify() error {
	P, err := d.Pubkey.Decompress()
	if err != nil {
		return ErrProofVerification
	}
	Y, err := decodePoint(d.Proof.y[:])
	if err != nil {
		return ErrProofVerification
	}
	z, err := decodeScalar(d.Proof.z[:])
	if err != nil {
		return ErrProofVerification
	}
	H, err := elgamal.BlindingPoint()
	if err != nil {
		return err
	}

	t := newPubkeyTranscript(d.Pubkey)
	appendPoint(t, "Y", Y)
	c, err := challengeScalar(t, "c")
	if err != nil {
		return err
	}

	lhs := ristretto255.NewElement().ScalarMult(z, P)
	rhs := ristretto255.NewElement().ScalarMult(c, H)
	rhs.Add(rhs, Y)
	if lhs.Equal(rhs) != 1 {
		return ErrProofVerification
	}
	return nil
}

func newPubkeyTranscript(pub elgamal.PublicKey) *merlin.Transcript {
	t := merlin.NewTranscript("pubkey-validity-proof")
	t.AppendMessage([]byte("pubkey"), pub[:])
	return t
}
