package zkproof

import (
	"fmt"

	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"

	"github.com/tos-network/ctoken/crypto/elgamal"
)

const (
	// MaxRangeProofCommitments is the batch capacity of one proof.
	MaxRangeProofCommitments = 8
	// RangeProofTotalBits is the required sum of batch bit lengths.
	RangeProofTotalBits = 64

	rangeContextSize = MaxRangeProofCommitments*32 + MaxRangeProofCommitments
	bitProofSize     = 6 * 32
)

// bitProof shows that one bit commitment V hides 0 or 1: an OR composition
// of two Schnorr proofs on base H, one per branch, with split challenges.
// c1 is reconstructed by the verifier as c - c0.
type bitProof struct {
	v  [32]byte // bit commitment V = b*G + gamma*H
	a0 [32]byte // announcement for the b=0 branch
	a1 [32]byte // announcement for the b=1 branch
	c0 [32]byte // challenge share of the b=0 branch
	z0 [32]byte // response of the b=0 branch
	z1 [32]byte // response of the b=1 branch
}

// RangeItem is one commitment in a batch: the amount, its claimed bit
// length, and the commitment with its opening.
type RangeItem struct {
	Amount     uint64
	BitLength  int
	Commitment elgamal.Commitment
	Opening    *elgamal.Opening
}

// BatchedRangeProofU64Data proves that every commitment in the batch hides
// an amount within its claimed bit length. Bit lengths must sum to 64.
//
// Each amount is decomposed into per-bit Pedersen commitments whose
// blinding factors recombine to the original opening, so the weighted sum
// of bit commitments equals the batch commitment. Each bit commitment
// carries an OR proof that it hides 0 or 1.
type BatchedRangeProofU64Data struct {
	Commitments []elgamal.Commitment
	BitLengths  []uint8
	proofs      [][]bitProof
}

// NewBatchedRangeProofU64Data builds a range proof over the batch.
func NewBatchedRangeProofU64Data(items []RangeItem) (*BatchedRangeProofU64Data, error) {
	if len(items) == 0 || len(items) > MaxRangeProofCommitments {
		return nil, fmt.Errorf("%w: batch of %d commitments", ErrProofConstruction, len(items))
	}
	total := 0
	for _, item := range items {
		if item.BitLength < 1 || item.BitLength > 64 {
			return nil, fmt.Errorf("%w: bit length %d", ErrProofConstruction, item.BitLength)
		}
		if item.BitLength < 64 && item.Amount >= uint64(1)<<uint(item.BitLength) {
			return nil, fmt.Errorf("%w: amount %d exceeds %d bits", ErrProofConstruction, item.Amount, item.BitLength)
		}
		total += item.BitLength
	}
	if total != RangeProofTotalBits {
		return nil, fmt.Errorf("%w: batch bit lengths sum to %d, want %d", ErrProofConstruction, total, RangeProofTotalBits)
	}

	H, err := elgamal.BlindingPoint()
	if err != nil {
		return nil, err
	}
	G := ristretto255.NewGeneratorElement()

	data := &BatchedRangeProofU64Data{
		Commitments: make([]elgamal.Commitment, len(items)),
		BitLengths:  make([]uint8, len(items)),
		proofs:      make([][]bitProof, len(items)),
	}
	for i, item := range items {
		data.Commitments[i] = item.Commitment
		data.BitLengths[i] = uint8(item.BitLength)
	}

	t := newRangeTranscript(data.Commitments, data.BitLengths)

	for i, item := range items {
		blindings, err := splitOpening(item.Opening, item.BitLength)
		if err != nil {
			return nil, err
		}
		proofs := make([]bitProof, item.BitLength)
		for j := 0; j < item.BitLength; j++ {
			bit := (item.Amount >> uint(j)) & 1
			bp, err := proveBit(t, bit == 1, blindings[j], G, H)
			if err != nil {
				return nil, err
			}
			proofs[j] = bp
		}
		data.proofs[i] = proofs
	}
	return data, nil
}

// proveBit emits one OR proof. The real branch is proven with a fresh
// nonce; the other branch is simulated with a random challenge share and
// response before the overall challenge is known.
func proveBit(t *merlin.Transcript, bitSet bool, gamma *ristretto255.Scalar, G, H *ristretto255.Element) (bitProof, error) {
	var bp bitProof

	V := ristretto255.NewElement().ScalarMult(gamma, H)
	if bitSet {
		V.Add(V, G)
	}
	// Shifted statement for the b=1 branch: V - G = gamma*H.
	VminusG := ristretto255.NewElement().Subtract(V, G)

	y, err := elgamal.RandomScalar()
	if err != nil {
		return bp, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	cSim, err := elgamal.RandomScalar()
	if err != nil {
		return bp, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}
	zSim, err := elgamal.RandomScalar()
	if err != nil {
		return bp, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}

	var A0, A1 *ristretto255.Element
	if bitSet {
		// Simulate branch 0: A0 = zSim*H - cSim*V.
		A0 = ristretto255.NewElement().ScalarMult(zSim, H)
		A0.Subtract(A0, ristretto255.NewElement().ScalarMult(cSim, V))
		A1 = ristretto255.NewElement().ScalarMult(y, H)
	} else {
		A0 = ristretto255.NewElement().ScalarMult(y, H)
		// Simulate branch 1: A1 = zSim*H - cSim*(V - G).
		A1 = ristretto255.NewElement().ScalarMult(zSim, H)
		A1.Subtract(A1, ristretto255.NewElement().ScalarMult(cSim, VminusG))
	}

	appendPoint(t, "V", V)
	appendPoint(t, "A0", A0)
	appendPoint(t, "A1", A1)
	c, err := challengeScalar(t, "c")
	if err != nil {
		return bp, fmt.Errorf("%w: %v", ErrProofConstruction, err)
	}

	var c0, z0, z1 *ristretto255.Scalar
	if bitSet {
		c0 = cSim
		z0 = zSim
		c1 := ristretto255.NewScalar().Subtract(c, cSim)
		z1 = ristretto255.NewScalar().Multiply(c1, gamma)
		z1.Add(z1, y)
	} else {
		c1 := cSim
		z1 = zSim
		c0 = ristretto255.NewScalar().Subtract(c, c1)
		z0 = ristretto255.NewScalar().Multiply(c0, gamma)
		z0.Add(z0, y)
	}

	copy(bp.v[:], V.Encode(nil))
	copy(bp.a0[:], A0.Encode(nil))
	copy(bp.a1[:], A1.Encode(nil))
	copy(bp.c0[:], c0.Bytes())
	copy(bp.z0[:], z0.Bytes())
	copy(bp.z1[:], z1.Bytes())
	return bp, nil
}

// splitOpening derives per-bit blinding factors whose weighted sum equals
// the opening: random for all bits but the last, which absorbs the rest.
func splitOpening(opening *elgamal.Opening, bits int) ([]*ristretto255.Scalar, error) {
	out := make([]*ristretto255.Scalar, bits)
	acc := ristretto255.NewScalar() // sum of 2^j * gamma_j over the random bits
	for j := 0; j < bits-1; j++ {
		gamma, err := elgamal.RandomScalar()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProofConstruction, err)
		}
		out[j] = gamma
		weighted := ristretto255.NewScalar().Multiply(elgamal.AmountScalar(uint64(1)<<uint(j)), gamma)
		acc.Add(acc, weighted)
	}
	last := ristretto255.NewScalar().Subtract(opening.Scalar(), acc)
	weight := ristretto255.NewScalar().Invert(elgamal.AmountScalar(uint64(1) << uint(bits-1)))
	out[bits-1] = last.Multiply(last, weight)
	return out, nil
}

func (d *BatchedRangeProofU64Data) Opcode() Opcode { return OpVerifyBatchedRangeProofU64 }

func (d *BatchedRangeProofU64Data) MarshalBinary() ([]byte, error) {
	size := rangeContextSize
	for _, proofs := range d.proofs {
		size += len(proofs) * bitProofSize
	}
	out := make([]byte, 0, size)
	for i := 0; i < MaxRangeProofCommitments; i++ {
		var c elgamal.Commitment
		if i < len(d.Commitments) {
			c = d.Commitments[i]
		}
		out = append(out, c[:]...)
	}
	for i := 0; i < MaxRangeProofCommitments; i++ {
		var b uint8
		if i < len(d.BitLengths) {
			b = d.BitLengths[i]
		}
		out = append(out, b)
	}
	for _, proofs := range d.proofs {
		for _, bp := range proofs {
			out = append(out, bp.v[:]...)
			out = append(out, bp.a0[:]...)
			out = append(out, bp.a1[:]...)
			out = append(out, bp.c0[:]...)
			out = append(out, bp.z0[:]...)
			out = append(out, bp.z1[:]...)
		}
	}
	return out, nil
}

// ParseBatchedRangeProofU64Data decodes a proof datum. The context's bit
// lengths determine how many bit proofs follow.
func ParseBatchedRangeProofU64Data(raw []byte) (*BatchedRangeProofU64Data, error) {
	if len(raw) < rangeContextSize {
		return nil, ErrMalformedProof
	}
	data := &BatchedRangeProofU64Data{}
	for i := 0; i < MaxRangeProofCommitments; i++ {
		bits := raw[MaxRangeProofCommitments*32+i]
		if bits == 0 {
			break
		}
		var c elgamal.Commitment
		copy(c[:], raw[i*32:(i+1)*32])
		data.Commitments = append(data.Commitments, c)
		data.BitLengths = append(data.BitLengths, bits)
	}
	body := raw[rangeContextSize:]
	for _, bits := range data.BitLengths {
		need := int(bits) * bitProofSize
		if len(body) < need {
			return nil, ErrMalformedProof
		}
		proofs := make([]bitProof, bits)
		for j := range proofs {
			seg := body[j*bitProofSize:]
			copy(proofs[j].v[:], seg[:32])
			copy(proofs[j].a0[:], seg[32:64])
			copy(proofs[j].a1[:], seg[64:96])
			copy(proofs[j].c0[:], seg[96:128])
			copy(proofs[j].z0[:], seg[128:160])
			copy(proofs[j].z1[:], seg[160:192])
		}
		data.proofs = append(data.proofs, proofs)
		body = body[need:]
	}
	if len(body) != 0 {
		return nil, ErrMalformedProof
	}
	return data, nil
}

// Verify replays the transcript, checks both branches of every bit proof,
// and checks that the weighted bit commitments recombine to each batch
// commitment.
func (d *BatchedRangeProofU64Data) Verify() error {
	if len(d.Commitments) == 0 ||
		len(d.Commitments) > MaxRangeProofCommitments ||
		len(d.Commitments) != len(d.BitLengths) ||
		len(d.Commitments) != len(d.proofs) {
		return ErrMalformedProof
	}
	total := 0
	for i, bits := range d.BitLengths {
		if bits == 0 || bits > 64 || len(d.proofs[i]) != int(bits) {
			return ErrMalformedProof
		}
		total += int(bits)
	}
	if total != RangeProofTotalBits {
		return ErrProofVerification
	}

	H, err := elgamal.BlindingPoint()
	if err != nil {
		return err
	}
	G := ristretto255.NewGeneratorElement()

	t := newRangeTranscript(d.Commitments, d.BitLengths)

	for i, proofs := range d.proofs {
		sum := ristretto255.NewIdentityElement()
		for j, bp := range proofs {
			V, err := decodePoint(bp.v[:])
			if err != nil {
				return ErrProofVerification
			}
			A0, err := decodePoint(bp.a0[:])
			if err != nil {
				return ErrProofVerification
			}
			A1, err := decodePoint(bp.a1[:])
			if err != nil {
				return ErrProofVerification
			}
			c0, err := decodeScalar(bp.c0[:])
			if err != nil {
				return ErrProofVerification
			}
			z0, err := decodeScalar(bp.z0[:])
			if err != nil {
				return ErrProofVerification
			}
			z1, err := decodeScalar(bp.z1[:])
			if err != nil {
				return ErrProofVerification
			}

			appendPoint(t, "V", V)
			appendPoint(t, "A0", A0)
			appendPoint(t, "A1", A1)
			c, err := challengeScalar(t, "c")
			if err != nil {
				return err
			}
			c1 := ristretto255.NewScalar().Subtract(c, c0)

			// z0*H == c0*V + A0
			lhs := ristretto255.NewElement().ScalarMult(z0, H)
			rhs := ristretto255.NewElement().ScalarMult(c0, V)
			rhs.Add(rhs, A0)
			if lhs.Equal(rhs) != 1 {
				return ErrProofVerification
			}

			// z1*H == c1*(V - G) + A1
			VminusG := ristretto255.NewElement().Subtract(V, G)
			lhs = ristretto255.NewElement().ScalarMult(z1, H)
			rhs = ristretto255.NewElement().ScalarMult(c1, VminusG)
			rhs.Add(rhs, A1)
			if lhs.Equal(rhs) != 1 {
				return ErrProofVerification
			}

			weighted := ristretto255.NewElement().ScalarMult(elgamal.AmountScalar(uint64(1)<<uint(j)), V)
			sum.Add(sum, weighted)
		}

		commitment, err := d.Commitments[i].Decompress()
		if err != nil {
			return ErrProofVerification
		}
		if sum.Equal(commitment) != 1 {
			return ErrProofVerification
		}
	}
	return nil
}

func newRangeTranscript(commitments []elgamal.Commitment, bitLengths []uint8) *merlin.Transcript {
	t := merlin.NewTranscript("batched-range-proof-u64")
	for i := 0; i < MaxRangeProofCommitments; i++ {
		var c elgamal.Commitment
		if i < len(commitments) {
			c = commitments[i]
		}
		t.AppendMessage([]byte("commitment"), c[:])
	}
	padded := make([]byte, MaxRangeProofCommitments)
	copy(padded, bitLengths)
	t.AppendMessage([]byte("bit-lengths"), padded)
	return t
}
