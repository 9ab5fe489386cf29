// Package elgamal implements the twisted ElGamal scheme over ristretto255
// that backs confidential token balances.
//
// A ciphertext splits into a Pedersen commitment to the amount and a
// decryption handle that binds the commitment's blinding factor to a public
// key. Commitments under different keys can therefore be compared and summed
// while only the key holder can recover the amount.
package elgamal

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/sha3"
)

const (
	// PublicKeySize is the length of a compressed public key.
	PublicKeySize = 32
	// CiphertextSize is the length of a compressed ciphertext
	// (commitment followed by handle).
	CiphertextSize = 64
	// CommitmentSize is the length of a compressed Pedersen commitment.
	CommitmentSize = 32

	scalarSize = 32
)

var (
	ErrInvalidPublicKey  = errors.New("elgamal: invalid public key")
	ErrInvalidSecretKey  = errors.New("elgamal: invalid secret key")
	ErrInvalidCiphertext = errors.New("elgamal: invalid ciphertext")
	ErrInvalidScalar     = errors.New("elgamal: invalid scalar value")
	ErrZeroSecretKey     = errors.New("elgamal: secret key scalar must not be zero")
)

// PublicKey is a compressed ristretto255 point P = s^-1 * H.
type PublicKey [PublicKeySize]byte

// SecretKey wraps the secret scalar s.
type SecretKey struct {
	s *ristretto255.Scalar
}

// Keypair holds a secret scalar and its derived public key.
type Keypair struct {
	secret *ristretto255.Scalar
	public *ristretto255.Element
}

// Opening is the Pedersen blinding factor of a commitment or ciphertext.
type Opening struct {
	r *ristretto255.Scalar
}

// Commitment is a compressed Pedersen commitment C = x*G + r*H.
type Commitment [CommitmentSize]byte

// Ciphertext is a compressed twisted ElGamal ciphertext: the Pedersen
// commitment to the amount and the decryption handle D = r*P.
type Ciphertext struct {
	Commitment Commitment
	Handle     [32]byte
}

var (
	blindingBaseOnce sync.Once
	blindingBase     *ristretto255.Element
	blindingBaseErr  error
)

// blindingPoint returns the Pedersen blinding base H, derived by hashing the
// compressed standard generator to a point. Shared by every keypair.
func blindingPoint() (*ristretto255.Element, error) {
	blindingBaseOnce.Do(func() {
		base := ristretto255.NewGeneratorElement()
		digest := sha3.Sum512(base.Encode(nil))
		point := ristretto255.NewElement()
		if _, err := point.SetUniformBytes(digest[:]); err != nil {
			blindingBaseErr = err
			return
		}
		blindingBase = point
	})

	if blindingBaseErr != nil {
		return nil, blindingBaseErr
	}
	if blindingBase == nil {
		return nil, errors.New("elgamal: blinding base is nil")
	}
	return ristretto255.NewElement().Set(blindingBase), nil
}

// BlindingPoint returns a copy of the Pedersen blinding base H for callers
// that build proofs over commitments.
func BlindingPoint() (*ristretto255.Element, error) {
	return blindingPoint()
}

// RandomScalar draws a random non-zero scalar.
func RandomScalar() (*ristretto255.Scalar, error) {
	return randomScalarNonZero()
}

// AmountScalar maps a uint64 amount to its scalar representative.
func AmountScalar(v uint64) *ristretto255.Scalar {
	return scalarFromUint64(v)
}

// NewKeypair generates a keypair from a fresh random scalar.
func NewKeypair() (*Keypair, error) {
	secret, err := randomScalarNonZero()
	if err != nil {
		return nil, err
	}
	return keypairFromSecretScalar(secret)
}

// KeypairFromSecretBytes rebuilds a keypair from a 32-byte canonical scalar.
func KeypairFromSecretBytes(raw []byte) (*Keypair, error) {
	if len(raw) != scalarSize {
		return nil, ErrInvalidSecretKey
	}
	secret, err := canonicalScalar(raw)
	if err != nil {
		return nil, err
	}
	if isZeroScalar(secret) {
		return nil, ErrZeroSecretKey
	}
	return keypairFromSecretScalar(secret)
}

func keypairFromSecretScalar(secret *ristretto255.Scalar) (*Keypair, error) {
	H, err := blindingPoint()
	if err != nil {
		return nil, err
	}
	inv := ristretto255.NewScalar().Invert(secret)
	public := ristretto255.NewElement().ScalarMult(inv, H)
	return &Keypair{secret: secret, public: public}, nil
}

// Public returns the compressed public key.
func (k *Keypair) Public() PublicKey {
	var out PublicKey
	copy(out[:], k.public.Encode(nil))
	return out
}

// Secret returns the secret key.
func (k *Keypair) Secret() SecretKey {
	return SecretKey{s: k.secret}
}

// SecretBytes returns the canonical encoding of the secret scalar.
func (k *Keypair) SecretBytes() [scalarSize]byte {
	var out [scalarSize]byte
	copy(out[:], k.secret.Bytes())
	return out
}

// PublicKeyFromBytes validates the length of a compressed public key. The
// point itself is decompressed lazily by operations that need it.
func PublicKeyFromBytes(raw []byte) (PublicKey, error) {
	if len(raw) != PublicKeySize {
		return PublicKey{}, ErrInvalidPublicKey
	}
	var key PublicKey
	copy(key[:], raw)
	return key, nil
}

// Decompress decodes the public key to a group element.
func (pk PublicKey) Decompress() (*ristretto255.Element, error) {
	point := ristretto255.NewElement()
	if err := point.Decode(pk[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return point, nil
}

// Bytes returns the compressed public key.
func (pk PublicKey) Bytes() [PublicKeySize]byte {
	return pk
}

// IsZero reports whether the key is the all-zero placeholder.
func (pk PublicKey) IsZero() bool {
	return pk == PublicKey{}
}

// NewOpening draws a random non-zero blinding factor.
func NewOpening() (*Opening, error) {
	r, err := randomScalarNonZero()
	if err != nil {
		return nil, err
	}
	return &Opening{r: r}, nil
}

// OpeningFromBytes rebuilds an opening from its canonical scalar encoding.
func OpeningFromBytes(raw []byte) (*Opening, error) {
	if len(raw) != scalarSize {
		return nil, ErrInvalidScalar
	}
	r, err := canonicalScalar(raw)
	if err != nil {
		return nil, err
	}
	return &Opening{r: r}, nil
}

// Bytes returns the canonical encoding of the blinding scalar.
func (o *Opening) Bytes() [scalarSize]byte {
	var out [scalarSize]byte
	copy(out[:], o.r.Bytes())
	return out
}

// Scalar exposes the blinding scalar for proof construction.
func (o *Opening) Scalar() *ristretto255.Scalar {
	return ristretto255.NewScalar().Add(ristretto255.NewScalar(), o.r)
}

// Commit computes the Pedersen commitment amount*G + r*H.
func Commit(amount uint64, o *Opening) (Commitment, error) {
	point, err := commitPoint(amount, o.r)
	if err != nil {
		return Commitment{}, err
	}
	var out Commitment
	copy(out[:], point.Encode(nil))
	return out, nil
}

// NewCommitment commits to amount under a fresh opening.
func NewCommitment(amount uint64) (Commitment, *Opening, error) {
	opening, err := NewOpening()
	if err != nil {
		return Commitment{}, nil, err
	}
	commitment, err := Commit(amount, opening)
	if err != nil {
		return Commitment{}, nil, err
	}
	return commitment, opening, nil
}

// Decompress decodes the commitment to a group element.
func (c Commitment) Decompress() (*ristretto255.Element, error) {
	point := ristretto255.NewElement()
	if err := point.Decode(c[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCiphertext, err)
	}
	return point, nil
}

// EncryptWith encrypts amount under pk using the caller's opening. The
// resulting commitment equals Commit(amount, o), so the same opening can
// later feed an equality proof.
func (pk PublicKey) EncryptWith(amount uint64, o *Opening) (Ciphertext, error) {
	point, err := pk.Decompress()
	if err != nil {
		return Ciphertext{}, err
	}
	commitment, err := commitPoint(amount, o.r)
	if err != nil {
		return Ciphertext{}, err
	}
	handle := ristretto255.NewElement().ScalarMult(o.r, point)

	var ct Ciphertext
	copy(ct.Commitment[:], commitment.Encode(nil))
	copy(ct.Handle[:], handle.Encode(nil))
	return ct, nil
}

// Encrypt encrypts amount under pk with a fresh opening.
func (pk PublicKey) Encrypt(amount uint64) (Ciphertext, *Opening, error) {
	opening, err := NewOpening()
	if err != nil {
		return Ciphertext{}, nil, err
	}
	ct, err := pk.EncryptWith(amount, opening)
	if err != nil {
		return Ciphertext{}, nil, err
	}
	return ct, opening, nil
}

// DecryptToPoint strips the blinding from the ciphertext, returning the
// message point amount*G. Recovering the amount itself requires a discrete
// log search, see SolveDiscreteLog.
func (sk SecretKey) DecryptToPoint(ct Ciphertext) (*ristretto255.Element, error) {
	commitment := ristretto255.NewElement()
	if err := commitment.Decode(ct.Commitment[:]); err != nil {
		return nil, fmt.Errorf("%w: commitment: %v", ErrInvalidCiphertext, err)
	}
	handle := ristretto255.NewElement()
	if err := handle.Decode(ct.Handle[:]); err != nil {
		return nil, fmt.Errorf("%w: handle: %v", ErrInvalidCiphertext, err)
	}
	masked := ristretto255.NewElement().ScalarMult(sk.s, handle)
	return ristretto255.NewElement().Subtract(commitment, masked), nil
}

// DecryptWithin decrypts the ciphertext and searches for the amount in
// [0, maxAmount]. found is false when the amount lies outside the window.
func (sk SecretKey) DecryptWithin(ct Ciphertext, maxAmount uint64) (amount uint64, found bool, err error) {
	point, err := sk.DecryptToPoint(ct)
	if err != nil {
		return 0, false, err
	}
	return SolveDiscreteLog(point, maxAmount)
}

// Scalar exposes the secret scalar for proof construction.
func (sk SecretKey) Scalar() *ristretto255.Scalar {
	return ristretto255.NewScalar().Add(ristretto255.NewScalar(), sk.s)
}

// CiphertextFromBytes splits a 64-byte compressed ciphertext. The component
// points are not validated here; decryption reports malformed points.
func CiphertextFromBytes(raw []byte) (Ciphertext, error) {
	if len(raw) != CiphertextSize {
		return Ciphertext{}, ErrInvalidCiphertext
	}
	var ct Ciphertext
	copy(ct.Commitment[:], raw[:32])
	copy(ct.Handle[:], raw[32:])
	return ct, nil
}

// Bytes returns the 64-byte compressed encoding.
func (ct Ciphertext) Bytes() [CiphertextSize]byte {
	var out [CiphertextSize]byte
	copy(out[:32], ct.Commitment[:])
	copy(out[32:], ct.Handle[:])
	return out
}

// IsZero reports whether every byte of the ciphertext is zero. The all-zero
// ciphertext is the ledger's sentinel for a balance of exactly zero.
func (ct Ciphertext) IsZero() bool {
	return ct == Ciphertext{}
}

// SubAmount homomorphically subtracts a plain amount: the commitment drops
// by amount*G while the handle is unchanged. Decrypting the result yields
// the original amount minus the subtrahend.
func (ct Ciphertext) SubAmount(amount uint64) (Ciphertext, error) {
	commitment := ristretto255.NewElement()
	if err := commitment.Decode(ct.Commitment[:]); err != nil {
		return Ciphertext{}, fmt.Errorf("%w: commitment: %v", ErrInvalidCiphertext, err)
	}
	value := ristretto255.NewElement().ScalarBaseMult(scalarFromUint64(amount))
	commitment.Subtract(commitment, value)

	out := ct
	copy(out.Commitment[:], commitment.Encode(nil))
	return out, nil
}

func commitPoint(amount uint64, r *ristretto255.Scalar) (*ristretto255.Element, error) {
	H, err := blindingPoint()
	if err != nil {
		return nil, err
	}
	value := ristretto255.NewElement().ScalarBaseMult(scalarFromUint64(amount))
	blind := ristretto255.NewElement().ScalarMult(r, H)
	return ristretto255.NewElement().Add(value, blind), nil
}

func scalarFromUint64(v uint64) *ristretto255.Scalar {
	var raw [scalarSize]byte
	binary.LittleEndian.PutUint64(raw[:8], v)
	s := ristretto255.NewScalar()
	// A little-endian uint64 is always below the group order.
	if _, err := s.SetCanonicalBytes(raw[:]); err != nil {
		panic("elgamal: uint64 scalar out of range: " + err.Error())
	}
	return s
}

func canonicalScalar(raw []byte) (*ristretto255.Scalar, error) {
	s := ristretto255.NewScalar()
	if _, err := s.SetCanonicalBytes(raw); err != nil {
		return nil, ErrInvalidScalar
	}
	return s, nil
}

func isZeroScalar(s *ristretto255.Scalar) bool {
	for _, b := range s.Bytes() {
		if b != 0 {
			return false
		}
	}
	return true
}

func randomScalarNonZero() (*ristretto255.Scalar, error) {
	for {
		var seed [64]byte
		if _, err := rand.Read(seed[:]); err != nil {
			return nil, err
		}
		s := ristretto255.NewScalar()
		if _, err := s.SetUniformBytes(seed[:]); err != nil {
			return nil, err
		}
		if !isZeroScalar(s) {
			return s, nil
		}
	}
}
