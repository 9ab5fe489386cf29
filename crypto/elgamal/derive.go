package elgamal

import (
	"crypto/ed25519"
	"errors"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/sha3"
)

// Derivation binds the ElGamal key to the holder's wallet key: the wallet
// signs a fixed message and the signature is widened to the secret scalar.
// The same signer and domain always yield the same keypair.
const keyDerivationMessage = "ElGamalSecretKey"

// DeriveKeypair deterministically derives a keypair from an ed25519 signer.
// domain distinguishes keys for different token accounts of one wallet; it
// may be empty.
func DeriveKeypair(signer ed25519.PrivateKey, domain []byte) (*Keypair, error) {
	if len(signer) != ed25519.PrivateKeySize {
		return nil, errors.New("elgamal: signer must be a 64-byte ed25519 private key")
	}
	message := make([]byte, 0, len(keyDerivationMessage)+len(domain))
	message = append(message, keyDerivationMessage...)
	message = append(message, domain...)
	signature := ed25519.Sign(signer, message)

	seed := sha3.Sum512(signature)
	secret := ristretto255.NewScalar()
	if _, err := secret.SetUniformBytes(seed[:]); err != nil {
		return nil, err
	}
	if isZeroScalar(secret) {
		// Unreachable in practice; a zero scalar has no inverse.
		return nil, ErrZeroSecretKey
	}
	return keypairFromSecretScalar(secret)
}
