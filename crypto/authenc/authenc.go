// Package authenc provides the symmetric authenticated encryption used for
// the decryptable available balance. The ledger only sees an opaque 36-byte
// slot; the account owner keeps a cheap-to-decrypt copy of the balance there
// so that spending does not require a discrete log search.
package authenc

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/sha3"
)

const (
	// KeySize is the length of the symmetric key.
	KeySize = 32
	// CiphertextSize is the fixed wire size: nonce, 8-byte ciphertext, tag.
	CiphertextSize = chacha20poly1305.NonceSize + 8 + chacha20poly1305.Overhead
)

var (
	ErrInvalidKey        = errors.New("authenc: invalid key")
	ErrInvalidCiphertext = errors.New("authenc: invalid ciphertext")
	// ErrAuthFailure reports a ciphertext that does not authenticate under
	// the key, typically because it was written under a different key.
	ErrAuthFailure = errors.New("authenc: ciphertext failed authentication")
)

const keyDerivationMessage = "AeKey"

// Key is a symmetric authenticated encryption key.
type Key [KeySize]byte

// Ciphertext is the fixed-size encryption of a uint64 amount.
type Ciphertext [CiphertextSize]byte

// DeriveKey deterministically derives a key from an ed25519 signer, using
// the same sign-then-hash construction as the ElGamal keypair derivation.
func DeriveKey(signer ed25519.PrivateKey, domain []byte) (Key, error) {
	if len(signer) != ed25519.PrivateKeySize {
		return Key{}, errors.New("authenc: signer must be a 64-byte ed25519 private key")
	}
	message := make([]byte, 0, len(keyDerivationMessage)+len(domain))
	message = append(message, keyDerivationMessage...)
	message = append(message, domain...)
	signature := ed25519.Sign(signer, message)
	return Key(sha3.Sum256(signature)), nil
}

// KeyFromBytes validates the length of a raw key.
func KeyFromBytes(raw []byte) (Key, error) {
	if len(raw) != KeySize {
		return Key{}, ErrInvalidKey
	}
	var key Key
	copy(key[:], raw)
	return key, nil
}

// Encrypt seals amount under a fresh random nonce.
func (k Key) Encrypt(amount uint64) (Ciphertext, error) {
	aead, err := chacha20poly1305.New(k[:])
	if err != nil {
		return Ciphertext{}, err
	}
	var out Ciphertext
	if _, err := rand.Read(out[:chacha20poly1305.NonceSize]); err != nil {
		return Ciphertext{}, err
	}
	var plaintext [8]byte
	binary.LittleEndian.PutUint64(plaintext[:], amount)
	aead.Seal(out[chacha20poly1305.NonceSize:chacha20poly1305.NonceSize], out[:chacha20poly1305.NonceSize], plaintext[:], nil)
	return out, nil
}

// Decrypt opens the ciphertext and returns the amount. A ciphertext sealed
// under a different key fails with ErrAuthFailure.
func (k Key) Decrypt(ct Ciphertext) (uint64, error) {
	aead, err := chacha20poly1305.New(k[:])
	if err != nil {
		return 0, err
	}
	plaintext, err := aead.Open(nil, ct[:chacha20poly1305.NonceSize], ct[chacha20poly1305.NonceSize:], nil)
	if err != nil {
		return 0, ErrAuthFailure
	}
	if len(plaintext) != 8 {
		return 0, ErrInvalidCiphertext
	}
	return binary.LittleEndian.Uint64(plaintext), nil
}

// CiphertextFromBytes validates the length of a raw ciphertext.
func CiphertextFromBytes(raw []byte) (Ciphertext, error) {
	if len(raw) != CiphertextSize {
		return Ciphertext{}, ErrInvalidCiphertext
	}
	var ct Ciphertext
	copy(ct[:], raw)
	return ct, nil
}

// Bytes returns the wire encoding.
func (ct Ciphertext) Bytes() [CiphertextSize]byte {
	return ct
}

// IsZero reports whether every byte of the ciphertext is zero.
func (ct Ciphertext) IsZero() bool {
	return ct == Ciphertext{}
}
