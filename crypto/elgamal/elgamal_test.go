package elgamal

import (
	"bytes"
	"crypto/ed25519"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}

	for _, amount := range []uint64{0, 1, 42, 65535, 70000} {
		ct, _, err := kp.Public().Encrypt(amount)
		if err != nil {
			t.Fatalf("Encrypt(%d): %v", amount, err)
		}
		got, found, err := kp.Secret().DecryptWithin(ct, 1<<17)
		if err != nil {
			t.Fatalf("DecryptWithin(%d): %v", amount, err)
		}
		if !found {
			t.Fatalf("amount %d not found in search window", amount)
		}
		if got != amount {
			t.Errorf("decrypted %d, want %d", got, amount)
		}
	}
}

func TestDecryptOutsideWindow(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	ct, _, err := kp.Public().Encrypt(100000)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	_, found, err := kp.Secret().DecryptWithin(ct, 1<<16)
	if err != nil {
		t.Fatalf("DecryptWithin: %v", err)
	}
	if found {
		t.Fatal("amount above the window must not be found")
	}
}

func TestDecryptWrongKey(t *testing.T) {
	alice, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	bob, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	ct, _, err := alice.Public().Encrypt(7)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	got, found, err := bob.Secret().DecryptWithin(ct, 1<<10)
	if err != nil {
		t.Fatalf("DecryptWithin: %v", err)
	}
	if found && got == 7 {
		t.Fatal("wrong key decrypted the correct amount")
	}
}

func TestCiphertextCommitmentMatchesPedersen(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	opening, err := NewOpening()
	if err != nil {
		t.Fatalf("NewOpening: %v", err)
	}

	const amount = 1234
	ct, err := kp.Public().EncryptWith(amount, opening)
	if err != nil {
		t.Fatalf("EncryptWith: %v", err)
	}
	commitment, err := Commit(amount, opening)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if ct.Commitment != commitment {
		t.Fatal("ciphertext commitment differs from Pedersen commitment under the same opening")
	}
}

func TestZeroCiphertextSentinel(t *testing.T) {
	var ct Ciphertext
	if !ct.IsZero() {
		t.Fatal("zero-valued ciphertext must report IsZero")
	}
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	enc, _, err := kp.Public().Encrypt(0)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if enc.IsZero() {
		t.Fatal("a real encryption of zero is blinded and must not be all-zero bytes")
	}
}

func TestCiphertextBytesRoundTrip(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	ct, _, err := kp.Public().Encrypt(99)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	raw := ct.Bytes()
	back, err := CiphertextFromBytes(raw[:])
	if err != nil {
		t.Fatalf("CiphertextFromBytes: %v", err)
	}
	if back != ct {
		t.Fatal("round-trip changed the ciphertext")
	}
	if _, err := CiphertextFromBytes(raw[:63]); err == nil {
		t.Fatal("short input must be rejected")
	}
}

func TestKeypairFromSecretBytes(t *testing.T) {
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	secret := kp.SecretBytes()
	back, err := KeypairFromSecretBytes(secret[:])
	if err != nil {
		t.Fatalf("KeypairFromSecretBytes: %v", err)
	}
	if back.Public() != kp.Public() {
		t.Fatal("rebuilt keypair has a different public key")
	}

	var zero [32]byte
	if _, err := KeypairFromSecretBytes(zero[:]); err == nil {
		t.Fatal("zero secret scalar must be rejected")
	}
}

func TestDeriveKeypairDeterministic(t *testing.T) {
	_, signer, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	a, err := DeriveKeypair(signer, nil)
	if err != nil {
		t.Fatalf("DeriveKeypair: %v", err)
	}
	b, err := DeriveKeypair(signer, nil)
	if err != nil {
		t.Fatalf("DeriveKeypair: %v", err)
	}
	if a.Public() != b.Public() {
		t.Fatal("derivation is not deterministic")
	}

	c, err := DeriveKeypair(signer, []byte("other-account"))
	if err != nil {
		t.Fatalf("DeriveKeypair with domain: %v", err)
	}
	if c.Public() == a.Public() {
		t.Fatal("distinct domains must derive distinct keys")
	}

	_, other, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	d, err := DeriveKeypair(other, nil)
	if err != nil {
		t.Fatalf("DeriveKeypair: %v", err)
	}
	if d.Public() == a.Public() {
		t.Fatal("distinct signers must derive distinct keys")
	}
}

func TestPublicKeyFromBytes(t *testing.T) {
	if _, err := PublicKeyFromBytes(bytes.Repeat([]byte{1}, 31)); err == nil {
		t.Fatal("short public key must be rejected")
	}
	kp, err := NewKeypair()
	if err != nil {
		t.Fatalf("NewKeypair: %v", err)
	}
	pub := kp.Public()
	back, err := PublicKeyFromBytes(pub[:])
	if err != nil {
		t.Fatalf("PublicKeyFromBytes: %v", err)
	}
	if back != pub {
		t.Fatal("round-trip changed the public key")
	}
	if _, err := back.Decompress(); err != nil {
		t.Fatalf("Decompress: %v", err)
	}
}
