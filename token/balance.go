package token

import (
	"fmt"

	"github.com/tos-network/ctoken/crypto/authenc"
	"github.com/tos-network/ctoken/crypto/elgamal"
)

// The pending balance is credited in two ciphertexts: the low 16 bits of
// each deposit and the high 48 bits. Accumulated credits keep the low part
// within a 16-bit discrete log window and the high part within a 32-bit
// window, so decryption stays tractable.
const (
	PendingBalanceLoBits = 16
	// Search window bounds, inclusive.
	maxPendingBalanceLo = uint64(1)<<16 - 1
	maxPendingBalanceHi = uint64(1)<<32 - 1
)

// SplitPendingBalance splits a credit amount the way the ledger does
// before encrypting the two pending components.
func SplitPendingBalance(amount uint64) (lo, hi uint64) {
	return amount & maxPendingBalanceLo, amount >> PendingBalanceLoBits
}

// CombinePendingBalance recombines the decrypted low and high pending
// balance components.
func CombinePendingBalance(lo, hi uint64) uint64 {
	return lo | hi<<PendingBalanceLoBits
}

// DecryptPendingBalance recovers the total pending balance. An all-zero
// ciphertext decodes to zero without a discrete log search.
func (ext *ConfidentialTransferAccount) DecryptPendingBalance(sk elgamal.SecretKey) (uint64, error) {
	lo, err := decryptComponent(sk, ext.PendingBalanceLo, maxPendingBalanceLo, "pending balance lo")
	if err != nil {
		return 0, err
	}
	hi, err := decryptComponent(sk, ext.PendingBalanceHi, maxPendingBalanceHi, "pending balance hi")
	if err != nil {
		return 0, err
	}
	return CombinePendingBalance(lo, hi), nil
}

func decryptComponent(sk elgamal.SecretKey, ct elgamal.Ciphertext, maxAmount uint64, what string) (uint64, error) {
	if ct.IsZero() {
		return 0, nil
	}
	amount, found, err := sk.DecryptWithin(ct, maxAmount)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrBalanceUnsearchable, what)
	}
	return amount, nil
}

// DecryptAvailableBalance recovers the available balance from the cheap
// decryptable copy. An all-zero ElGamal available balance is the sentinel
// for zero and short-circuits the cipher entirely.
func (ext *ConfidentialTransferAccount) DecryptAvailableBalance(key authenc.Key) (uint64, error) {
	if ext.AvailableBalance.IsZero() {
		return 0, nil
	}
	return key.Decrypt(ext.DecryptableAvailableBalance)
}
