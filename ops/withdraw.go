package ops

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/crypto/elgamal"
	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/txplan"
	"github.com/tos-network/ctoken/zkproof"
)

// WithdrawParams configures Withdraw. Amount is in raw base units.
type WithdrawParams struct {
	Account solana.PublicKey
	Amount  uint64
}

// WithdrawResult reports the submitted withdrawal.
type WithdrawResult struct {
	Account   solana.PublicKey `json:"account"`
	Amount    uint64           `json:"amount"`
	Remaining uint64           `json:"remaining"`
	Signature solana.Signature `json:"signature"`
}

// Withdraw moves available confidential balance back to the public
// balance. The ledger subtracts amount*G from the available balance
// commitment; the client must prove, without revealing the balance, that
// the result still hides a non-negative 64-bit amount:
//
//  1. an equality proof ties the post-withdrawal ciphertext to a fresh
//     Pedersen commitment of the remaining balance, and
//  2. a range proof shows that commitment hides a value in [0, 2^64).
//
// Both verification instructions ride in the same transaction, at fixed
// positions before the withdraw instruction.
func (e *Env) Withdraw(ctx context.Context, params WithdrawParams) (*WithdrawResult, error) {
	e.step("withdrawing from available balance", KV("account", params.Account.String()), KV("amount", fmtUint(params.Amount)))

	acc, ext, err := e.tokenAccount(ctx, params.Account)
	if err != nil {
		return nil, err
	}
	mint, err := e.mint(ctx, acc.Mint)
	if err != nil {
		return nil, err
	}
	raw := params.Amount

	kp, aeKey, err := deriveAccountKeys(e.Payer)
	if err != nil {
		return nil, err
	}
	available, err := ext.DecryptAvailableBalance(aeKey)
	if err != nil {
		return nil, err
	}
	if raw > available {
		return nil, fmt.Errorf("%w: available %d, withdraw %d", ErrInsufficientBalance, available, raw)
	}
	remaining := available - raw

	e.step("building equality proof for the remaining balance")
	newBalanceCiphertext, err := ext.AvailableBalance.SubAmount(raw)
	if err != nil {
		return nil, err
	}
	commitment, opening, err := elgamal.NewCommitment(remaining)
	if err != nil {
		return nil, err
	}
	equality, err := zkproof.NewCiphertextCommitmentEqualityProofData(kp, newBalanceCiphertext, commitment, opening, remaining)
	if err != nil {
		return nil, err
	}
	if err := equality.Verify(); err != nil {
		return nil, err
	}

	e.step("building range proof for the remaining balance")
	rangeProof, err := zkproof.NewBatchedRangeProofU64Data([]zkproof.RangeItem{{
		Amount:     remaining,
		BitLength:  64,
		Commitment: commitment,
		Opening:    opening,
	}})
	if err != nil {
		return nil, err
	}
	if err := rangeProof.Verify(); err != nil {
		return nil, err
	}

	equalityIx, err := zkproof.VerifyInstruction(equality)
	if err != nil {
		return nil, err
	}
	rangeIx, err := zkproof.VerifyInstruction(rangeProof)
	if err != nil {
		return nil, err
	}
	newDecryptable, err := aeKey.Encrypt(remaining)
	if err != nil {
		return nil, err
	}

	plan := txplan.New()
	equalityIdx := plan.Add(equalityIx)
	rangeIdx := plan.Add(rangeIx)
	action := plan.Len()
	withdrawIx := token.NewWithdrawInstruction(
		params.Account, acc.Mint,
		raw, mint.Decimals,
		newDecryptable,
		int8(equalityIdx-action), int8(rangeIdx-action),
		e.Payer.PublicKey(), nil,
	)
	plan.AddWithProofs(withdrawIx, equalityIdx, rangeIdx)

	sig, err := e.submit(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &WithdrawResult{
		Account:   params.Account,
		Amount:    params.Amount,
		Remaining: remaining,
		Signature: sig,
	}, nil
}
