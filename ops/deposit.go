package ops

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/txplan"
)

// DepositParams configures Deposit. Amount is in raw base units.
type DepositParams struct {
	Account solana.PublicKey
	Amount  uint64
}

// DepositResult reports the submitted deposit.
type DepositResult struct {
	Account   solana.PublicKey `json:"account"`
	Amount    uint64           `json:"amount"`
	Signature solana.Signature `json:"signature"`
}

// Deposit moves public token balance into the confidential pending
// balance. The ledger splits the credit into the low and high pending
// ciphertexts; nothing becomes spendable until the pending balance is
// applied.
func (e *Env) Deposit(ctx context.Context, params DepositParams) (*DepositResult, error) {
	e.step("depositing to pending balance", KV("account", params.Account.String()), KV("amount", fmtUint(params.Amount)))

	acc, _, err := e.tokenAccount(ctx, params.Account)
	if err != nil {
		return nil, err
	}
	mint, err := e.mint(ctx, acc.Mint)
	if err != nil {
		return nil, err
	}
	if params.Amount > maxTransferAmount {
		return nil, fmt.Errorf("%w: deposits are limited to 48 bits, got %d", ErrAmountOutOfRange, params.Amount)
	}
	if params.Amount > acc.Amount {
		return nil, fmt.Errorf("%w: public balance %d, deposit %d", ErrInsufficientBalance, acc.Amount, params.Amount)
	}
	e.note("deposit amount", KV("tokens", uiAmount(params.Amount, mint.Decimals).String()))

	plan := txplan.New()
	plan.Add(token.NewDepositInstruction(params.Account, acc.Mint, params.Amount, mint.Decimals, e.Payer.PublicKey(), nil))
	sig, err := e.submit(ctx, plan)
	if err != nil {
		return nil, err
	}
	e.note("pending balance credited; run apply-balance to spend it")
	return &DepositResult{Account: params.Account, Amount: params.Amount, Signature: sig}, nil
}
