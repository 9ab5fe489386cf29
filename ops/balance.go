package ops

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// BalanceParams configures Balance.
type BalanceParams struct {
	Account solana.PublicKey
}

// BalanceReport is the decrypted view of a confidential account.
type BalanceReport struct {
	Account          solana.PublicKey `json:"account"`
	Mint             solana.PublicKey `json:"mint"`
	Decimals         uint8            `json:"decimals"`
	PendingRaw       uint64           `json:"pending_raw"`
	AvailableRaw     uint64           `json:"available_raw"`
	Pending          decimal.Decimal  `json:"pending"`
	Available        decimal.Decimal  `json:"available"`
	PublicRaw        uint64           `json:"public_raw"`
	CreditCounter    uint64           `json:"pending_credit_counter"`
	MaxCreditCounter uint64           `json:"max_pending_credit_counter"`
	Approved         bool             `json:"approved"`
	ElGamalPubkey    string           `json:"elgamal_pubkey"`
}

// Balance decrypts and reports the account's confidential balances. A
// credit counter past half its maximum draws a warning: once it saturates,
// deposits start failing until the pending balance is applied.
func (e *Env) Balance(ctx context.Context, params BalanceParams) (*BalanceReport, error) {
	e.step("reading confidential balances", KV("account", params.Account.String()))

	acc, ext, err := e.tokenAccount(ctx, params.Account)
	if err != nil {
		return nil, err
	}
	mint, err := e.mint(ctx, acc.Mint)
	if err != nil {
		return nil, err
	}
	kp, aeKey, err := deriveAccountKeys(e.Payer)
	if err != nil {
		return nil, err
	}

	pending, err := ext.DecryptPendingBalance(kp.Secret())
	if err != nil {
		return nil, err
	}
	available, err := ext.DecryptAvailableBalance(aeKey)
	if err != nil {
		return nil, err
	}

	if pending > 0 {
		e.note("pending balance present; run apply-balance to make it spendable",
			KV("pending", fmtUint(pending)))
	}
	if ext.MaximumPendingBalanceCreditCounter > 0 &&
		ext.PendingBalanceCreditCounter > ext.MaximumPendingBalanceCreditCounter/2 {
		e.warn("pending credit counter past half its maximum; apply the pending balance soon",
			KV("counter", fmtUint(ext.PendingBalanceCreditCounter)),
			KV("maximum", fmtUint(ext.MaximumPendingBalanceCreditCounter)))
	}

	return &BalanceReport{
		Account:          params.Account,
		Mint:             acc.Mint,
		Decimals:         mint.Decimals,
		PendingRaw:       pending,
		AvailableRaw:     available,
		Pending:          uiAmount(pending, mint.Decimals),
		Available:        uiAmount(available, mint.Decimals),
		PublicRaw:        acc.Amount,
		CreditCounter:    ext.PendingBalanceCreditCounter,
		MaxCreditCounter: ext.MaximumPendingBalanceCreditCounter,
		Approved:         ext.Approved,
		ElGamalPubkey:    solana.PublicKey(ext.ElGamalPubkey).String(),
	}, nil
}
