package ops

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/txplan"
)

// ApplyPendingBalanceParams configures ApplyPendingBalance.
type ApplyPendingBalanceParams struct {
	Account solana.PublicKey
}

// ApplyPendingBalanceResult reports the applied amounts in base units.
type ApplyPendingBalanceResult struct {
	Account      solana.PublicKey `json:"account"`
	Applied      uint64           `json:"applied"`
	NewAvailable uint64           `json:"new_available"`
	NoOp         bool             `json:"no_op"`
	Signature    solana.Signature `json:"signature,omitempty"`
}

// ApplyPendingBalance folds the pending balance into the available
// balance. The client decrypts both pending components and the current
// available balance, then writes a fresh decryptable balance alongside the
// on-chain rollover. The observed credit counter is sent as a fence: if
// another deposit lands before the apply executes, the ledger rejects the
// stale update instead of corrupting the decryptable balance.
func (e *Env) ApplyPendingBalance(ctx context.Context, params ApplyPendingBalanceParams) (*ApplyPendingBalanceResult, error) {
	e.step("applying pending balance", KV("account", params.Account.String()))

	_, ext, err := e.tokenAccount(ctx, params.Account)
	if err != nil {
		return nil, err
	}
	kp, aeKey, err := deriveAccountKeys(e.Payer)
	if err != nil {
		return nil, err
	}

	e.step("decrypting pending balance components")
	pending, err := ext.DecryptPendingBalance(kp.Secret())
	if err != nil {
		return nil, err
	}
	available, err := ext.DecryptAvailableBalance(aeKey)
	if err != nil {
		return nil, err
	}
	e.note("balances decrypted",
		KV("pending", fmtUint(pending)),
		KV("available", fmtUint(available)),
		KV("credit_counter", fmtUint(ext.PendingBalanceCreditCounter)))

	if pending == 0 {
		e.note("nothing pending; no transaction needed")
		return &ApplyPendingBalanceResult{
			Account:      params.Account,
			NewAvailable: available,
			NoOp:         true,
		}, nil
	}

	newAvailable := available + pending
	newDecryptable, err := aeKey.Encrypt(newAvailable)
	if err != nil {
		return nil, err
	}

	plan := txplan.New()
	plan.Add(token.NewApplyPendingBalanceInstruction(
		params.Account,
		ext.PendingBalanceCreditCounter,
		newDecryptable,
		e.Payer.PublicKey(), nil,
	))
	sig, err := e.submit(ctx, plan)
	if err != nil {
		return nil, err
	}
	return &ApplyPendingBalanceResult{
		Account:      params.Account,
		Applied:      pending,
		NewAvailable: newAvailable,
		Signature:    sig,
	}, nil
}
