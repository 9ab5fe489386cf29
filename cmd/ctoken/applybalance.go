package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/cmd/utils"
	"github.com/tos-network/ctoken/ops"
)

var commandApplyPendingBalance = &cli.Command{
	Name:    "apply-balance",
	Aliases: []string{"apply-pending-balance", "apply"},
	Usage:   "Fold the pending balance into the available balance",
	Description: `
Decrypts the account's pending and available balances, then rolls the
pending balance into the available balance on chain, writing a fresh
decryptable balance for the new total. When nothing is pending the
command exits without submitting a transaction.`,
	Flags: []cli.Flag{
		accountFlag,
	},
	Action: applyPendingBalance,
}

func applyPendingBalance(ctx *cli.Context) error {
	account := parsePubkey(ctx, accountFlag)
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	result, err := env.ApplyPendingBalance(ctx.Context, ops.ApplyPendingBalanceParams{
		Account: account,
	})
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		utils.MustPrintJSON(result)
		return nil
	}
	if result.NoOp {
		fmt.Printf("No pending balance on %s, nothing to apply\n", result.Account)
		return nil
	}
	fmt.Printf("Applied %d base units, available balance is now %d base units\n", result.Applied, result.NewAvailable)
	fmt.Printf("Signature: %s\n", result.Signature)
	return nil
}
