package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/cmd/utils"
	"github.com/tos-network/ctoken/ops"
)

var commandWithdraw = &cli.Command{
	Name:  "withdraw",
	Usage: "Move available confidential balance back to the public balance",
	Description: `
Withdraws from the account's available confidential balance to its public
balance. The client proves, without revealing the balance, that enough
remains: an equality proof and a range proof over the remaining balance
ride in the same transaction as the withdrawal.`,
	Flags: []cli.Flag{
		accountFlag,
		amountFlag,
	},
	Action: withdraw,
}

func withdraw(ctx *cli.Context) error {
	account := parsePubkey(ctx, accountFlag)
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	result, err := env.Withdraw(ctx.Context, ops.WithdrawParams{
		Account: account,
		Amount:  ctx.Uint64(amountFlag.Name),
	})
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		utils.MustPrintJSON(result)
		return nil
	}
	fmt.Printf("Withdrew %d base units from %s, %d remain available\n", result.Amount, result.Account, result.Remaining)
	fmt.Printf("Signature: %s\n", result.Signature)
	return nil
}
