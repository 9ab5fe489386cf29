package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/cmd/utils"
	"github.com/tos-network/ctoken/internal/flags"
	"github.com/tos-network/ctoken/ops"
)

var (
	accountFlag = &cli.StringFlag{
		Name:     "account",
		Usage:    "Address of the confidential token account",
		Required: true,
		Category: flags.AccountCategory,
	}
	amountFlag = &cli.Uint64Flag{
		Name:     "amount",
		Usage:    "Amount in raw base units",
		Required: true,
		Category: flags.MiscCategory,
	}
)

var commandDeposit = &cli.Command{
	Name:  "deposit",
	Usage: "Move public balance into the confidential pending balance",
	Description: `
Deposits public token balance into the account's pending confidential
balance. Deposited funds are not spendable until the pending balance is
applied with apply-balance.`,
	Flags: []cli.Flag{
		accountFlag,
		amountFlag,
	},
	Action: deposit,
}

func deposit(ctx *cli.Context) error {
	account := parsePubkey(ctx, accountFlag)
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	result, err := env.Deposit(ctx.Context, ops.DepositParams{
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
	fmt.Printf("Deposited %d base units to the pending balance of %s\n", result.Amount, result.Account)
	fmt.Printf("Signature: %s\n", result.Signature)
	return nil
}
