package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/cmd/utils"
	"github.com/tos-network/ctoken/ops"
)

var commandBalance = &cli.Command{
	Name:  "balance",
	Usage: "Decrypt and show the account's confidential balances",
	Description: `
Decrypts the account's pending and available confidential balances with
keys derived from the fee payer's wallet, and shows them alongside the
public balance and the pending credit counter.`,
	Flags: []cli.Flag{
		accountFlag,
	},
	Action: balance,
}

func balance(ctx *cli.Context) error {
	account := parsePubkey(ctx, accountFlag)
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	report, err := env.Balance(ctx.Context, ops.BalanceParams{Account: account})
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		utils.MustPrintJSON(report)
		return nil
	}

	fmt.Printf("Account %s (mint %s, %d decimals)\n", report.Account, report.Mint, report.Decimals)
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Balance", "Tokens", "Base Units"})
	table.Append([]string{"Pending", report.Pending.String(), fmt.Sprintf("%d", report.PendingRaw)})
	table.Append([]string{"Available", report.Available.String(), fmt.Sprintf("%d", report.AvailableRaw)})
	table.Append([]string{"Public", uiString(report.PublicRaw, report.Decimals), fmt.Sprintf("%d", report.PublicRaw)})
	table.Render()
	fmt.Printf("Pending credits: %d of %d\n", report.CreditCounter, report.MaxCreditCounter)
	fmt.Printf("ElGamal pubkey: %s (approved: %t)\n", report.ElGamalPubkey, report.Approved)
	return nil
}
