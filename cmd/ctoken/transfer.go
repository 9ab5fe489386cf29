package main

import (
	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/internal/flags"
	"github.com/tos-network/ctoken/ops"
)

var (
	sourceFlag = &cli.StringFlag{
		Name:     "from",
		Usage:    "Address of the source confidential token account",
		Required: true,
		Category: flags.AccountCategory,
	}
	destinationFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "Address of the destination confidential token account",
		Required: true,
		Category: flags.AccountCategory,
	}
)

var commandTransfer = &cli.Command{
	Name:    "confidential-transfer",
	Aliases: []string{"transfer"},
	Usage:   "Transfer confidential balance between accounts (preflight only)",
	Description: `
Validates a confidential transfer: both accounts must hold the same mint,
the amount must fit the 48-bit credit window, and the source must have
enough available balance. The transfer itself is not submitted; the
three-part transfer proof is not built by this client yet.`,
	Flags: []cli.Flag{
		sourceFlag,
		destinationFlag,
		amountFlag,
	},
	Action: transfer,
}

func transfer(ctx *cli.Context) error {
	source := parsePubkey(ctx, sourceFlag)
	destination := parsePubkey(ctx, destinationFlag)
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	return env.Transfer(ctx.Context, ops.TransferParams{
		Source:      source,
		Destination: destination,
		Amount:      ctx.Uint64(amountFlag.Name),
	})
}
