package main

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/cmd/utils"
	"github.com/tos-network/ctoken/config"
	"github.com/tos-network/ctoken/internal/flags"
	"github.com/tos-network/ctoken/ops"
)

var (
	decimalsFlag = &cli.UintFlag{
		Name:     "decimals",
		Usage:    "Number of base 10 digits to the right of the decimal place",
		Value:    9,
		Category: flags.MiscCategory,
	}
	mintKeypairFlag = &cli.StringFlag{
		Name:     "mint-keypair",
		Usage:    "Keypair file naming the new mint (generated when unset)",
		Category: flags.AccountCategory,
	}
	authorityFlag = &cli.StringFlag{
		Name:     "authority",
		Usage:    "Keypair file of the mint authority (the fee payer when unset)",
		Category: flags.AccountCategory,
	}
)

var commandCreateMint = &cli.Command{
	Name:  "create-mint",
	Usage: "Create a token mint with confidential transfers enabled",
	Description: `
Creates a new mint with the confidential transfer extension. The mint,
freeze, and extension authorities default to the fee payer unless
--authority names another keypair; new accounts are approved
automatically.`,
	Flags: []cli.Flag{
		decimalsFlag,
		mintKeypairFlag,
		authorityFlag,
	},
	Action: createMint,
}

func createMint(ctx *cli.Context) error {
	decimals := ctx.Uint(decimalsFlag.Name)
	if decimals > 255 {
		utils.Fatalf("Invalid --decimals %d: must fit in one byte", decimals)
	}
	mintKeypair, err := loadOrGenerateKeypair(ctx.String(mintKeypairFlag.Name))
	if err != nil {
		return err
	}
	var authority solana.PublicKey
	if path := ctx.String(authorityFlag.Name); path != "" {
		key, err := config.LoadKeypair(path)
		if err != nil {
			return err
		}
		authority = key.PublicKey()
	}
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	result, err := env.CreateMint(ctx.Context, ops.CreateMintParams{
		MintKeypair: mintKeypair,
		Decimals:    uint8(decimals),
		Authority:   authority,
	})
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		utils.MustPrintJSON(result)
		return nil
	}
	fmt.Printf("Created mint %s with %d decimals (authority %s)\n", result.Mint, result.Decimals, result.Authority)
	fmt.Printf("Signature: %s\n", result.Signature)
	return nil
}
