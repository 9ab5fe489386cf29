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
	mintFlag = &cli.StringFlag{
		Name:     "mint",
		Usage:    "Address of the mint the account will hold",
		Required: true,
		Category: flags.AccountCategory,
	}
	accountKeypairFlag = &cli.StringFlag{
		Name:     "account-keypair",
		Usage:    "Keypair file naming the new token account (generated when unset)",
		Category: flags.AccountCategory,
	}
	ownerFlag = &cli.StringFlag{
		Name:     "owner",
		Usage:    "Keypair file of the account owner (the fee payer when unset)",
		Category: flags.AccountCategory,
	}
)

var commandCreateAccount = &cli.Command{
	Name:  "create-account",
	Usage: "Create a token account configured for confidential transfers",
	Description: `
Creates a token account and configures it for confidential transfers.
The owner defaults to the fee payer unless --owner names another keypair.
The account's encryption keys are derived from a wallet signature, so
they can always be recovered from the owner's wallet alone; a validity
proof for the derived public key rides in the same transaction.`,
	Flags: []cli.Flag{
		mintFlag,
		accountKeypairFlag,
		ownerFlag,
	},
	Action: createAccount,
}

func createAccount(ctx *cli.Context) error {
	mint := parsePubkey(ctx, mintFlag)
	accountKeypair, err := loadOrGenerateKeypair(ctx.String(accountKeypairFlag.Name))
	if err != nil {
		return err
	}
	var owner solana.PrivateKey
	if path := ctx.String(ownerFlag.Name); path != "" {
		if owner, err = config.LoadKeypair(path); err != nil {
			return err
		}
	}
	env, err := newEnv(ctx)
	if err != nil {
		return err
	}
	result, err := env.CreateAccount(ctx.Context, ops.CreateAccountParams{
		Mint:           mint,
		AccountKeypair: accountKeypair,
		Owner:          owner,
	})
	if err != nil {
		return err
	}
	if ctx.Bool(jsonFlag.Name) {
		utils.MustPrintJSON(result)
		return nil
	}
	fmt.Printf("Created account %s for mint %s (owner %s)\n", result.Account, result.Mint, result.Owner)
	fmt.Printf("ElGamal pubkey: %s\n", result.ElGamalPubkey)
	fmt.Printf("Signature: %s\n", result.Signature)
	return nil
}
