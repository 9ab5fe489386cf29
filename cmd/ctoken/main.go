// ctoken is a command line client for confidential token transfers:
// encrypted balances, wallet-derived encryption keys, and zero-knowledge
// proofs riding alongside the token instructions.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/internal/flags"
)

var (
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""

	app = flags.NewApp(gitCommit, gitDate, "a confidential token command line client")
)

var (
	configFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "Path to the client configuration file",
		Category: flags.RPCCategory,
	}
	urlFlag = &cli.StringFlag{
		Name:     "url",
		Usage:    "JSON-RPC endpoint (overrides the configuration file)",
		Category: flags.RPCCategory,
	}
	keypairFlag = &cli.StringFlag{
		Name:     "keypair",
		Usage:    "Path to the fee payer keypair file (overrides the configuration file)",
		Category: flags.AccountCategory,
	}
	jsonFlag = &cli.BoolFlag{
		Name:     "json",
		Usage:    "Output results in JSON format",
		Category: flags.MiscCategory,
	}
	quietFlag = &cli.BoolFlag{
		Name:     "quiet",
		Aliases:  []string{"q"},
		Usage:    "Suppress progress output",
		Category: flags.MiscCategory,
	}
)

var (
	rpcFlags    = []cli.Flag{configFlag, urlFlag, keypairFlag}
	outputFlags = []cli.Flag{jsonFlag, quietFlag}
)

func init() {
	app.Flags = flags.Merge(rpcFlags, outputFlags)
	app.Commands = []*cli.Command{
		commandCreateMint,
		commandCreateAccount,
		commandDeposit,
		commandApplyPendingBalance,
		commandWithdraw,
		commandTransfer,
		commandBalance,
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
