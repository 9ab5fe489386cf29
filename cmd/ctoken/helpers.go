package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/tos-network/ctoken/cmd/utils"
	"github.com/tos-network/ctoken/config"
	"github.com/tos-network/ctoken/ops"
	"github.com/tos-network/ctoken/solclient"
)

// newEnv assembles the operation environment from the global flags: the
// RPC endpoint and fee payer come from --url and --keypair, falling back
// to the configuration file for whichever is unset.
func newEnv(ctx *cli.Context) (*ops.Env, error) {
	url := ctx.String(urlFlag.Name)
	keypairPath := ctx.String(keypairFlag.Name)
	if url == "" || keypairPath == "" {
		cfg, err := config.Load(ctx.String(configFlag.Name))
		if err != nil {
			return nil, err
		}
		if url == "" {
			url = cfg.JSONRPCURL
		}
		if keypairPath == "" {
			keypairPath = cfg.KeypairPath
		}
	}
	payer, err := config.LoadKeypair(keypairPath)
	if err != nil {
		return nil, err
	}
	client, err := solclient.Dial(url)
	if err != nil {
		return nil, err
	}
	var sink ops.Sink = ops.NopSink{}
	if !ctx.Bool(quietFlag.Name) && !ctx.Bool(jsonFlag.Name) {
		sink = newConsoleSink()
	}
	return &ops.Env{Chain: client, Payer: payer, Sink: sink}, nil
}

// consoleSink renders operation events to standard error, leaving
// standard output to the command results.
type consoleSink struct {
	step *color.Color
	note *color.Color
	warn *color.Color
}

func newConsoleSink() *consoleSink {
	s := &consoleSink{
		step: color.New(color.FgCyan, color.Bold),
		note: color.New(color.Faint),
		warn: color.New(color.FgYellow, color.Bold),
	}
	if !utils.IsTTY(os.Stderr) {
		s.step.DisableColor()
		s.note.DisableColor()
		s.warn.DisableColor()
	}
	return s
}

func (s *consoleSink) Emit(ev ops.Event) {
	var c *color.Color
	prefix := "  "
	switch ev.Kind {
	case ops.KindStep:
		c, prefix = s.step, "> "
	case ops.KindWarning:
		c, prefix = s.warn, "! "
	default:
		c = s.note
	}
	line := prefix + ev.Message
	for _, attr := range ev.Attrs {
		line += fmt.Sprintf(" %s=%s", attr.Key, attr.Value)
	}
	c.Fprintln(os.Stderr, line)
}

// parsePubkey decodes a base58 account address from a required flag.
func parsePubkey(ctx *cli.Context, flag *cli.StringFlag) solana.PublicKey {
	raw := ctx.String(flag.Name)
	key, err := solana.PublicKeyFromBase58(raw)
	if err != nil {
		utils.Fatalf("Invalid --%s address %q: %v", flag.Name, raw, err)
	}
	return key
}

// uiString formats base units as a token-denominated amount.
func uiString(raw uint64, decimals uint8) string {
	return decimal.NewFromUint64(raw).Shift(-int32(decimals)).String()
}

// loadOrGenerateKeypair reads the keypair at path, or generates a fresh
// one when path is empty.
func loadOrGenerateKeypair(path string) (solana.PrivateKey, error) {
	if path == "" {
		return solana.NewWallet().PrivateKey, nil
	}
	return config.LoadKeypair(path)
}
