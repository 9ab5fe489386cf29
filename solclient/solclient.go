// Package solclient wraps the JSON-RPC client with the few typed calls the
// confidential token workflows need, plus send-and-confirm polling.
package solclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrRPCFailure wraps transport and node-side failures so callers can
// classify them without inspecting the underlying client.
var ErrRPCFailure = errors.New("solclient: rpc request failed")

// ErrAccountNotFound reports a missing account.
var ErrAccountNotFound = errors.New("solclient: account not found")

const confirmPollInterval = 500 * time.Millisecond

// AccountInfo is the raw state of an account together with its owning
// program.
type AccountInfo struct {
	Owner    solana.PublicKey
	Lamports uint64
	Data     []byte
}

// Client is a thin typed wrapper around one RPC endpoint.
type Client struct {
	rpc *rpc.Client
	url string
}

// Dial connects a client to the given JSON-RPC endpoint URL.
func Dial(url string) (*Client, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty endpoint URL", ErrRPCFailure)
	}
	return &Client{rpc: rpc.New(url), url: url}, nil
}

// URL returns the endpoint this client talks to.
func (c *Client) URL() string {
	return c.url
}

// Account fetches an account's raw data and owner.
func (c *Client) Account(ctx context.Context, key solana.PublicKey) (*AccountInfo, error) {
	out, err := c.rpc.GetAccountInfo(ctx, key)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
		}
		return nil, fmt.Errorf("%w: getAccountInfo: %v", ErrRPCFailure, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, key)
	}
	info := &AccountInfo{
		Owner:    out.Value.Owner,
		Lamports: out.Value.Lamports,
	}
	if out.Value.Data != nil {
		info.Data = out.Value.Data.GetBinary()
	}
	return info, nil
}

// MinimumBalance returns the rent-exempt minimum for an account of the
// given size.
func (c *Client) MinimumBalance(ctx context.Context, size uint64) (uint64, error) {
	lamports, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, size, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("%w: getMinimumBalanceForRentExemption: %v", ErrRPCFailure, err)
	}
	return lamports, nil
}

// LatestBlockhash returns a recent blockhash for transaction assembly.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	out, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("%w: getLatestBlockhash: %v", ErrRPCFailure, err)
	}
	return out.Value.Blockhash, nil
}

// SendAndConfirm submits a signed transaction and polls signature status
// until it finalizes, fails, or the context expires.
func (c *Client) SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: sendTransaction: %v", ErrRPCFailure, err)
	}

	ticker := time.NewTicker(confirmPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return sig, fmt.Errorf("%w: confirmation: %v", ErrRPCFailure, ctx.Err())
		case <-ticker.C:
		}

		out, err := c.rpc.GetSignatureStatuses(ctx, false, sig)
		if err != nil {
			return sig, fmt.Errorf("%w: getSignatureStatuses: %v", ErrRPCFailure, err)
		}
		if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
			continue
		}
		status := out.Value[0]
		if status.Err != nil {
			return sig, fmt.Errorf("%w: transaction %s failed: %v", ErrRPCFailure, sig, status.Err)
		}
		if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized {
			return sig, nil
		}
	}
}
