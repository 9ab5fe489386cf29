// Package ops implements the confidential token workflows: each operation
// fetches state, derives keys, builds proofs and instructions, and submits
// one transaction. Operations report progress through an event stream and
// return typed results; they never touch stdout.
package ops

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	"github.com/tos-network/ctoken/crypto/authenc"
	"github.com/tos-network/ctoken/crypto/elgamal"
	"github.com/tos-network/ctoken/solclient"
	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/txplan"
)

var (
	ErrInsufficientBalance = errors.New("ops: insufficient balance")
	ErrMintMismatch        = errors.New("ops: accounts belong to different mints")
	ErrAmountOutOfRange    = errors.New("ops: amount out of range")
	// ErrUnsupportedOperation marks workflows that are deliberately not
	// implemented end to end.
	ErrUnsupportedOperation = errors.New("ops: operation not supported")
)

// maxTransferAmount bounds confidential credit amounts: the pending
// balance split carries at most 48 bits per credit.
const maxTransferAmount = uint64(1)<<48 - 1

// Chain is the chain access every operation needs. *solclient.Client
// satisfies it.
type Chain interface {
	Account(ctx context.Context, key solana.PublicKey) (*solclient.AccountInfo, error)
	MinimumBalance(ctx context.Context, size uint64) (uint64, error)
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Env bundles what operations run against: a chain client, the fee payer
// (who is also the default account owner), and an event sink.
type Env struct {
	Chain Chain
	Payer solana.PrivateKey
	Sink  Sink
}

func (e *Env) sink() Sink {
	if e.Sink == nil {
		return NopSink{}
	}
	return e.Sink
}

func (e *Env) step(message string, attrs ...Attr) {
	e.sink().Emit(Event{Kind: KindStep, Message: message, Attrs: attrs})
}

func (e *Env) note(message string, attrs ...Attr) {
	e.sink().Emit(Event{Kind: KindNote, Message: message, Attrs: attrs})
}

func (e *Env) warn(message string, attrs ...Attr) {
	e.sink().Emit(Event{Kind: KindWarning, Message: message, Attrs: attrs})
}

// submit validates, signs and lands a plan, narrating both phases.
func (e *Env) submit(ctx context.Context, plan *txplan.Plan, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	e.step("submitting transaction", KV("instructions", fmt.Sprint(plan.Len())))
	assembler := &txplan.Assembler{Client: e.Chain, Payer: e.Payer}
	sig, err := assembler.Submit(ctx, plan, extraSigners...)
	if err != nil {
		return solana.Signature{}, err
	}
	e.step("transaction finalized", KV("signature", sig.String()))
	return sig, nil
}

// tokenAccount fetches and decodes a token account and its confidential
// extension, verifying the owning program.
func (e *Env) tokenAccount(ctx context.Context, addr solana.PublicKey) (*token.Account, *token.ConfidentialTransferAccount, error) {
	info, err := e.Chain.Account(ctx, addr)
	if err != nil {
		return nil, nil, err
	}
	if err := token.CheckProgram(info.Owner); err != nil {
		return nil, nil, fmt.Errorf("%w: %s", err, addr)
	}
	acc, err := token.UnpackAccount(info.Data)
	if err != nil {
		return nil, nil, err
	}
	ext, err := acc.ConfidentialTransferAccount()
	if err != nil {
		return nil, nil, err
	}
	return acc, ext, nil
}

// mint fetches and decodes a mint, verifying the owning program.
func (e *Env) mint(ctx context.Context, addr solana.PublicKey) (*token.Mint, error) {
	info, err := e.Chain.Account(ctx, addr)
	if err != nil {
		return nil, err
	}
	if err := token.CheckProgram(info.Owner); err != nil {
		return nil, fmt.Errorf("%w: %s", err, addr)
	}
	return token.UnpackMint(info.Data)
}

// deriveAccountKeys derives the owner's ElGamal keypair and symmetric key
// from wallet signatures over fixed messages, so both can always be
// recovered from the wallet alone.
func deriveAccountKeys(owner solana.PrivateKey) (*elgamal.Keypair, authenc.Key, error) {
	kp, err := elgamal.DeriveKeypair([]byte(owner), nil)
	if err != nil {
		return nil, authenc.Key{}, err
	}
	aeKey, err := authenc.DeriveKey([]byte(owner), nil)
	if err != nil {
		return nil, authenc.Key{}, err
	}
	return kp, aeKey, nil
}

func fmtUint(v uint64) string {
	return fmt.Sprintf("%d", v)
}

// uiAmount formats base units as a token-denominated amount.
func uiAmount(raw uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(raw).Shift(-int32(decimals))
}
