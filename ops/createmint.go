package ops

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/txplan"
)

// CreateMintParams configures CreateMint. The mint keypair names the new
// mint and must sign its own creation. Authority, when set, becomes the
// mint, freeze and extension authority in place of the payer; it does not
// need to sign.
type CreateMintParams struct {
	MintKeypair solana.PrivateKey
	Decimals    uint8
	Authority   solana.PublicKey
}

// CreateMintResult reports the created mint.
type CreateMintResult struct {
	Mint      solana.PublicKey `json:"mint"`
	Decimals  uint8            `json:"decimals"`
	Authority solana.PublicKey `json:"authority"`
	Signature solana.Signature `json:"signature"`
}

// CreateMint creates a mint with the confidential transfer extension
// enabled: allocate, initialize the extension, then initialize the base
// mint. The payer becomes mint authority, freeze authority, and the
// extension authority; new accounts are auto-approved and no auditor is
// configured.
func (e *Env) CreateMint(ctx context.Context, params CreateMintParams) (*CreateMintResult, error) {
	mint := params.MintKeypair.PublicKey()
	authority := params.Authority
	if authority.IsZero() {
		authority = e.Payer.PublicKey()
	}
	e.step("creating confidential mint",
		KV("mint", mint.String()), KV("decimals", fmtUint(uint64(params.Decimals))), KV("authority", authority.String()))

	space, err := token.AccountLenWithExtensions(token.ExtensionConfidentialTransferMint)
	if err != nil {
		return nil, err
	}
	lamports, err := e.Chain.MinimumBalance(ctx, space)
	if err != nil {
		return nil, err
	}
	e.note("allocating mint account", KV("space", fmtUint(space)), KV("lamports", fmtUint(lamports)))

	plan := txplan.New()
	plan.Add(system.NewCreateAccountInstruction(lamports, space, token.ProgramID, e.Payer.PublicKey(), mint).Build())
	// The extension initializer must precede the base initializer, which
	// finalizes the layout.
	plan.Add(token.NewInitializeConfidentialTransferMintInstruction(mint, &authority, true, nil))
	plan.Add(token.NewInitializeMintInstruction(mint, params.Decimals, authority, &authority))

	sig, err := e.submit(ctx, plan, params.MintKeypair)
	if err != nil {
		return nil, err
	}
	return &CreateMintResult{Mint: mint, Decimals: params.Decimals, Authority: authority, Signature: sig}, nil
}
