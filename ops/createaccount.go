package ops

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"

	"github.com/tos-network/ctoken/token"
	"github.com/tos-network/ctoken/txplan"
	"github.com/tos-network/ctoken/zkproof"
)

// CreateAccountParams configures CreateAccount. The account keypair names
// the new token account. Owner is the keypair of the account owner and
// signs the configuration; the payer owns the account when it is nil.
type CreateAccountParams struct {
	Mint           solana.PublicKey
	AccountKeypair solana.PrivateKey
	Owner          solana.PrivateKey
}

// CreateAccountResult reports the created account.
type CreateAccountResult struct {
	Account       solana.PublicKey `json:"account"`
	Mint          solana.PublicKey `json:"mint"`
	Owner         solana.PublicKey `json:"owner"`
	ElGamalPubkey string           `json:"elgamal_pubkey"`
	Signature     solana.Signature `json:"signature"`
}

// CreateAccount creates a token account and configures it for
// confidential transfers: allocate, initialize the base account, verify a
// pubkey validity proof for the account's derived ElGamal key, and
// configure the extension. The proof rides in the same transaction, one
// instruction before the configure instruction.
func (e *Env) CreateAccount(ctx context.Context, params CreateAccountParams) (*CreateAccountResult, error) {
	account := params.AccountKeypair.PublicKey()
	ownerKey := params.Owner
	if ownerKey == nil {
		ownerKey = e.Payer
	}
	owner := ownerKey.PublicKey()
	e.step("creating confidential token account",
		KV("account", account.String()), KV("mint", params.Mint.String()), KV("owner", owner.String()))

	mint, err := e.mint(ctx, params.Mint)
	if err != nil {
		return nil, err
	}
	if _, err := mint.ConfidentialTransferMint(); err != nil {
		return nil, err
	}

	kp, aeKey, err := deriveAccountKeys(ownerKey)
	if err != nil {
		return nil, err
	}
	pub := kp.Public()
	e.note("derived account keys from wallet signature", KV("elgamal_pubkey", solana.PublicKey(pub).String()))

	space, err := token.AccountLenWithExtensions(token.ExtensionConfidentialTransferAccount)
	if err != nil {
		return nil, err
	}
	lamports, err := e.Chain.MinimumBalance(ctx, space)
	if err != nil {
		return nil, err
	}
	e.note("allocating token account", KV("space", fmtUint(space)), KV("lamports", fmtUint(lamports)))

	e.step("building pubkey validity proof")
	proof, err := zkproof.NewPubkeyValidityProofData(kp)
	if err != nil {
		return nil, err
	}
	if err := proof.Verify(); err != nil {
		return nil, err
	}
	verifyIx, err := zkproof.VerifyInstruction(proof)
	if err != nil {
		return nil, err
	}

	// The account starts with a zero available balance; seed the
	// decryptable copy with an encryption of zero under the fresh key.
	decryptableZero, err := aeKey.Encrypt(0)
	if err != nil {
		return nil, err
	}

	plan := txplan.New()
	plan.Add(system.NewCreateAccountInstruction(lamports, space, token.ProgramID, e.Payer.PublicKey(), account).Build())
	plan.Add(token.NewInitializeAccountInstruction(account, params.Mint, owner))
	verify := plan.Add(verifyIx)
	action := plan.Len()
	configure := token.NewConfigureAccountInstruction(
		account, params.Mint,
		decryptableZero,
		^uint64(0), // accept any number of pending credits
		int8(verify-action),
		owner, nil,
	)
	plan.AddWithProofs(configure, verify)

	extra := []solana.PrivateKey{params.AccountKeypair}
	if !owner.Equals(e.Payer.PublicKey()) {
		extra = append(extra, ownerKey)
	}
	sig, err := e.submit(ctx, plan, extra...)
	if err != nil {
		return nil, err
	}
	return &CreateAccountResult{
		Account:       account,
		Mint:          params.Mint,
		Owner:         owner,
		ElGamalPubkey: solana.PublicKey(pub).String(),
		Signature:     sig,
	}, nil
}
