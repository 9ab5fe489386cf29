// Package txplan builds and submits multi-instruction transactions whose
// action instructions reference proof verification instructions by relative
// offset. The plan carries both the instruction list and the offset
// expectations, so offsets are computed from positions and cross-checked
// before anything is signed.
package txplan

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/tos-network/ctoken/zkproof"
)

var (
	// ErrOffsetMismatch reports an action instruction whose embedded proof
	// offsets disagree with the actual instruction positions.
	ErrOffsetMismatch = errors.New("txplan: proof offset does not match instruction position")
	ErrMissingSigner  = errors.New("txplan: no private key for required signer")
)

// ProofCarrier is implemented by instructions that embed relative proof
// offsets in their data.
type ProofCarrier interface {
	ProofOffsets() []int8
}

// Plan is an ordered instruction list with proof-offset expectations.
type Plan struct {
	ixs     []solana.Instruction
	expects map[int][]int // action index -> verify indices, in encoding order
}

// New returns an empty plan.
func New() *Plan {
	return &Plan{expects: make(map[int][]int)}
}

// Len returns the number of instructions added so far, which is also the
// index the next Add will return.
func (p *Plan) Len() int {
	return len(p.ixs)
}

// Add appends an instruction and returns its index.
func (p *Plan) Add(ix solana.Instruction) int {
	p.ixs = append(p.ixs, ix)
	return len(p.ixs) - 1
}

// AddWithProofs appends an action instruction that references previously
// added verify instructions. verifyIndices must match the order in which
// the instruction encodes its offsets.
func (p *Plan) AddWithProofs(ix solana.Instruction, verifyIndices ...int) int {
	idx := p.Add(ix)
	p.expects[idx] = verifyIndices
	return idx
}

// Instructions returns the planned instructions in order.
func (p *Plan) Instructions() []solana.Instruction {
	return p.ixs
}

// Validate cross-checks every recorded proof reference: the referenced
// instruction must exist, target the proof program, and sit at exactly the
// relative offset the action instruction encodes.
func (p *Plan) Validate() error {
	for actionIdx, verifyIndices := range p.expects {
		carrier, ok := p.ixs[actionIdx].(ProofCarrier)
		if !ok {
			return fmt.Errorf("%w: instruction %d expects proofs but exposes no offsets", ErrOffsetMismatch, actionIdx)
		}
		offsets := carrier.ProofOffsets()
		if len(offsets) != len(verifyIndices) {
			return fmt.Errorf("%w: instruction %d encodes %d offsets, plan records %d", ErrOffsetMismatch, actionIdx, len(offsets), len(verifyIndices))
		}
		for k, verifyIdx := range verifyIndices {
			if verifyIdx < 0 || verifyIdx >= len(p.ixs) {
				return fmt.Errorf("%w: instruction %d references out-of-plan index %d", ErrOffsetMismatch, actionIdx, verifyIdx)
			}
			if !p.ixs[verifyIdx].ProgramID().Equals(zkproof.ProgramID) {
				return fmt.Errorf("%w: instruction %d is not a proof verification", ErrOffsetMismatch, verifyIdx)
			}
			rel := verifyIdx - actionIdx
			if rel == 0 {
				return fmt.Errorf("%w: instruction %d references itself", ErrOffsetMismatch, actionIdx)
			}
			if rel < -128 || rel > 127 {
				return fmt.Errorf("%w: relative offset %d overflows", ErrOffsetMismatch, rel)
			}
			if int(offsets[k]) != rel {
				return fmt.Errorf("%w: instruction %d encodes offset %d, position implies %d", ErrOffsetMismatch, actionIdx, offsets[k], rel)
			}
		}
	}
	return nil
}

// Client is the chain access the assembler needs.
type Client interface {
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	SendAndConfirm(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// Assembler signs and submits validated plans as single transactions.
type Assembler struct {
	Client Client
	Payer  solana.PrivateKey
}

// Submit validates the plan, wraps it in one transaction paid for by the
// assembler's payer, signs with the payer and any extra signers, and
// submits it, waiting for confirmation.
func (a *Assembler) Submit(ctx context.Context, plan *Plan, extraSigners ...solana.PrivateKey) (solana.Signature, error) {
	if err := plan.Validate(); err != nil {
		return solana.Signature{}, err
	}
	blockhash, err := a.Client.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, err
	}
	tx, err := solana.NewTransaction(plan.Instructions(), blockhash, solana.TransactionPayer(a.Payer.PublicKey()))
	if err != nil {
		return solana.Signature{}, err
	}

	keys := map[solana.PublicKey]*solana.PrivateKey{
		a.Payer.PublicKey(): &a.Payer,
	}
	for i := range extraSigners {
		signer := extraSigners[i]
		keys[signer.PublicKey()] = &signer
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		return keys[key]
	}); err != nil {
		return solana.Signature{}, fmt.Errorf("%w: %v", ErrMissingSigner, err)
	}
	return a.Client.SendAndConfirm(ctx, tx)
}
