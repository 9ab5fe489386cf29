// Package zkproof builds the zero-knowledge proof payloads consumed by the
// on-chain proof verification program, and the instructions that carry them.
//
// Every proof is a sigma protocol over ristretto255 made non-interactive
// with a Merlin transcript. A proof datum is context (the public statement)
// followed by the proof body; the instruction data is a one-byte opcode
// followed by the datum.
package zkproof

import (
	"errors"

	"github.com/gagliardetto/solana-go"
	"github.com/gtank/merlin"
	"github.com/gtank/ristretto255"
)

// ProgramID is the address of the proof verification program.
var ProgramID = solana.MustPublicKeyFromBase58("ZkE1Gama1Proof11111111111111111111111111111")

// Opcode selects the verification routine inside the proof program.
type Opcode uint8

const (
	OpVerifyCiphertextCommitmentEquality Opcode = 3
	OpVerifyPubkeyValidity               Opcode = 4
	OpVerifyBatchedRangeProofU64         Opcode = 6
)

var (
	ErrProofConstruction = errors.New("zkproof: proof construction failed")
	ErrProofVerification = errors.New("zkproof: proof verification failed")
	ErrMalformedProof    = errors.New("zkproof: malformed proof data")
)

// ProofData is a self-contained proof payload.
type ProofData interface {
	// Opcode returns the proof program opcode that verifies this payload.
	Opcode() Opcode
	// MarshalBinary encodes context followed by proof body.
	MarshalBinary() ([]byte, error)
	// Verify checks the proof against its own context. The same routine the
	// proof program runs; used as a client-side self-check before submission.
	Verify() error
}

// VerifyInstruction wraps a proof payload in an instruction for the proof
// program. The program reads the statement from instruction data, so no
// accounts are referenced.
func VerifyInstruction(pd ProofData) (solana.Instruction, error) {
	body, err := pd.MarshalBinary()
	if err != nil {
		return nil, err
	}
	data := make([]byte, 0, 1+len(body))
	data = append(data, byte(pd.Opcode()))
	data = append(data, body...)
	return solana.NewInstruction(ProgramID, solana.AccountMetaSlice{}, data), nil
}

// challengeScalar extracts a challenge scalar from the transcript.
func challengeScalar(t *merlin.Transcript, label string) (*ristretto255.Scalar, error) {
	wide := t.ExtractBytes([]byte(label), 64)
	c := ristretto255.NewScalar()
	if _, err := c.SetUniformBytes(wide); err != nil {
		return nil, err
	}
	return c, nil
}

func appendPoint(t *merlin.Transcript, label string, p *ristretto255.Element) {
	t.AppendMessage([]byte(label), p.Encode(nil))
}

func decodePoint(raw []byte) (*ristretto255.Element, error) {
	p := ristretto255.NewElement()
	if err := p.Decode(raw); err != nil {
		return nil, ErrMalformedProof
	}
	return p, nil
}

func decodeScalar(raw []byte) (*ristretto255.Scalar, error) {
	s := ristretto255.NewScalar()
	if _, err := s.SetCanonicalBytes(raw); err != nil {
		return nil, ErrMalformedProof
	}
	return s, nil
}
