// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tuxedo defines the core UTXO data model shared by every
// checker: Output, Input, Peek, Transaction, and Block. It is grounded
// on vms/avm/utxo.go's UTXO{UTXOID,Asset,Out} composition and
// vms/avm/import_tx.go's BaseTx/ImportTx layering, generalized from the
// asset-transfer-fx model to a closed-checker model.
package tuxedo

import (
	"github.com/tuxedo-labs/tuxedo/checker"
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/verify"
)

// Output pairs a semantic payload with its spending condition.
type Output = txtypes.Output

// Input references a prior output together with the witness data its
// verifier interprets.
type Input struct {
	OutputRef ids.OutputRef `serialize:"true"`
	Redeemer  []byte        `serialize:"true"`
}

// Peek is a read-only reference, consulted but never consumed.
type Peek = ids.OutputRef

// Transaction is the unit of state transition: it spends Inputs and Peeks
// and introduces Outputs, all interpreted under a single checker.
type Transaction struct {
	Inputs  []Input              `serialize:"true"`
	Peeks   []Peek               `serialize:"true"`
	Outputs []Output             `serialize:"true"`
	Checker checker.OuterChecker `serialize:"true"`
}

// OutputRefAt returns the OutputRef of the output at position i of tx,
// i.e. (blake2b-256(canonical_encoding(tx)), i) — the content-addressing
// invariant every output reference relies on.
func (tx *Transaction) OutputRefAt(i int) (ids.OutputRef, error) {
	h, err := tx.Hash()
	if err != nil {
		return ids.OutputRef{}, err
	}
	return ids.NewOutputRef(h, uint32(i)), nil
}

// Hash returns blake2b-256(canonical_encoding(tx)).
func (tx *Transaction) Hash() (ids.ID, error) {
	b, err := codec.Marshal(tx)
	if err != nil {
		return ids.ID{}, err
	}
	return ids.FromBytes(b), nil
}

// IsInherent reports whether tx is exempt from the "at least one input"
// rule.
func (tx *Transaction) IsInherent() bool {
	return tx.Checker.IsInherent()
}

// Simplified returns a deep copy of tx with every input's Redeemer
// zeroed — the canonical per-transaction preimage verifiers check
// signatures against.
func (tx *Transaction) Simplified() *Transaction {
	out := &Transaction{
		Peeks:   append([]Peek(nil), tx.Peeks...),
		Outputs: append([]Output(nil), tx.Outputs...),
		Checker: tx.Checker,
	}
	out.Inputs = make([]Input, len(tx.Inputs))
	for i, in := range tx.Inputs {
		out.Inputs[i] = Input{OutputRef: in.OutputRef, Redeemer: nil}
	}
	return out
}

// SimplifiedBytes returns the canonical encoding of tx.Simplified(), the
// actual preimage passed to Verifier.Verify.
func (tx *Transaction) SimplifiedBytes() (verify.Preimage, error) {
	b, err := codec.Marshal(tx.Simplified())
	if err != nil {
		return nil, err
	}
	return verify.Preimage(b), nil
}

// Header is the block header; its state commitments are opaque to the
// core.
type Header struct {
	Number        uint32 `serialize:"true"`
	ParentHash    ids.ID `serialize:"true"`
	StateRoot     []byte `serialize:"true"`
	ExtrinsicRoot []byte `serialize:"true"`
}

// Block composes a header with an ordered transaction list.
type Block struct {
	Header       Header        `serialize:"true"`
	Transactions []Transaction `serialize:"true"`
}

// Hash returns blake2b-256(canonical_encoding(header)). Block identity is
// by header hash, matching the follower's block_hashes table.
func (h *Header) Hash() (ids.ID, error) {
	b, err := codec.Marshal(h)
	if err != nil {
		return ids.ID{}, err
	}
	return ids.FromBytes(b), nil
}
