// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package tux0 implements DAPCoin<ID>, Tux0Mint, and Tux0Transfer: a
// DAP-style privacy coin. DAPCoin's notional value is fixed at 1 for
// every accounting purpose, mint outputs must be non-empty, and
// Tux0Transfer restricts its inputs to a matching verifier kind.
package tux0

import (
	"errors"
	"math/bits"

	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/verify"
)

// DAPCoin is a privacy coin: its on-chain representation is a commitment
// (here, the deterministic-ECIES ciphertext of an owner's secret) whose
// pre-image proves ownership.
type DAPCoin struct {
	ID         byte
	Commitment []byte
}

// TypeIDFor returns the 4-byte "dap"+id tag for this DAP coin's asset ID.
func TypeIDFor(id byte) payload.TypeID { return payload.TypeID{'d', 'a', 'p', id} }

// TypeIDOf implements payload.Typed.
func (c DAPCoin) TypeIDOf() payload.TypeID { return TypeIDFor(c.ID) }

// MarshalCodec writes (id, commitment).
func (c DAPCoin) MarshalCodec(w *codec.Writer) error {
	w.PutByte(c.ID)
	w.PutBytes(c.Commitment)
	return nil
}

// UnmarshalCodec reads (id, commitment).
func (c *DAPCoin) UnmarshalCodec(r *codec.Reader) error {
	id, err := r.Byte()
	if err != nil {
		return err
	}
	commitment, err := r.Bytes()
	if err != nil {
		return err
	}
	c.ID, c.Commitment = id, commitment
	return nil
}

// NewOutput builds a DAPCoin<id> payload locked under commitment.
func NewOutput(id byte, commitment []byte) (payload.Payload, error) {
	return payload.Encode(DAPCoin{ID: id, Commitment: commitment})
}

// Shared errors returned by the mint and transfer checkers below.
var (
	ErrBadlyTyped          = payload.ErrBadlyTyped
	ErrValueOverflow       = errors.New("tux0: value overflow")
	ErrOutputsExceedInputs = errors.New("tux0: outputs exceed inputs")
	ErrNoOutputs           = errors.New("tux0: mint requires at least one output")
)

// totalValue sums a mixed Coin/DAPCoin list, where a DAPCoin always
// counts as notional value 1 regardless of its actual hidden amount.
func totalValue(items []payload.Payload, id byte, allowMoney, allowDAP bool) (uint64, error) {
	var total uint64
	for _, p := range items {
		switch p.Type {
		case money.TypeIDFor(id):
			if !allowMoney {
				return 0, ErrBadlyTyped
			}
			var coin money.Coin
			if err := payload.DecodeAs(p, &coin); err != nil {
				return 0, ErrBadlyTyped
			}
			sum, carry := bits.Add64(total, coin.Amount, 0)
			if carry != 0 {
				return 0, ErrValueOverflow
			}
			total = sum
		case TypeIDFor(id):
			if !allowDAP {
				return 0, ErrBadlyTyped
			}
			sum, carry := bits.Add64(total, 1, 0)
			if carry != 0 {
				return 0, ErrValueOverflow
			}
			total = sum
		default:
			return 0, ErrBadlyTyped
		}
	}
	return total, nil
}

// MintChecker implements checker.SimpleConstraintChecker: inputs are
// Coin<ID>, outputs are DAPCoin<ID>; accept iff total input value >= output
// count (each DAPCoin has notional value 1).
type MintChecker struct {
	ID byte
}

// Check enforces the mint rule. Peeks are ignored.
func (c MintChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(outputs) == 0 {
		return 0, ErrNoOutputs
	}
	in, err := totalValue(inputs, c.ID, true, false)
	if err != nil {
		return 0, err
	}
	out, err := totalValue(outputs, c.ID, false, true)
	if err != nil {
		return 0, err
	}
	if in < out {
		return 0, ErrOutputsExceedInputs
	}
	return in - out, nil
}

// TransferChecker implements checker.ConstraintChecker (the structural
// variant) rather than SimpleConstraintChecker, because it must also
// restrict its inputs to outputs locked by the Tux0Transfer verifier —
// a rule that cannot be expressed over payloads alone.
type TransferChecker struct {
	ID byte
}

// Check enforces: inputs are DAPCoin<ID> locked by a Tux0Transfer
// verifier; outputs are Coin<ID> or DAPCoin<ID>; accept iff the DAP input
// count dominates the mixed output value.
func (c TransferChecker) Check(inputs, _peeks, outputs []txtypes.Output) (uint64, error) {
	inputPayloads := make([]payload.Payload, len(inputs))
	for i, in := range inputs {
		if in.Verifier.Kind != verify.KindTux0Transfer || in.Verifier.Tux0ID != c.ID {
			return 0, ErrBadlyTyped
		}
		inputPayloads[i] = in.Payload
	}
	outputPayloads := make([]payload.Payload, len(outputs))
	for i, o := range outputs {
		outputPayloads[i] = o.Payload
	}

	in, err := totalValue(inputPayloads, c.ID, false, true)
	if err != nil {
		return 0, err
	}
	out, err := totalValue(outputPayloads, c.ID, true, true)
	if err != nil {
		return 0, err
	}
	if in < out {
		return 0, ErrOutputsExceedInputs
	}
	return in - out, nil
}
