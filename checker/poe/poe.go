// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package poe implements the proof-of-existence Claim/Revoke/Dispute
// checker family: register, remove, and settle content claims. Grounded
// on vms/avm/import_tx.go's multi-stage verify split for structuring a
// multi-operation checker family.
package poe

import (
	"errors"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
)

// Claim is a content claim: the claimed content's hash and the height of
// the block that first asserted it.
type Claim struct {
	ContentHash [32]byte
	Height      uint32
}

var typeID = payload.TypeID{'p', 'o', 'e', 0}

// TypeIDOf implements payload.Typed.
func (c Claim) TypeIDOf() payload.TypeID { return typeID }

// MarshalCodec writes (contentHash, height).
func (c Claim) MarshalCodec(w *codec.Writer) error {
	w.PutFixedBytes(c.ContentHash[:])
	w.PutUint32(c.Height)
	return nil
}

// UnmarshalCodec reads (contentHash, height).
func (c *Claim) UnmarshalCodec(r *codec.Reader) error {
	b, err := r.FixedBytes(32)
	if err != nil {
		return err
	}
	copy(c.ContentHash[:], b)
	h, err := r.Uint32()
	if err != nil {
		return err
	}
	c.Height = h
	return nil
}

// NewOutput builds a Claim payload.
func NewOutput(contentHash [32]byte, height uint32) (payload.Payload, error) {
	return payload.Encode(Claim{ContentHash: contentHash, Height: height})
}

var (
	// ErrBadlyTyped covers malformed or wrong-kind payloads.
	ErrBadlyTyped = payload.ErrBadlyTyped
	// ErrWrongArity is returned when a checker's input/output counts
	// don't match its operation's shape.
	ErrWrongArity = errors.New("poe: wrong number of inputs or outputs")
	// ErrMismatchedContent is returned when a Dispute's inputs don't all
	// claim the same content.
	ErrMismatchedContent = errors.New("poe: dispute inputs claim different content")
	// ErrWrongWinner is returned when a Dispute's single output isn't the
	// earliest of its disputed inputs.
	ErrWrongWinner = errors.New("poe: dispute output is not the earliest claim")
)

func decodeClaim(p payload.Payload) (Claim, error) {
	var c Claim
	if err := payload.DecodeAs(p, &c); err != nil {
		return Claim{}, ErrBadlyTyped
	}
	return c, nil
}

// ClaimChecker registers a brand-new content claim: no inputs, exactly one
// output.
type ClaimChecker struct{}

// Check enforces the Claim shape. Peeks are ignored.
func (ClaimChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 0 || len(outputs) != 1 {
		return 0, ErrWrongArity
	}
	if _, err := decodeClaim(outputs[0]); err != nil {
		return 0, err
	}
	return 0, nil
}

// RevokeChecker removes an existing content claim: exactly one input, no
// outputs.
type RevokeChecker struct{}

// Check enforces the Revoke shape.
func (RevokeChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 1 || len(outputs) != 0 {
		return 0, ErrWrongArity
	}
	if _, err := decodeClaim(inputs[0]); err != nil {
		return 0, err
	}
	return 0, nil
}

// DisputeChecker settles a dispute between two or more claims on the same
// content: it consumes every disputed claim and re-asserts only the
// earliest one.
type DisputeChecker struct{}

// Check enforces the Dispute shape: inputs are >= 2 claims of identical
// content, the single output re-asserts the earliest of them.
func (DisputeChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) < 2 || len(outputs) != 1 {
		return 0, ErrWrongArity
	}
	claims := make([]Claim, len(inputs))
	for i, p := range inputs {
		c, err := decodeClaim(p)
		if err != nil {
			return 0, err
		}
		claims[i] = c
	}
	earliest := claims[0]
	for _, c := range claims[1:] {
		if c.ContentHash != earliest.ContentHash {
			return 0, ErrMismatchedContent
		}
		if c.Height < earliest.Height {
			earliest = c
		}
	}
	winner, err := decodeClaim(outputs[0])
	if err != nil {
		return 0, err
	}
	if winner != earliest {
		return 0, ErrWrongWinner
	}
	return 0, nil
}
