// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package amoeba implements the Amoeba creation/mitosis/death state
// machine: a toy lineage example where each generation tracks its
// ancestry through a monotonic generation counter.
package amoeba

import (
	"errors"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
)

// Amoeba is a single-celled organism tracked by generation number.
type Amoeba struct {
	Generation uint32
}

var typeID = payload.TypeID{'a', 'm', 'o', 'e'}

// TypeIDOf implements payload.Typed.
func (a Amoeba) TypeIDOf() payload.TypeID { return typeID }

// MarshalCodec writes the generation number.
func (a Amoeba) MarshalCodec(w *codec.Writer) error {
	w.PutUint32(a.Generation)
	return nil
}

// UnmarshalCodec reads the generation number.
func (a *Amoeba) UnmarshalCodec(r *codec.Reader) error {
	g, err := r.Uint32()
	if err != nil {
		return err
	}
	a.Generation = g
	return nil
}

// NewOutput builds an Amoeba payload at the given generation.
func NewOutput(generation uint32) (payload.Payload, error) {
	return payload.Encode(Amoeba{Generation: generation})
}

var (
	// ErrBadlyTyped covers malformed or wrong-kind payloads.
	ErrBadlyTyped = payload.ErrBadlyTyped
	// ErrWrongArity is returned when input/output counts don't match the
	// operation's shape.
	ErrWrongArity = errors.New("amoeba: wrong number of inputs or outputs")
	// ErrWrongGeneration is returned when a child's generation does not
	// follow its parent's.
	ErrWrongGeneration = errors.New("amoeba: child generation must be parent generation + 1")
)

func decodeAmoeba(p payload.Payload) (Amoeba, error) {
	var a Amoeba
	if err := payload.DecodeAs(p, &a); err != nil {
		return Amoeba{}, ErrBadlyTyped
	}
	return a, nil
}

// CreationChecker creates a brand-new generation-0 amoeba: no inputs,
// exactly one output.
type CreationChecker struct{}

// Check enforces the Creation shape.
func (CreationChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 0 || len(outputs) != 1 {
		return 0, ErrWrongArity
	}
	child, err := decodeAmoeba(outputs[0])
	if err != nil {
		return 0, err
	}
	if child.Generation != 0 {
		return 0, ErrWrongGeneration
	}
	return 0, nil
}

// MitosisChecker splits one amoeba into two of the next generation: one
// input, exactly two outputs.
type MitosisChecker struct{}

// Check enforces the Mitosis shape.
func (MitosisChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 1 || len(outputs) != 2 {
		return 0, ErrWrongArity
	}
	parent, err := decodeAmoeba(inputs[0])
	if err != nil {
		return 0, err
	}
	for _, p := range outputs {
		child, err := decodeAmoeba(p)
		if err != nil {
			return 0, err
		}
		if child.Generation != parent.Generation+1 {
			return 0, ErrWrongGeneration
		}
	}
	return 0, nil
}

// DeathChecker removes an amoeba from the UTXO set: one input, no
// outputs.
type DeathChecker struct{}

// Check enforces the Death shape.
func (DeathChecker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 1 || len(outputs) != 0 {
		return 0, ErrWrongArity
	}
	if _, err := decodeAmoeba(inputs[0]); err != nil {
		return 0, err
	}
	return 0, nil
}
