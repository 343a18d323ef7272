// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package upgrade implements the inherent runtime-upgrade checker: it
// swaps the engine's code blob.
package upgrade

import (
	"errors"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
)

// Code is an opaque runtime code blob.
type Code struct {
	Blob []byte
}

var typeID = payload.TypeID{'c', 'o', 'd', 'e'}

// TypeIDOf implements payload.Typed.
func (c Code) TypeIDOf() payload.TypeID { return typeID }

// MarshalCodec writes the code blob.
func (c Code) MarshalCodec(w *codec.Writer) error {
	w.PutBytes(c.Blob)
	return nil
}

// UnmarshalCodec reads the code blob.
func (c *Code) UnmarshalCodec(r *codec.Reader) error {
	b, err := r.Bytes()
	if err != nil {
		return err
	}
	c.Blob = b
	return nil
}

// NewOutput builds a Code payload for the given blob.
func NewOutput(blob []byte) (payload.Payload, error) {
	return payload.Encode(Code{Blob: blob})
}

// ErrWrongShape is returned when the inherent transaction doesn't have
// exactly the upgrade's expected shape.
var ErrWrongShape = errors.New("upgrade: inherent must have zero inputs and exactly one output")

// Checker implements the inherent runtime-upgrade setter: zero
// conventional inputs, exactly one Code output, priority 0.
type Checker struct{}

// Check enforces the inherent shape.
func (Checker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 0 || len(outputs) != 1 {
		return 0, ErrWrongShape
	}
	var c Code
	if err := payload.DecodeAs(outputs[0], &c); err != nil {
		return 0, err
	}
	return 0, nil
}
