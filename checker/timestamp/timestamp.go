// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package timestamp implements the inherent timestamp-setter: a checker
// with no conventional inputs that records the block's wall-clock
// moment, extracted from the inherent data channel by the inherent
// package.
package timestamp

import (
	"errors"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
)

// Moment is the recorded block timestamp, milliseconds since Unix epoch.
type Moment struct {
	Millis uint64
}

var typeID = payload.TypeID{'t', 'i', 'm', 'e'}

// TypeIDOf implements payload.Typed.
func (m Moment) TypeIDOf() payload.TypeID { return typeID }

// MarshalCodec writes the millisecond timestamp.
func (m Moment) MarshalCodec(w *codec.Writer) error {
	w.PutUint64(m.Millis)
	return nil
}

// UnmarshalCodec reads the millisecond timestamp.
func (m *Moment) UnmarshalCodec(r *codec.Reader) error {
	v, err := r.Uint64()
	if err != nil {
		return err
	}
	m.Millis = v
	return nil
}

// NewOutput builds a Moment payload for the given timestamp.
func NewOutput(millis uint64) (payload.Payload, error) {
	return payload.Encode(Moment{Millis: millis})
}

// ErrWrongShape is returned when the inherent transaction doesn't have
// exactly the timestamp-setter's expected shape.
var ErrWrongShape = errors.New("timestamp: inherent must have zero inputs and exactly one output")

// Checker implements the inherent timestamp setter: zero conventional
// inputs, exactly one Moment output, priority 0.
type Checker struct{}

// Check enforces the inherent shape.
func (Checker) Check(inputs, _peeks, outputs []payload.Payload) (uint64, error) {
	if len(inputs) != 0 || len(outputs) != 1 {
		return 0, ErrWrongShape
	}
	var m Moment
	if err := payload.DecodeAs(outputs[0], &m); err != nil {
		return 0, err
	}
	return 0, nil
}
