// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package txtypes holds the Output type shared by the core tuxedo package
// and every constraint checker. It is split out from package tuxedo to
// break the import cycle that would otherwise arise from checkers needing
// Output (for the structural ConstraintChecker variant) while
// tuxedo.Transaction needs the checker package's OuterChecker.
package txtypes

import (
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
	"github.com/tuxedo-labs/tuxedo/verify"
)

// Output pairs a semantic payload with its spending condition.
type Output struct {
	Payload  payload.Payload `serialize:"true"`
	Verifier verify.Verifier `serialize:"true"`
}

// MarshalCodec writes (payload, verifier).
func (o Output) MarshalCodec(w *codec.Writer) error {
	if err := o.Payload.MarshalCodec(w); err != nil {
		return err
	}
	return o.Verifier.MarshalCodec(w)
}

// UnmarshalCodec reads (payload, verifier).
func (o *Output) UnmarshalCodec(r *codec.Reader) error {
	if err := o.Payload.UnmarshalCodec(r); err != nil {
		return err
	}
	return o.Verifier.UnmarshalCodec(r)
}
