// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package payload implements the Dynamic Payload: a self-describing byte
// blob tagged with a 4-byte type identifier, the encoding/decoding
// boundary between typed domain data (coin amounts, DAP commitments,
// timestamps, ...) and opaque storage in an Output.
package payload

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/tuxedo-labs/tuxedo/codec"
)

// TypeID is the 4-byte ASCII tag stamped on every payload kind. Type IDs
// are parameterized by a single trailing byte (an asset "ID") for
// families like Coin and DAPCoin; collisions across kinds are forbidden.
type TypeID [4]byte

// ErrBadlyTyped is returned by DecodeAs when the stored type id does not
// match the expected kind, or when the inner bytes fail to decode as that
// kind.
var ErrBadlyTyped = errors.New("payload: badly typed")

// Typed is implemented by every concrete payload kind (Coin, DAPCoin,
// Timestamp, ...). TypeIDOf must return a constant value per Go type.
type Typed interface {
	codec.Marshaler
	TypeIDOf() TypeID
}

// Payload is a value object: identity is by bytes.
type Payload struct {
	Type TypeID
	Data []byte
}

// Encode tags v's canonical encoding with its type id and wraps both in a
// Payload.
func Encode(v Typed) (Payload, error) {
	data, err := codec.Marshal(v)
	if err != nil {
		return Payload{}, fmt.Errorf("payload: encode: %w", err)
	}
	return Payload{Type: v.TypeIDOf(), Data: data}, nil
}

// DecodeAs decodes p into dst, a pointer to a concrete Typed payload kind
// (e.g. *money.Coin). dst's TypeIDOf is parameterized by fields UnmarshalCodec
// itself populates (e.g. Coin's asset ID byte), so the type tag is checked
// against dst.TypeIDOf() only after decoding, once those fields are set.
// DecodeAs fails with ErrBadlyTyped when the resulting type id does not
// match p's, or when the inner bytes are not a canonical encoding of dst's
// type.
func DecodeAs(p Payload, dst interface {
	codec.Unmarshaler
	TypeIDOf() TypeID
}) error {
	r := codec.NewReader(p.Data)
	if err := dst.UnmarshalCodec(r); err != nil {
		return fmt.Errorf("%w: %v", ErrBadlyTyped, err)
	}
	if r.Remaining() != 0 {
		return fmt.Errorf("%w: trailing bytes", ErrBadlyTyped)
	}
	if p.Type != dst.TypeIDOf() {
		return fmt.Errorf("%w: expected %q, got %q", ErrBadlyTyped, dst.TypeIDOf(), p.Type)
	}
	return nil
}

// Equal reports whether two payloads are bit-identical.
func (p Payload) Equal(o Payload) bool {
	return p.Type == o.Type && bytes.Equal(p.Data, o.Data)
}

// MarshalCodec writes (type[4], len-prefixed data).
func (p Payload) MarshalCodec(w *codec.Writer) error {
	w.PutFixedBytes(p.Type[:])
	w.PutBytes(p.Data)
	return nil
}

// UnmarshalCodec reads (type[4], len-prefixed data).
func (p *Payload) UnmarshalCodec(r *codec.Reader) error {
	t, err := r.FixedBytes(4)
	if err != nil {
		return err
	}
	copy(p.Type[:], t)
	data, err := r.Bytes()
	if err != nil {
		return err
	}
	p.Data = data
	return nil
}

// String renders the type tag for logs, falling back to a quoted byte
// sequence when it isn't printable ASCII.
func (t TypeID) String() string {
	for _, b := range t {
		if b < 0x20 || b > 0x7e {
			return fmt.Sprintf("%x", [4]byte(t))
		}
	}
	return string(t[:])
}
