// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ids defines the content-addressed identifiers used across the
// engine: transaction/block hashes and output references. It has no
// pubkey-derived address type.
package ids

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/tuxedo-labs/tuxedo/hashing"
)

// ErrWrongLength is returned when decoding a byte slice of the wrong size
// into a fixed-length ID.
var ErrWrongLength = errors.New("wrong length")

// ID is a 32-byte blake2b-256 digest identifying a transaction or block.
type ID [hashing.HashLen]byte

// Empty is the zero-valued ID, used to mark "no parent" for genesis.
var Empty ID

// FromBytes computes the ID of buf, i.e. blake2b-256(buf).
func FromBytes(buf []byte) ID {
	return ID(hashing.Hash256(buf))
}

// ToID interprets b as a raw, already-hashed 32-byte identifier.
func ToID(b []byte) (ID, error) {
	var id ID
	if len(b) != len(id) {
		return id, fmt.Errorf("%w: expected %d bytes, got %d", ErrWrongLength, len(id), len(b))
	}
	copy(id[:], b)
	return id, nil
}

// IsZero reports whether id is the empty ID.
func (id ID) IsZero() bool { return id == Empty }

// String renders the ID as base58, matching the pack's address/hash
// rendering convention.
func (id ID) String() string { return base58.Encode(id[:]) }

// Hex renders the ID as a hex string, handy for logs and test fixtures.
func (id ID) Hex() string { return hex.EncodeToString(id[:]) }

// FromHex parses the hex rendering produced by Hex back into an ID.
func FromHex(s string) (ID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ID{}, fmt.Errorf("ids: decoding hex id: %w", err)
	}
	return ToID(b)
}

// Bytes returns a copy of the underlying digest.
func (id ID) Bytes() []byte {
	out := make([]byte, len(id))
	copy(out, id[:])
	return out
}
