// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package inherent extracts typed values out of the opaque inherent-data
// channel: a byte record passed into block production that the engine
// consults by well-known key to synthesize inherent transactions (the
// timestamp setter, and — when running as a parachain — the
// parachain-validation-data setter).
package inherent

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/tuxedo-labs/tuxedo/checker"
	"github.com/tuxedo-labs/tuxedo/checker/timestamp"
	"github.com/tuxedo-labs/tuxedo/checker/upgrade"
	"github.com/tuxedo-labs/tuxedo/txtypes"
)

// Key identifies one well-known field of the inherent data channel.
type Key [8]byte

// Well-known keys, mirroring the original runtime's two inherent
// extrinsics.
var (
	KeyTimestamp     = Key{'t', 'i', 'm', 's', 't', 'm', 'p', '0'}
	KeyParachainInfo = Key{'p', 'a', 'r', 'a', 'c', 'h', 'a', 'n'}
)

// ErrMissingKey is returned when a required key is absent from Data.
var ErrMissingKey = errors.New("inherent: required key missing")

// Data is the opaque inherent-data record: a flat key-to-bytes map handed
// to the engine ahead of block production. It is deliberately untyped at
// this layer — individual extractors below interpret their own key.
type Data map[Key][]byte

// PutTimestamp stores millis under KeyTimestamp.
func (d Data) PutTimestamp(millis uint64) {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, millis)
	d[KeyTimestamp] = b
}

// PutParachainInfo stores an opaque parachain-validation-data blob under
// KeyParachainInfo.
func (d Data) PutParachainInfo(blob []byte) {
	d[KeyParachainInfo] = append([]byte(nil), blob...)
}

// Timestamp extracts the millisecond timestamp from d.
func (d Data) Timestamp() (uint64, error) {
	b, ok := d[KeyTimestamp]
	if !ok || len(b) != 8 {
		return 0, fmt.Errorf("%w: %x", ErrMissingKey, KeyTimestamp)
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ParachainInfo extracts the opaque parachain-validation-data blob from d,
// ok=false if absent (a solo-chain build never sets this key).
func (d Data) ParachainInfo() ([]byte, bool) {
	b, ok := d[KeyParachainInfo]
	return b, ok
}

// TimestampTransaction synthesizes the inherent timestamp-setter
// transaction from d.
func TimestampTransaction(d Data) (*TransactionBuilder, error) {
	millis, err := d.Timestamp()
	if err != nil {
		return nil, err
	}
	p, err := timestamp.NewOutput(millis)
	if err != nil {
		return nil, err
	}
	return &TransactionBuilder{Outputs: []txtypes.Output{{Payload: p}}, Checker: checker.Timestamp()}, nil
}

// RuntimeUpgradeTransaction synthesizes the inherent runtime-upgrade
// transaction for the given code blob.
func RuntimeUpgradeTransaction(blob []byte) (*TransactionBuilder, error) {
	p, err := upgrade.NewOutput(blob)
	if err != nil {
		return nil, err
	}
	return &TransactionBuilder{Outputs: []txtypes.Output{{Payload: p}}, Checker: checker.RuntimeUpgrade()}, nil
}

// TransactionBuilder is the minimal shape the engine needs to assemble an
// inherent tuxedo.Transaction: no inputs or peeks, a fixed output set, and
// the checker variant that must accept it. It is a plain data carrier
// rather than importing package tuxedo directly, since tuxedo.Transaction
// embeds checker.OuterChecker and package tuxedo is the natural caller of
// this package (avoiding an import cycle).
type TransactionBuilder struct {
	Outputs []txtypes.Output
	Checker checker.OuterChecker
}
