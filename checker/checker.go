// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package checker defines the Constraint Checker contracts and the
// closed OuterConstraintChecker tagged union that every Transaction
// carries. Generalizes vms/avm/tx.go's per-UnsignedTx-variant
// SyntacticVerify/SemanticVerify dispatch into a single tagged union.
package checker

import (
	"errors"
	"fmt"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
	"github.com/tuxedo-labs/tuxedo/txtypes"
)

// Package-level error sentinels. ErrBadlyTyped is payload.ErrBadlyTyped,
// which the checker/* packages return for mistyped payloads; those
// packages declare their own overflow and outputs-exceed-inputs sentinels
// and do not return ErrValueOverflow, ErrOutputsExceedInputs or
// ErrNotImplemented from this package.
var (
	ErrBadlyTyped         = payload.ErrBadlyTyped
	ErrValueOverflow      = errors.New("checker: value overflow")
	ErrOutputsExceedInputs = errors.New("checker: outputs exceed inputs")
	ErrNotImplemented     = errors.New("checker: not implemented")
)

// SimpleConstraintChecker looks only at payloads — used for stateless
// semantic rules like value conservation, where the verifier type of the
// outputs involved is irrelevant.
type SimpleConstraintChecker interface {
	Check(inputs, peeks, outputs []payload.Payload) (priority uint64, err error)
}

// ConstraintChecker looks at full outputs (payload + verifier) — required
// when the check must consult the verifier type, e.g. Tux0Transfer
// restricting its inputs to outputs locked by a Tux0Transfer verifier.
type ConstraintChecker interface {
	Check(inputs, peeks, outputs []txtypes.Output) (priority uint64, err error)
}

// Kind discriminates the closed set of checker variants an
// OuterConstraintChecker may hold.
type Kind byte

const (
	KindMoney Kind = iota
	KindTux0Mint
	KindTux0Transfer
	KindPoEClaim
	KindPoERevoke
	KindPoEDispute
	KindTimestamp
	KindAmoebaCreation
	KindAmoebaMitosis
	KindAmoebaDeath
	KindRuntimeUpgrade
	KindDummy
)

// inherentKinds are exempt from the "at least one input" rule.
var inherentKinds = map[Kind]bool{
	KindTimestamp:      true,
	KindRuntimeUpgrade: true,
}

// OuterChecker is the closed tagged union stored on every Transaction.
// CoinID parameterizes the Money/Tux0 family, standing in for a
// const-generic coin-ID type parameter.
type OuterChecker struct {
	Kind   Kind
	CoinID byte
}

// IsInherent reports whether this checker variant exempts its transaction
// from the non-inherent "at least one input" structural rule.
func (c OuterChecker) IsInherent() bool { return inherentKinds[c.Kind] }

// Dummy is used by tests and by genesis scaffolding to trivially accept a
// transaction with priority 0.
func Dummy() OuterChecker { return OuterChecker{Kind: KindDummy} }

// Money builds the fungible Coin<id> checker variant.
func Money(id byte) OuterChecker { return OuterChecker{Kind: KindMoney, CoinID: id} }

// Tux0Mint builds the Tux0Mint<id> checker variant.
func Tux0Mint(id byte) OuterChecker { return OuterChecker{Kind: KindTux0Mint, CoinID: id} }

// Tux0Transfer builds the Tux0Transfer<id> checker variant.
func Tux0Transfer(id byte) OuterChecker { return OuterChecker{Kind: KindTux0Transfer, CoinID: id} }

// Timestamp builds the inherent timestamp-setter checker variant.
func Timestamp() OuterChecker { return OuterChecker{Kind: KindTimestamp} }

// RuntimeUpgrade builds the inherent runtime-upgrade checker variant.
func RuntimeUpgrade() OuterChecker { return OuterChecker{Kind: KindRuntimeUpgrade} }

// PoEClaim/PoERevoke/PoEDispute build the proof-of-existence checker
// variants.
func PoEClaim() OuterChecker  { return OuterChecker{Kind: KindPoEClaim} }
func PoERevoke() OuterChecker { return OuterChecker{Kind: KindPoERevoke} }
func PoEDispute() OuterChecker { return OuterChecker{Kind: KindPoEDispute} }

// AmoebaCreation/AmoebaMitosis/AmoebaDeath build the Amoeba checker
// variants.
func AmoebaCreation() OuterChecker { return OuterChecker{Kind: KindAmoebaCreation} }
func AmoebaMitosis() OuterChecker  { return OuterChecker{Kind: KindAmoebaMitosis} }
func AmoebaDeath() OuterChecker    { return OuterChecker{Kind: KindAmoebaDeath} }

// MarshalCodec writes the tagged-union encoding of c.
func (c OuterChecker) MarshalCodec(w *codec.Writer) error {
	w.PutByte(byte(c.Kind))
	w.PutByte(c.CoinID)
	return nil
}

// UnmarshalCodec reads the tagged-union encoding into c.
func (c *OuterChecker) UnmarshalCodec(r *codec.Reader) error {
	k, err := r.Byte()
	if err != nil {
		return err
	}
	id, err := r.Byte()
	if err != nil {
		return err
	}
	c.Kind = Kind(k)
	c.CoinID = id
	return nil
}

func (c OuterChecker) String() string {
	return fmt.Sprintf("OuterChecker{kind=%d, coinID=%d}", c.Kind, c.CoinID)
}
