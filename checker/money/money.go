// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package money implements Coin<ID>, the fungible-coin payload, and the
// Money SimpleConstraintChecker. Grounded on the tux0 wardrobe's
// checked-add total_value helper, generalized to the plain (non-DAP)
// money checker.
package money

import (
	"fmt"
	"math/bits"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
)

// Coin is a fungible coin of the given asset ID and amount. Amounts are
// represented as uint64 rather than a 128-bit integer — see DESIGN.md's
// Open Question decision on u128.
type Coin struct {
	ID     byte
	Amount uint64
}

// TypeIDFor returns the 4-byte tag 'c','o','i',id for the given asset ID.
func TypeIDFor(id byte) payload.TypeID { return payload.TypeID{'c', 'o', 'i', id} }

// TypeIDOf implements payload.Typed.
func (c Coin) TypeIDOf() payload.TypeID { return TypeIDFor(c.ID) }

// MarshalCodec writes (id, amount).
func (c Coin) MarshalCodec(w *codec.Writer) error {
	w.PutByte(c.ID)
	w.PutUint64(c.Amount)
	return nil
}

// UnmarshalCodec reads (id, amount).
func (c *Coin) UnmarshalCodec(r *codec.Reader) error {
	id, err := r.Byte()
	if err != nil {
		return err
	}
	amt, err := r.Uint64()
	if err != nil {
		return err
	}
	c.ID, c.Amount = id, amt
	return nil
}

// NewOutput builds a Coin<id>(amount) payload ready to place in an Output.
func NewOutput(id byte, amount uint64) (payload.Payload, error) {
	return payload.Encode(Coin{ID: id, Amount: amount})
}

// Errors returned by Checker.Check. ErrBadlyTyped is payload.ErrBadlyTyped;
// the other two belong to this package (checker/tux0 declares its own).
var (
	ErrBadlyTyped          = payload.ErrBadlyTyped
	ErrValueOverflow       = fmt.Errorf("money: value overflow")
	ErrOutputsExceedInputs = fmt.Errorf("money: outputs exceed inputs")
)

// Checker implements checker.SimpleConstraintChecker for Coin<ID>: all
// inputs and outputs must be Coin<ID>; accept iff the input sum dominates
// the output sum, with priority equal to the surplus.
type Checker struct {
	ID byte
}

// Check enforces I >= O over Coin<ID> inputs/outputs, ignoring peeks.
func (c Checker) Check(inputs, peeks, outputs []payload.Payload) (uint64, error) {
	in, err := sumCoins(inputs, c.ID)
	if err != nil {
		return 0, err
	}
	out, err := sumCoins(outputs, c.ID)
	if err != nil {
		return 0, err
	}
	if in < out {
		return 0, ErrOutputsExceedInputs
	}
	return in - out, nil
}

// SumCoins checked-sums the amounts of Coin<id> payloads, failing with
// ErrBadlyTyped on anything else and ErrValueOverflow on overflow. It is
// the exported form of the sum Checker.Check uses.
func SumCoins(items []payload.Payload, id byte) (uint64, error) {
	return sumCoins(items, id)
}

func sumCoins(items []payload.Payload, id byte) (uint64, error) {
	var total uint64
	for _, p := range items {
		var coin Coin
		if err := payload.DecodeAs(p, &coin); err != nil {
			return 0, ErrBadlyTyped
		}
		if coin.ID != id {
			return 0, ErrBadlyTyped
		}
		sum, carry := bits.Add64(total, coin.Amount, 0)
		if carry != 0 {
			return 0, ErrValueOverflow
		}
		total = sum
	}
	return total, nil
}
