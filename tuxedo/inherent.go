// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package tuxedo

import "github.com/tuxedo-labs/tuxedo/inherent"

// NewInherentTransaction assembles the Transaction the engine submits for
// an inherent checker variant extracted from the inherent data channel.
// Inherent transactions carry no inputs and no peeks.
func NewInherentTransaction(b *inherent.TransactionBuilder) Transaction {
	return Transaction{
		Outputs: append([]Output(nil), b.Outputs...),
		Checker: b.Checker,
	}
}
