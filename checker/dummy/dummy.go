// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package dummy implements the trivially-accepting checker used by tests
// and scaffolding.
package dummy

import "github.com/tuxedo-labs/tuxedo/payload"

// Checker accepts any transaction shape unconditionally with priority 0.
type Checker struct{}

// Check always succeeds.
func (Checker) Check(_inputs, _peeks, _outputs []payload.Payload) (uint64, error) {
	return 0, nil
}
