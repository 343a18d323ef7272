// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package poe_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/poe"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func TestClaimCheckerAcceptsSingleOutput(t *testing.T) {
	var h [32]byte
	h[0] = 1
	out, err := poe.NewOutput(h, 10)
	require.NoError(t, err)

	_, err = poe.ClaimChecker{}.Check(nil, nil, []payload.Payload{out})
	require.NoError(t, err)
}

func TestClaimCheckerRejectsWrongArity(t *testing.T) {
	_, err := poe.ClaimChecker{}.Check(nil, nil, nil)
	require.ErrorIs(t, err, poe.ErrWrongArity)
}

func TestRevokeCheckerRequiresOneInputNoOutputs(t *testing.T) {
	var h [32]byte
	in, err := poe.NewOutput(h, 10)
	require.NoError(t, err)

	_, err = poe.RevokeChecker{}.Check([]payload.Payload{in}, nil, nil)
	require.NoError(t, err)

	_, err = poe.RevokeChecker{}.Check(nil, nil, nil)
	require.ErrorIs(t, err, poe.ErrWrongArity)
}

func TestDisputeCheckerPicksEarliestClaim(t *testing.T) {
	var h [32]byte
	h[0] = 9
	a, err := poe.NewOutput(h, 100)
	require.NoError(t, err)
	b, err := poe.NewOutput(h, 50)
	require.NoError(t, err)
	winner, err := poe.NewOutput(h, 50)
	require.NoError(t, err)

	_, err = poe.DisputeChecker{}.Check([]payload.Payload{a, b}, nil, []payload.Payload{winner})
	require.NoError(t, err)
}

func TestDisputeCheckerRejectsMismatchedContent(t *testing.T) {
	var h1, h2 [32]byte
	h1[0], h2[0] = 1, 2
	a, err := poe.NewOutput(h1, 10)
	require.NoError(t, err)
	b, err := poe.NewOutput(h2, 10)
	require.NoError(t, err)

	_, err = poe.DisputeChecker{}.Check([]payload.Payload{a, b}, nil, []payload.Payload{a})
	require.ErrorIs(t, err, poe.ErrMismatchedContent)
}

func TestDisputeCheckerRejectsWrongWinner(t *testing.T) {
	var h [32]byte
	a, err := poe.NewOutput(h, 10)
	require.NoError(t, err)
	b, err := poe.NewOutput(h, 5)
	require.NoError(t, err)
	wrongWinner, err := poe.NewOutput(h, 10)
	require.NoError(t, err)

	_, err = poe.DisputeChecker{}.Check([]payload.Payload{a, b}, nil, []payload.Payload{wrongWinner})
	require.ErrorIs(t, err, poe.ErrWrongWinner)
}
