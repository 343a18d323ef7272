// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package money_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func coins(t *testing.T, id byte, amounts ...uint64) []payload.Payload {
	t.Helper()
	out := make([]payload.Payload, len(amounts))
	for i, a := range amounts {
		p, err := money.NewOutput(id, a)
		require.NoError(t, err)
		out[i] = p
	}
	return out
}

func TestCheckerAcceptsConservingSplit(t *testing.T) {
	c := money.Checker{ID: 0}
	priority, err := c.Check(coins(t, 0, 100), nil, coins(t, 0, 40, 60))
	require.NoError(t, err)
	require.Equal(t, uint64(0), priority)
}

func TestCheckerAcceptsSurplusAsPriority(t *testing.T) {
	c := money.Checker{ID: 0}
	priority, err := c.Check(coins(t, 0, 100), nil, coins(t, 0, 40))
	require.NoError(t, err)
	require.Equal(t, uint64(60), priority)
}

func TestCheckerRejectsValueCreation(t *testing.T) {
	c := money.Checker{ID: 0}
	_, err := c.Check(coins(t, 0, 100), nil, coins(t, 0, 101))
	require.ErrorIs(t, err, money.ErrOutputsExceedInputs)
}

func TestCheckerRejectsMismatchedAssetID(t *testing.T) {
	c := money.Checker{ID: 0}
	_, err := c.Check(coins(t, 1, 100), nil, coins(t, 0, 100))
	require.ErrorIs(t, err, money.ErrBadlyTyped)
}

func TestSumCoinsOverflow(t *testing.T) {
	_, err := money.SumCoins(coins(t, 0, math.MaxUint64, 1), 0)
	require.ErrorIs(t, err, money.ErrValueOverflow)
}

func TestCheckIgnoresPeeksButCountsAllInputsOutputs(t *testing.T) {
	c := money.Checker{ID: 7}
	peeks := coins(t, 0, 999) // a different asset id, must be ignored entirely
	priority, err := c.Check(coins(t, 7, 5, 5), peeks, coins(t, 7, 10))
	require.NoError(t, err)
	require.Equal(t, uint64(0), priority)
}
