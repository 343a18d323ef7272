// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package checker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker"
	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/checker/tux0"
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/verify"
)

func moneyOutput(t *testing.T, id byte, amount uint64) txtypes.Output {
	t.Helper()
	p, err := money.NewOutput(id, amount)
	require.NoError(t, err)
	return txtypes.Output{Payload: p, Verifier: verify.UpForGrabs()}
}

func TestOuterCheckerDispatchesMoneyToSimpleChecker(t *testing.T) {
	c := checker.Money(0)
	priority, err := c.Check(
		[]txtypes.Output{moneyOutput(t, 0, 10)},
		nil,
		[]txtypes.Output{moneyOutput(t, 0, 4), moneyOutput(t, 0, 6)},
	)
	require.NoError(t, err)
	require.Equal(t, uint64(0), priority)
}

func TestOuterCheckerDispatchesTux0TransferStructurally(t *testing.T) {
	c := checker.Tux0Transfer(0)
	p, err := tux0.NewOutput(0, []byte{1})
	require.NoError(t, err)
	input := txtypes.Output{Payload: p, Verifier: verify.Tux0Transfer(0)}
	output := moneyOutput(t, 0, 1)

	priority, err := c.Check([]txtypes.Output{input}, nil, []txtypes.Output{output})
	require.NoError(t, err)
	require.Equal(t, uint64(0), priority)
}

func TestOuterCheckerUnknownKindErrors(t *testing.T) {
	c := checker.OuterChecker{Kind: checker.Kind(255)}
	_, err := c.Check(nil, nil, nil)
	require.Error(t, err)
}

func TestIsInherentOnlyForTimestampAndUpgrade(t *testing.T) {
	require.True(t, checker.Timestamp().IsInherent())
	require.True(t, checker.RuntimeUpgrade().IsInherent())
	require.False(t, checker.Money(0).IsInherent())
	require.False(t, checker.Dummy().IsInherent())
}

func TestOuterCheckerCodecRoundTrip(t *testing.T) {
	c := checker.Tux0Mint(7)
	enc, err := codec.Marshal(c)
	require.NoError(t, err)

	var got checker.OuterChecker
	require.NoError(t, codec.Unmarshal(enc, &got))
	require.Equal(t, c, got)
}
