// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package inherent_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker"
	"github.com/tuxedo-labs/tuxedo/inherent"
)

func TestTimestampRoundTripsThroughData(t *testing.T) {
	d := make(inherent.Data)
	d.PutTimestamp(1700000000000)

	got, err := d.Timestamp()
	require.NoError(t, err)
	require.Equal(t, uint64(1700000000000), got)
}

func TestTimestampMissingKeyFails(t *testing.T) {
	d := make(inherent.Data)
	_, err := d.Timestamp()
	require.ErrorIs(t, err, inherent.ErrMissingKey)
}

func TestParachainInfoOkFalseWhenAbsent(t *testing.T) {
	d := make(inherent.Data)
	_, ok := d.ParachainInfo()
	require.False(t, ok, "a solo-chain build never sets the parachain key")
}

func TestParachainInfoRoundTrip(t *testing.T) {
	d := make(inherent.Data)
	d.PutParachainInfo([]byte{1, 2, 3})

	got, ok := d.ParachainInfo()
	require.True(t, ok)
	require.Equal(t, []byte{1, 2, 3}, got)
}

func TestTimestampTransactionBuildsExpectedShape(t *testing.T) {
	d := make(inherent.Data)
	d.PutTimestamp(42)

	builder, err := inherent.TimestampTransaction(d)
	require.NoError(t, err)
	require.Len(t, builder.Outputs, 1)
	require.Equal(t, checker.Timestamp(), builder.Checker)
}

func TestRuntimeUpgradeTransactionBuildsExpectedShape(t *testing.T) {
	builder, err := inherent.RuntimeUpgradeTransaction([]byte{9, 9})
	require.NoError(t, err)
	require.Len(t, builder.Outputs, 1)
	require.Equal(t, checker.RuntimeUpgrade(), builder.Checker)
}
