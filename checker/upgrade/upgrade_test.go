// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package upgrade_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/upgrade"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func TestCheckerAcceptsSingleCodeOutput(t *testing.T) {
	out, err := upgrade.NewOutput([]byte{1, 2, 3})
	require.NoError(t, err)

	_, err = upgrade.Checker{}.Check(nil, nil, []payload.Payload{out})
	require.NoError(t, err)
}

func TestCheckerRejectsNonInherentShape(t *testing.T) {
	out, err := upgrade.NewOutput([]byte{1})
	require.NoError(t, err)

	_, err = upgrade.Checker{}.Check(nil, nil, []payload.Payload{out, out})
	require.ErrorIs(t, err, upgrade.ErrWrongShape)
}
