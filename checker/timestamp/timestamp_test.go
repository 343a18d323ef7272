// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package timestamp_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/timestamp"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func TestCheckerAcceptsSingleMomentOutput(t *testing.T) {
	out, err := timestamp.NewOutput(1700000000000)
	require.NoError(t, err)

	_, err = timestamp.Checker{}.Check(nil, nil, []payload.Payload{out})
	require.NoError(t, err)
}

func TestCheckerRejectsNonInherentShape(t *testing.T) {
	out, err := timestamp.NewOutput(1)
	require.NoError(t, err)

	_, err = timestamp.Checker{}.Check([]payload.Payload{out}, nil, []payload.Payload{out})
	require.ErrorIs(t, err, timestamp.ErrWrongShape)
}
