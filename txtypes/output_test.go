// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package txtypes_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/verify"
)

func TestOutputCodecRoundTrip(t *testing.T) {
	p, err := money.NewOutput(0, 77)
	require.NoError(t, err)
	out := txtypes.Output{Payload: p, Verifier: verify.SigCheck([]byte{1, 2, 3})}

	enc, err := codec.Marshal(&out)
	require.NoError(t, err)

	var got txtypes.Output
	require.NoError(t, codec.Unmarshal(enc, &got))
	require.Equal(t, out, got)
}
