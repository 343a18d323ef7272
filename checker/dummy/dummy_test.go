// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package dummy_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/dummy"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func TestCheckerAcceptsAnyShape(t *testing.T) {
	priority, err := dummy.Checker{}.Check(nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, uint64(0), priority)

	junk := payload.Payload{Type: payload.TypeID{1, 2, 3, 4}, Data: []byte{5, 6}}
	priority, err = dummy.Checker{}.Check([]payload.Payload{junk}, []payload.Payload{junk}, []payload.Payload{junk, junk})
	require.NoError(t, err)
	require.Equal(t, uint64(0), priority)
}
