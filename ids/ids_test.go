// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package ids_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/ids"
)

func TestFromBytesIsDeterministic(t *testing.T) {
	a := ids.FromBytes([]byte("tx bytes"))
	b := ids.FromBytes([]byte("tx bytes"))
	require.Equal(t, a, b)
	require.False(t, a.IsZero())
}

func TestToIDRejectsWrongLength(t *testing.T) {
	_, err := ids.ToID([]byte{1, 2, 3})
	require.ErrorIs(t, err, ids.ErrWrongLength)
}

func TestHexRoundTrip(t *testing.T) {
	id := ids.FromBytes([]byte("round trip me"))
	got, err := ids.FromHex(id.Hex())
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestEmptyIsZero(t *testing.T) {
	require.True(t, ids.Empty.IsZero())
}

func TestOutputRefBytesAndString(t *testing.T) {
	id := ids.FromBytes([]byte("tx"))
	ref := ids.NewOutputRef(id, 3)
	require.Len(t, ref.Bytes(), 36)
	require.Contains(t, ref.String(), ":3")
}

func TestOutputRefLessOrdersByHashThenIndex(t *testing.T) {
	a := ids.NewOutputRef(ids.ID{1}, 5)
	b := ids.NewOutputRef(ids.ID{1}, 6)
	require.True(t, a.Less(b))
	require.False(t, b.Less(a))

	c := ids.NewOutputRef(ids.ID{2}, 0)
	require.True(t, a.Less(c))
}
