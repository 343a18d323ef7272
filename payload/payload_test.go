// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package payload_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/checker/tux0"
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/payload"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, id := range []byte{0, 1, 5, 255} {
		p, err := money.NewOutput(id, 123456)
		require.NoError(t, err)
		require.Equal(t, money.TypeIDFor(id), p.Type)

		var coin money.Coin
		require.NoError(t, payload.DecodeAs(p, &coin))
		require.Equal(t, id, coin.ID)
		require.Equal(t, uint64(123456), coin.Amount)
	}
}

// TestDecodeAsChecksTagAfterDecode guards the ordering fix: an
// asset-parameterized payload kind's TypeIDOf depends on a field
// UnmarshalCodec itself populates, so the stored tag must be checked
// only after decoding populates it, never against a zero-valued dst.
func TestDecodeAsChecksTagAfterDecode(t *testing.T) {
	p, err := money.NewOutput(42, 7)
	require.NoError(t, err)

	var coin money.Coin
	require.NoError(t, payload.DecodeAs(p, &coin))
	require.Equal(t, byte(42), coin.ID)
	require.Equal(t, uint64(7), coin.Amount)
}

func TestDecodeAsRejectsWrongKind(t *testing.T) {
	p, err := money.NewOutput(0, 1)
	require.NoError(t, err)

	var dap tux0.DAPCoin
	err = payload.DecodeAs(p, &dap)
	require.ErrorIs(t, err, payload.ErrBadlyTyped)
}

func TestDecodeAsRejectsTrailingBytes(t *testing.T) {
	p, err := money.NewOutput(0, 1)
	require.NoError(t, err)
	p.Data = append(p.Data, 0xff)

	var coin money.Coin
	err = payload.DecodeAs(p, &coin)
	require.ErrorIs(t, err, payload.ErrBadlyTyped)
}

func TestPayloadEqualAndCodecRoundTrip(t *testing.T) {
	a, err := money.NewOutput(3, 10)
	require.NoError(t, err)
	b, err := money.NewOutput(3, 10)
	require.NoError(t, err)
	require.True(t, a.Equal(b))

	enc, err := codec.Marshal(a)
	require.NoError(t, err)
	var decoded payload.Payload
	require.NoError(t, codec.Unmarshal(enc, &decoded))
	require.True(t, a.Equal(decoded))
}

func TestTypeIDString(t *testing.T) {
	// id 0 is not printable ASCII, so String falls back to hex rendering.
	require.Equal(t, "636f6900", money.TypeIDFor(0).String())
	// A printable asset id renders as plain ASCII.
	require.Equal(t, "coi!", money.TypeIDFor('!').String())
}
