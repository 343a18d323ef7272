// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package codec_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/codec"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := new(codec.Writer)
	w.PutByte(7)
	w.PutFixedBytes([]byte{1, 2, 3, 4})
	w.PutUint32(0xdeadbeef)
	w.PutUint64(0x0123456789abcdef)
	w.PutBytes([]byte("hello tuxedo"))

	r := codec.NewReader(w.Bytes())

	b, err := r.Byte()
	require.NoError(t, err)
	require.Equal(t, byte(7), b)

	fixed, err := r.FixedBytes(4)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, fixed)

	u32, err := r.Uint32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), u32)

	u64, err := r.Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0123456789abcdef), u64)

	bytes, err := r.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("hello tuxedo"), bytes)

	require.Zero(t, r.Remaining())
}

func TestReaderTooShort(t *testing.T) {
	r := codec.NewReader([]byte{1, 2})
	_, err := r.Uint32()
	require.ErrorIs(t, err, codec.ErrTooShort)
}

func TestReaderBytesRejectsCorruptLength(t *testing.T) {
	w := new(codec.Writer)
	w.PutUint32(codec.MaxSliceLen + 1)
	r := codec.NewReader(w.Bytes())
	_, err := r.Bytes()
	require.ErrorIs(t, err, codec.ErrNegativeLength)
}

type fixedPair struct {
	A byte
	B uint64
}

func (p fixedPair) MarshalCodec(w *codec.Writer) error {
	w.PutByte(p.A)
	w.PutUint64(p.B)
	return nil
}

func (p *fixedPair) UnmarshalCodec(r *codec.Reader) error {
	a, err := r.Byte()
	if err != nil {
		return err
	}
	b, err := r.Uint64()
	if err != nil {
		return err
	}
	p.A, p.B = a, b
	return nil
}

func TestMarshalUnmarshalEntryPoints(t *testing.T) {
	want := fixedPair{A: 9, B: 42}
	enc, err := codec.Marshal(want)
	require.NoError(t, err)

	var got fixedPair
	require.NoError(t, codec.Unmarshal(enc, &got))
	require.Equal(t, want, got)
}
