// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package codec implements the engine's single canonical binary encoding:
// length-prefixed variable-size fields and little-endian fixed-size
// integers. Re-encoding a decoded structure is required to be
// byte-identical (the round-trip law) — every on-chain type
// implements Marshaler/Unmarshaler against the Writer/Reader here rather
// than against encoding/gob or JSON, so that transaction hashing is
// deterministic and implementation-independent.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTooShort is returned when a Reader runs out of bytes mid-field.
var ErrTooShort = errors.New("codec: buffer too short")

// ErrNegativeLength is returned when a decoded length prefix is absurd.
var ErrNegativeLength = errors.New("codec: corrupt length prefix")

// MaxSliceLen bounds a single length-prefixed field, guarding against a
// corrupt length prefix driving an enormous allocation.
const MaxSliceLen = 1 << 26 // 64 MiB

// Marshaler is implemented by every on-chain type.
type Marshaler interface {
	MarshalCodec(w *Writer) error
}

// Unmarshaler is implemented by every on-chain type.
type Unmarshaler interface {
	UnmarshalCodec(r *Reader) error
}

// Marshal encodes v's canonical representation.
func Marshal(v Marshaler) ([]byte, error) {
	w := new(Writer)
	if err := v.MarshalCodec(w); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// Unmarshal decodes b into v. It does not require the entire buffer to be
// consumed by v alone; callers that need exact consumption should check
// r.Remaining() == 0 after calling v.UnmarshalCodec.
func Unmarshal(b []byte, v Unmarshaler) error {
	r := NewReader(b)
	return v.UnmarshalCodec(r)
}

// Writer accumulates a canonical encoding.
type Writer struct {
	buf []byte
}

// Bytes returns the accumulated encoding.
func (w *Writer) Bytes() []byte { return w.buf }

// PutByte appends a single byte.
func (w *Writer) PutByte(b byte) { w.buf = append(w.buf, b) }

// PutFixedBytes appends b verbatim, with no length prefix. Used for
// fixed-size fields (hashes, public keys) whose length is implied by the
// containing type.
func (w *Writer) PutFixedBytes(b []byte) { w.buf = append(w.buf, b...) }

// PutUint32 appends a little-endian u32.
func (w *Writer) PutUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutUint64 appends a little-endian u64.
func (w *Writer) PutUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.buf = append(w.buf, tmp[:]...)
}

// PutBytes appends a u32 length prefix followed by b.
func (w *Writer) PutBytes(b []byte) {
	w.PutUint32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// Reader consumes a canonical encoding.
type Reader struct {
	buf []byte
	off int
}

// NewReader wraps b for sequential decoding.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Remaining returns the number of unconsumed bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Byte consumes and returns a single byte.
func (r *Reader) Byte() (byte, error) {
	if r.Remaining() < 1 {
		return 0, ErrTooShort
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// FixedBytes consumes exactly n bytes verbatim.
func (r *Reader) FixedBytes(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, ErrTooShort
	}
	out := make([]byte, n)
	copy(out, r.buf[r.off:r.off+n])
	r.off += n
	return out, nil
}

// Uint32 consumes a little-endian u32.
func (r *Reader) Uint32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, ErrTooShort
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

// Uint64 consumes a little-endian u64.
func (r *Reader) Uint64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, ErrTooShort
	}
	v := binary.LittleEndian.Uint64(r.buf[r.off : r.off+8])
	r.off += 8
	return v, nil
}

// Bytes consumes a u32-length-prefixed byte slice.
func (r *Reader) Bytes() ([]byte, error) {
	n, err := r.Uint32()
	if err != nil {
		return nil, err
	}
	if n > MaxSliceLen {
		return nil, fmt.Errorf("%w: %d exceeds max %d", ErrNegativeLength, n, MaxSliceLen)
	}
	return r.FixedBytes(int(n))
}
