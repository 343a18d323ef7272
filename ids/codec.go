package ids

import "github.com/tuxedo-labs/tuxedo/codec"

// MarshalCodec writes the raw 32-byte digest with no length prefix.
func (id ID) MarshalCodec(w *codec.Writer) error {
	w.PutFixedBytes(id[:])
	return nil
}

// UnmarshalCodec reads a raw 32-byte digest.
func (id *ID) UnmarshalCodec(r *codec.Reader) error {
	b, err := r.FixedBytes(len(id))
	if err != nil {
		return err
	}
	copy(id[:], b)
	return nil
}

// MarshalCodec writes (tx_hash, index).
func (r OutputRef) MarshalCodec(w *codec.Writer) error {
	if err := r.TxHash.MarshalCodec(w); err != nil {
		return err
	}
	w.PutUint32(r.Index)
	return nil
}

// UnmarshalCodec reads (tx_hash, index).
func (r *OutputRef) UnmarshalCodec(rd *codec.Reader) error {
	if err := r.TxHash.UnmarshalCodec(rd); err != nil {
		return err
	}
	idx, err := rd.Uint32()
	if err != nil {
		return err
	}
	r.Index = idx
	return nil
}
