package tuxedo

import (
	"github.com/tuxedo-labs/tuxedo/codec"
)

// MarshalCodec writes (inputs, peeks, outputs, checker).
func (tx *Transaction) MarshalCodec(w *codec.Writer) error {
	w.PutUint32(uint32(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		if err := in.MarshalCodec(w); err != nil {
			return err
		}
	}
	w.PutUint32(uint32(len(tx.Peeks)))
	for _, p := range tx.Peeks {
		if err := p.MarshalCodec(w); err != nil {
			return err
		}
	}
	w.PutUint32(uint32(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		if err := o.MarshalCodec(w); err != nil {
			return err
		}
	}
	return tx.Checker.MarshalCodec(w)
}

// UnmarshalCodec reads (inputs, peeks, outputs, checker).
func (tx *Transaction) UnmarshalCodec(r *codec.Reader) error {
	nIn, err := r.Uint32()
	if err != nil {
		return err
	}
	tx.Inputs = make([]Input, nIn)
	for i := range tx.Inputs {
		if err := tx.Inputs[i].UnmarshalCodec(r); err != nil {
			return err
		}
	}
	nPeek, err := r.Uint32()
	if err != nil {
		return err
	}
	tx.Peeks = make([]Peek, nPeek)
	for i := range tx.Peeks {
		if err := tx.Peeks[i].UnmarshalCodec(r); err != nil {
			return err
		}
	}
	nOut, err := r.Uint32()
	if err != nil {
		return err
	}
	tx.Outputs = make([]Output, nOut)
	for i := range tx.Outputs {
		if err := tx.Outputs[i].UnmarshalCodec(r); err != nil {
			return err
		}
	}
	return tx.Checker.UnmarshalCodec(r)
}

// MarshalCodec writes (outputRef, redeemer).
func (in Input) MarshalCodec(w *codec.Writer) error {
	if err := in.OutputRef.MarshalCodec(w); err != nil {
		return err
	}
	w.PutBytes(in.Redeemer)
	return nil
}

// UnmarshalCodec reads (outputRef, redeemer).
func (in *Input) UnmarshalCodec(r *codec.Reader) error {
	if err := in.OutputRef.UnmarshalCodec(r); err != nil {
		return err
	}
	redeemer, err := r.Bytes()
	if err != nil {
		return err
	}
	in.Redeemer = redeemer
	return nil
}

// MarshalCodec writes (number, parentHash, stateRoot, extrinsicRoot).
func (h *Header) MarshalCodec(w *codec.Writer) error {
	w.PutUint32(h.Number)
	if err := h.ParentHash.MarshalCodec(w); err != nil {
		return err
	}
	w.PutBytes(h.StateRoot)
	w.PutBytes(h.ExtrinsicRoot)
	return nil
}

// UnmarshalCodec reads (number, parentHash, stateRoot, extrinsicRoot).
func (h *Header) UnmarshalCodec(r *codec.Reader) error {
	n, err := r.Uint32()
	if err != nil {
		return err
	}
	h.Number = n
	if err := h.ParentHash.UnmarshalCodec(r); err != nil {
		return err
	}
	sr, err := r.Bytes()
	if err != nil {
		return err
	}
	h.StateRoot = sr
	er, err := r.Bytes()
	if err != nil {
		return err
	}
	h.ExtrinsicRoot = er
	return nil
}

// MarshalCodec writes (header, transactions).
func (b *Block) MarshalCodec(w *codec.Writer) error {
	if err := b.Header.MarshalCodec(w); err != nil {
		return err
	}
	w.PutUint32(uint32(len(b.Transactions)))
	for i := range b.Transactions {
		if err := b.Transactions[i].MarshalCodec(w); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalCodec reads (header, transactions).
func (b *Block) UnmarshalCodec(r *codec.Reader) error {
	if err := b.Header.UnmarshalCodec(r); err != nil {
		return err
	}
	n, err := r.Uint32()
	if err != nil {
		return err
	}
	b.Transactions = make([]Transaction, n)
	for i := range b.Transactions {
		if err := b.Transactions[i].UnmarshalCodec(r); err != nil {
			return err
		}
	}
	return nil
}
