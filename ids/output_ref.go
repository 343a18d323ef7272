package ids

import (
	"encoding/binary"
	"fmt"
)

// OutputRef identifies one output of one transaction: (tx_hash, index).
// It is unique within the chain and is the key into the UTXO Set.
type OutputRef struct {
	TxHash ID     `serialize:"true"`
	Index  uint32 `serialize:"true"`
}

// NewOutputRef builds the OutputRef for the output at position index of the
// transaction whose canonical encoding hashes to txHash.
func NewOutputRef(txHash ID, index uint32) OutputRef {
	return OutputRef{TxHash: txHash, Index: index}
}

// String renders the ref as "<hash>:<index>" for logs and errors.
func (r OutputRef) String() string {
	return fmt.Sprintf("%s:%d", r.TxHash, r.Index)
}

// Bytes renders the ref as a flat 36-byte key (tx hash || big-endian
// index), suitable as a map/store key or dependency tag.
func (r OutputRef) Bytes() []byte {
	b := make([]byte, 32+4)
	copy(b, r.TxHash[:])
	binary.BigEndian.PutUint32(b[32:], r.Index)
	return b
}

// Less gives OutputRef a total order, used for canonical sorting in
// duplicate-detection and deterministic set iteration.
func (r OutputRef) Less(o OutputRef) bool {
	if r.TxHash != o.TxHash {
		return string(r.TxHash[:]) < string(o.TxHash[:])
	}
	return r.Index < o.Index
}
