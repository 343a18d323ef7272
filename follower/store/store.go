// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package store implements the follower's four-table local index on top
// of pebble: block_hashes (number -> hash), blocks (hash -> encoded
// Block), unspent (ref -> encoded Output), and spent (ref -> encoded
// Output, retained for rollback).
//
// One pebble.DB holds all four tables behind per-table byte-string key
// prefixes, written through batched writes, with watermark keys read
// using the pebble.ErrNotFound sentinel idiom for Height/HashAt.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/tuxedo"
	"github.com/tuxedo-labs/tuxedo/txtypes"
)

const (
	prefixBlockHash = "h:" // number (big-endian uint32) -> block hash
	prefixBlock     = "b:" // hash -> encoded Block
	prefixUnspent   = "u:" // OutputRef bytes -> encoded Output
	prefixSpent     = "s:" // OutputRef bytes -> encoded Output
	keyHeight       = "height"
)

// ErrNotFound is returned when a lookup key is absent.
var ErrNotFound = errors.New("store: not found")

// Store is the pebble-backed persisted layout for the follower's four
// tables.
type Store struct {
	db *pebble.DB
}

// Open opens (creating if absent) a Store at dir.
func Open(dir string) (*Store, error) {
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying pebble handle.
func (s *Store) Close() error { return s.db.Close() }

func blockHashKey(number uint32) []byte {
	b := make([]byte, len(prefixBlockHash)+4)
	copy(b, prefixBlockHash)
	binary.BigEndian.PutUint32(b[len(prefixBlockHash):], number)
	return b
}

func blockKey(hash ids.ID) []byte {
	return append([]byte(prefixBlock), hash[:]...)
}

func unspentKey(ref ids.OutputRef) []byte {
	return append([]byte(prefixUnspent), ref.Bytes()...)
}

func spentKey(ref ids.OutputRef) []byte {
	return append([]byte(prefixSpent), ref.Bytes()...)
}

// Batch stages a set of writes across all four tables, committed
// atomically by Commit — the on-disk counterpart of utxoset.Batch, used
// by the follower to apply one synced block's effects in one fsync.
type Batch struct {
	pb *pebble.Batch
}

// NewBatch opens a staged write batch.
func (s *Store) NewBatch() *Batch { return &Batch{pb: s.db.NewBatch()} }

// Commit flushes the batch to disk.
func (b *Batch) Commit() error { return b.pb.Commit(pebble.Sync) }

// Close discards the batch without committing.
func (b *Batch) Close() error { return b.pb.Close() }

// PutBlock records a block's hash-by-number entry and its full encoding.
func (b *Batch) PutBlock(number uint32, hash ids.ID, block *tuxedo.Block) error {
	if err := b.pb.Set(blockHashKey(number), hash[:], nil); err != nil {
		return err
	}
	enc, err := codec.Marshal(block)
	if err != nil {
		return err
	}
	return b.pb.Set(blockKey(hash), enc, nil)
}

// DeleteBlock removes a block's hash-by-number entry; the block body is
// left in place since other branches may still reference it by hash.
func (b *Batch) DeleteBlock(number uint32) error {
	return b.pb.Delete(blockHashKey(number), nil)
}

// SetHeight records the follower's local head height.
func (b *Batch) SetHeight(height uint32) error {
	v := make([]byte, 4)
	binary.BigEndian.PutUint32(v, height)
	return b.pb.Set([]byte(keyHeight), v, nil)
}

// MarkUnspent inserts ref -> out into the unspent table and clears any
// stale spent-table entry for ref (used when rolling a block forward,
// including a forward re-application after rollback).
func (b *Batch) MarkUnspent(ref ids.OutputRef, out txtypes.Output) error {
	enc, err := codec.Marshal(&out)
	if err != nil {
		return err
	}
	if err := b.pb.Set(unspentKey(ref), enc, nil); err != nil {
		return err
	}
	return b.pb.Delete(spentKey(ref), nil)
}

// MarkSpent moves ref from the unspent table to the spent table,
// preserving the output's bytes so a rollback can restore it.
func (b *Batch) MarkSpent(ref ids.OutputRef, out txtypes.Output) error {
	enc, err := codec.Marshal(&out)
	if err != nil {
		return err
	}
	if err := b.pb.Set(spentKey(ref), enc, nil); err != nil {
		return err
	}
	return b.pb.Delete(unspentKey(ref), nil)
}

// UnmarkSpent moves ref back from the spent table to the unspent table —
// the rollback-time inverse of MarkSpent.
func (b *Batch) UnmarkSpent(ref ids.OutputRef, out txtypes.Output) error {
	return b.MarkUnspent(ref, out)
}

// DeleteUnspent removes ref from the unspent table outright (used when
// rolling back a block that introduced ref as a brand-new output).
func (b *Batch) DeleteUnspent(ref ids.OutputRef) error {
	return b.pb.Delete(unspentKey(ref), nil)
}

// --- read path ---------------------------------------------------------

// Height returns the follower's recorded local head height, 0 if none
// has been recorded yet.
func (s *Store) Height() (uint32, error) {
	v, closer, err := s.db.Get([]byte(keyHeight))
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()
	return binary.BigEndian.Uint32(v), nil
}

// HashAt returns the block hash recorded at number.
func (s *Store) HashAt(number uint32) (ids.ID, error) {
	v, closer, err := s.db.Get(blockHashKey(number))
	if errors.Is(err, pebble.ErrNotFound) {
		return ids.ID{}, ErrNotFound
	}
	if err != nil {
		return ids.ID{}, err
	}
	defer closer.Close()
	id, err := ids.ToID(v)
	if err != nil {
		return ids.ID{}, err
	}
	return id, nil
}

// BlockByHash returns the full decoded block stored under hash.
func (s *Store) BlockByHash(hash ids.ID) (*tuxedo.Block, error) {
	v, closer, err := s.db.Get(blockKey(hash))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	var block tuxedo.Block
	if err := codec.Unmarshal(v, &block); err != nil {
		return nil, err
	}
	return &block, nil
}

// GetUnspent returns the output at ref if it is currently unspent.
func (s *Store) GetUnspent(ref ids.OutputRef) (txtypes.Output, bool, error) {
	v, closer, err := s.db.Get(unspentKey(ref))
	if errors.Is(err, pebble.ErrNotFound) {
		return txtypes.Output{}, false, nil
	}
	if err != nil {
		return txtypes.Output{}, false, err
	}
	defer closer.Close()
	var out txtypes.Output
	if err := codec.Unmarshal(v, &out); err != nil {
		return txtypes.Output{}, false, err
	}
	return out, true, nil
}

// GetSpent returns the output at ref if it was previously spent (kept
// for rollback), ok=false otherwise.
func (s *Store) GetSpent(ref ids.OutputRef) (txtypes.Output, bool, error) {
	v, closer, err := s.db.Get(spentKey(ref))
	if errors.Is(err, pebble.ErrNotFound) {
		return txtypes.Output{}, false, nil
	}
	if err != nil {
		return txtypes.Output{}, false, err
	}
	defer closer.Close()
	var out txtypes.Output
	if err := codec.Unmarshal(v, &out); err != nil {
		return txtypes.Output{}, false, err
	}
	return out, true, nil
}

// ArbitraryUnspentSet accumulates unspent outputs in iteration order,
// calling amountOf on each to learn its coin value, until the summed
// amounts reach targetValue. ok=false means the table was exhausted
// first — the caller-visible "insufficient funds" signal — in which
// case refs is nil. targetValue 0 always succeeds with an empty set
// without touching the iterator.
func (s *Store) ArbitraryUnspentSet(targetValue uint64, amountOf func(ids.OutputRef, txtypes.Output) (uint64, bool)) (refs []ids.OutputRef, ok bool, err error) {
	if targetValue == 0 {
		return nil, true, nil
	}

	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixUnspent),
		UpperBound: prefixUpperBound(prefixUnspent),
	})
	if err != nil {
		return nil, false, err
	}
	defer iter.Close()

	var total uint64
	for iter.First(); total < targetValue && iter.Valid(); iter.Next() {
		key := iter.Key()[len(prefixUnspent):]
		ref, err := refFromBytes(key)
		if err != nil {
			continue
		}
		var out txtypes.Output
		if err := codec.Unmarshal(iter.Value(), &out); err != nil {
			continue
		}
		amount, ok := amountOf(ref, out)
		if !ok {
			continue
		}
		total += amount
		refs = append(refs, ref)
	}
	if err := iter.Error(); err != nil {
		return nil, false, err
	}
	if total < targetValue {
		return nil, false, nil
	}
	return refs, true, nil
}

// AllUnspent iterates every unspent output, optionally restricted by
// filter (nil means no restriction). Used by queries that need the
// whole table rather than a target-value-bounded subset, such as
// balances().
func (s *Store) AllUnspent(filter func(ids.OutputRef, txtypes.Output) bool) ([]ids.OutputRef, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(prefixUnspent),
		UpperBound: prefixUpperBound(prefixUnspent),
	})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var refs []ids.OutputRef
	for iter.First(); iter.Valid(); iter.Next() {
		key := iter.Key()[len(prefixUnspent):]
		ref, err := refFromBytes(key)
		if err != nil {
			continue
		}
		var out txtypes.Output
		if err := codec.Unmarshal(iter.Value(), &out); err != nil {
			continue
		}
		if filter == nil || filter(ref, out) {
			refs = append(refs, ref)
		}
	}
	return refs, iter.Error()
}

func refFromBytes(b []byte) (ids.OutputRef, error) {
	if len(b) != 36 {
		return ids.OutputRef{}, fmt.Errorf("store: malformed output ref key (%d bytes)", len(b))
	}
	hash, err := ids.ToID(b[:32])
	if err != nil {
		return ids.OutputRef{}, err
	}
	return ids.NewOutputRef(hash, binary.BigEndian.Uint32(b[32:])), nil
}

func prefixUpperBound(prefix string) []byte {
	b := []byte(prefix)
	upper := append([]byte(nil), b...)
	for i := len(upper) - 1; i >= 0; i-- {
		upper[i]++
		if upper[i] != 0 {
			return upper[:i+1]
		}
	}
	return nil
}
