// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package utxoset implements the UTXO Set: the authoritative key-value
// store mapping output references to outputs, with peek, consume, and
// insert, plus a block-scoped atomic commit/rollback batch so a failing
// block leaves the set untouched.
//
// Grounded on vms/avm/import_tx.go's ExecuteWithSideEffects, which stages
// writes in a versiondb.New(smDB) batch and commits only once the whole
// transaction has validated — generalized here to a whole-block scope.
package utxoset

import (
	"errors"

	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/txtypes"
)

// ErrNotFound is returned by Consume when the referenced output does not
// exist.
var ErrNotFound = errors.New("utxoset: output not found")

// ErrDuplicate is returned by Insert when the OutputRef already exists —
// a fatal consensus error, since it would mean a hash collision.
var ErrDuplicate = errors.New("utxoset: output ref already exists")

// Set is the UTXO Set contract.
type Set interface {
	// Peek returns the output at ref without consuming it, or ok=false.
	Peek(ref ids.OutputRef) (txtypes.Output, bool)
	// Consume removes and returns the output at ref, or ErrNotFound.
	Consume(ref ids.OutputRef) (txtypes.Output, error)
	// Insert adds a brand-new output at ref, or ErrDuplicate.
	Insert(ref ids.OutputRef, out txtypes.Output) error
}

// MapSet is the in-memory, single-threaded implementation used by the
// engine, which is single-threaded and cooperative within one
// block-application scope.
type MapSet struct {
	m map[ids.OutputRef]txtypes.Output
}

// New returns an empty MapSet.
func New() *MapSet {
	return &MapSet{m: make(map[ids.OutputRef]txtypes.Output)}
}

// Peek implements Set.
func (s *MapSet) Peek(ref ids.OutputRef) (txtypes.Output, bool) {
	out, ok := s.m[ref]
	return out, ok
}

// Consume implements Set.
func (s *MapSet) Consume(ref ids.OutputRef) (txtypes.Output, error) {
	out, ok := s.m[ref]
	if !ok {
		return txtypes.Output{}, ErrNotFound
	}
	delete(s.m, ref)
	return out, nil
}

// Insert implements Set.
func (s *MapSet) Insert(ref ids.OutputRef, out txtypes.Output) error {
	if _, exists := s.m[ref]; exists {
		return ErrDuplicate
	}
	s.m[ref] = out
	return nil
}

// Len reports the number of live outputs, mostly useful in tests.
func (s *MapSet) Len() int { return len(s.m) }

// Batch stages consumes/inserts against a backing Set without mutating it
// until Commit is called; discarding the Batch without calling Commit
// leaves the backing Set untouched. This is the single atomic scope
// block application runs inside.
type Batch struct {
	backing   Set
	consumed  map[ids.OutputRef]txtypes.Output
	inserted  map[ids.OutputRef]txtypes.Output
	tombstone map[ids.OutputRef]bool
}

// NewBatch opens a staged write scope over backing.
func NewBatch(backing Set) *Batch {
	return &Batch{
		backing:   backing,
		consumed:  make(map[ids.OutputRef]txtypes.Output),
		inserted:  make(map[ids.OutputRef]txtypes.Output),
		tombstone: make(map[ids.OutputRef]bool),
	}
}

// Peek looks through staged inserts/tombstones to the backing set.
func (b *Batch) Peek(ref ids.OutputRef) (txtypes.Output, bool) {
	if b.tombstone[ref] {
		return txtypes.Output{}, false
	}
	if out, ok := b.inserted[ref]; ok {
		return out, true
	}
	return b.backing.Peek(ref)
}

// Consume stages removal of ref, failing with ErrNotFound if it is not
// visible in this batch.
func (b *Batch) Consume(ref ids.OutputRef) (txtypes.Output, error) {
	out, ok := b.Peek(ref)
	if !ok {
		return txtypes.Output{}, ErrNotFound
	}
	delete(b.inserted, ref)
	b.tombstone[ref] = true
	b.consumed[ref] = out
	return out, nil
}

// Insert stages a brand-new output, failing with ErrDuplicate if ref is
// already visible in this batch (including outputs inserted earlier in
// the same batch, so two transactions in one block cannot collide).
func (b *Batch) Insert(ref ids.OutputRef, out txtypes.Output) error {
	if _, ok := b.Peek(ref); ok {
		return ErrDuplicate
	}
	delete(b.tombstone, ref)
	b.inserted[ref] = out
	return nil
}

// Commit applies every staged consume/insert to the backing set. It is
// the caller's responsibility to call Commit only after every
// transaction in the block has validated; on any earlier failure the
// Batch should simply be discarded, leaving the backing set unchanged.
func (b *Batch) Commit() error {
	for ref := range b.tombstone {
		if _, err := b.backing.Consume(ref); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	for ref, out := range b.inserted {
		if err := b.backing.Insert(ref, out); err != nil {
			return err
		}
	}
	return nil
}
