// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package utxoset_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/utxoset"
	"github.com/tuxedo-labs/tuxedo/verify"
)

func coinOutput(t *testing.T, amount uint64) txtypes.Output {
	t.Helper()
	p, err := money.NewOutput(0, amount)
	require.NoError(t, err)
	return txtypes.Output{Payload: p, Verifier: verify.UpForGrabs()}
}

func ref(b byte, i uint32) ids.OutputRef {
	var h ids.ID
	h[0] = b
	return ids.NewOutputRef(h, i)
}

func TestMapSetConsumeIsDestructive(t *testing.T) {
	s := utxoset.New()
	r := ref(1, 0)
	require.NoError(t, s.Insert(r, coinOutput(t, 10)))

	_, err := s.Consume(r)
	require.NoError(t, err)

	_, err = s.Consume(r)
	require.ErrorIs(t, err, utxoset.ErrNotFound, "double-spend of an already-consumed output must fail")
}

func TestMapSetInsertRejectsDuplicateRef(t *testing.T) {
	s := utxoset.New()
	r := ref(2, 0)
	require.NoError(t, s.Insert(r, coinOutput(t, 10)))
	err := s.Insert(r, coinOutput(t, 20))
	require.ErrorIs(t, err, utxoset.ErrDuplicate)
}

func TestBatchDoesNotMutateBackingUntilCommit(t *testing.T) {
	s := utxoset.New()
	r := ref(3, 0)
	require.NoError(t, s.Insert(r, coinOutput(t, 10)))

	b := utxoset.NewBatch(s)
	_, err := b.Consume(r)
	require.NoError(t, err)

	// The backing set is untouched until Commit.
	_, ok := s.Peek(r)
	require.True(t, ok)

	require.NoError(t, b.Commit())
	_, ok = s.Peek(r)
	require.False(t, ok)
}

func TestBatchDiscardLeavesBackingUntouched(t *testing.T) {
	s := utxoset.New()
	r := ref(4, 0)
	require.NoError(t, s.Insert(r, coinOutput(t, 10)))

	b := utxoset.NewBatch(s)
	_, err := b.Consume(r)
	require.NoError(t, err)
	newRef := ref(4, 1)
	require.NoError(t, b.Insert(newRef, coinOutput(t, 5)))
	// Simulate a rejected block: the batch is simply dropped, never committed.

	_, ok := s.Peek(r)
	require.True(t, ok, "original output must survive an uncommitted batch")
	_, ok = s.Peek(newRef)
	require.False(t, ok, "staged insert must not leak into the backing set")
}

func TestBatchRejectsDoubleConsumeWithinOneBatch(t *testing.T) {
	s := utxoset.New()
	r := ref(5, 0)
	require.NoError(t, s.Insert(r, coinOutput(t, 10)))

	b := utxoset.NewBatch(s)
	_, err := b.Consume(r)
	require.NoError(t, err)
	_, err = b.Consume(r)
	require.ErrorIs(t, err, utxoset.ErrNotFound, "two inputs in the same block spending the same output must not both succeed")
}

func TestBatchChainedOutputWithinOneBlock(t *testing.T) {
	s := utxoset.New()
	b := utxoset.NewBatch(s)

	intermediate := ref(6, 0)
	require.NoError(t, b.Insert(intermediate, coinOutput(t, 10)))

	// A later transaction in the same block spends the output the first
	// transaction just introduced — must resolve via the batch overlay,
	// not the (not-yet-committed) backing set.
	out, err := b.Consume(intermediate)
	require.NoError(t, err)
	require.NotZero(t, out)

	require.NoError(t, b.Commit())
	require.Equal(t, 0, s.Len())
}
