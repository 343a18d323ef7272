// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package tuxedo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker"
	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/codec"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/tuxedo"
	"github.com/tuxedo-labs/tuxedo/verify"
)

func sampleTx(t *testing.T) tuxedo.Transaction {
	t.Helper()
	p, err := money.NewOutput(0, 10)
	require.NoError(t, err)
	return tuxedo.Transaction{
		Inputs: []tuxedo.Input{
			{OutputRef: ids.NewOutputRef(ids.ID{1}, 0), Redeemer: []byte{9, 9, 9}},
		},
		Outputs: []tuxedo.Output{
			{Payload: p, Verifier: verify.UpForGrabs()},
		},
		Checker: checker.Money(0),
	}
}

func TestTransactionHashIsDeterministicAndContentAddressed(t *testing.T) {
	tx1 := sampleTx(t)
	tx2 := sampleTx(t)

	h1, err := tx1.Hash()
	require.NoError(t, err)
	h2, err := tx2.Hash()
	require.NoError(t, err)
	require.Equal(t, h1, h2, "identical transactions must hash identically")

	tx2.Outputs[0].Payload.Data = append([]byte(nil), tx2.Outputs[0].Payload.Data...)
	tx2.Outputs[0].Payload.Data[0] ^= 0xff
	h3, err := tx2.Hash()
	require.NoError(t, err)
	require.NotEqual(t, h1, h3)
}

func TestOutputRefAtMatchesHash(t *testing.T) {
	tx := sampleTx(t)
	h, err := tx.Hash()
	require.NoError(t, err)

	ref, err := tx.OutputRefAt(3)
	require.NoError(t, err)
	require.Equal(t, ids.NewOutputRef(h, 3), ref)
}

func TestSimplifiedZeroesRedeemersOnly(t *testing.T) {
	tx := sampleTx(t)
	simple := tx.Simplified()

	require.Len(t, simple.Inputs, 1)
	require.Nil(t, simple.Inputs[0].Redeemer)
	require.Equal(t, tx.Inputs[0].OutputRef, simple.Inputs[0].OutputRef)
	require.Equal(t, tx.Outputs, simple.Outputs)
	require.Equal(t, tx.Checker, simple.Checker)

	// The original must be untouched.
	require.Equal(t, []byte{9, 9, 9}, tx.Inputs[0].Redeemer)
}

func TestSimplifiedBytesIgnoresRedeemerChanges(t *testing.T) {
	tx := sampleTx(t)
	before, err := tx.SimplifiedBytes()
	require.NoError(t, err)

	tx.Inputs[0].Redeemer = []byte{1, 2, 3, 4, 5}
	after, err := tx.SimplifiedBytes()
	require.NoError(t, err)

	require.Equal(t, before, after, "the redeemer must not affect the preimage verifiers sign over")
}

func TestIsInherentReflectsCheckerKind(t *testing.T) {
	tx := sampleTx(t)
	require.False(t, tx.IsInherent())

	tx.Checker = checker.Timestamp()
	require.True(t, tx.IsInherent())
}

func TestTransactionCodecRoundTrip(t *testing.T) {
	tx := sampleTx(t)
	enc, err := codec.Marshal(&tx)
	require.NoError(t, err)

	var got tuxedo.Transaction
	require.NoError(t, codec.Unmarshal(enc, &got))
	require.Equal(t, tx, got)
}

func TestHeaderHashChangesWithParent(t *testing.T) {
	h1 := tuxedo.Header{Number: 1, ParentHash: ids.Empty}
	h2 := tuxedo.Header{Number: 1, ParentHash: ids.ID{1}}

	id1, err := h1.Hash()
	require.NoError(t, err)
	id2, err := h2.Hash()
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)
}

func TestBlockCodecRoundTrip(t *testing.T) {
	block := tuxedo.Block{
		Header:       tuxedo.Header{Number: 7, ParentHash: ids.ID{2}},
		Transactions: []tuxedo.Transaction{sampleTx(t)},
	}
	enc, err := codec.Marshal(&block)
	require.NoError(t, err)

	var got tuxedo.Block
	require.NoError(t, codec.Unmarshal(enc, &got))
	require.Equal(t, block, got)
}
