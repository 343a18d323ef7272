// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package follower_test

import (
	"context"
	"encoding/hex"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/checker"
	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/checker/poe"
	"github.com/tuxedo-labs/tuxedo/follower"
	"github.com/tuxedo-labs/tuxedo/follower/store"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/tuxedo"
	"github.com/tuxedo-labs/tuxedo/verify"
)

var errBlockNotFound = errors.New("fakeOracle: no block for hash")

// fakeOracle is an in-memory canonical chain the tests can mutate to
// simulate forward progress and reorgs.
type fakeOracle struct {
	mu     sync.Mutex
	blocks []*tuxedo.Block // index i is the block at height i
	hashes []ids.ID
}

func newFakeOracle() *fakeOracle { return &fakeOracle{} }

func (o *fakeOracle) append(block *tuxedo.Block) ids.ID {
	o.mu.Lock()
	defer o.mu.Unlock()
	hash, err := block.Header.Hash()
	if err != nil {
		panic(err)
	}
	o.blocks = append(o.blocks, block)
	o.hashes = append(o.hashes, hash)
	return hash
}

// truncate drops every block at or above height, simulating a reorg away
// from them.
func (o *fakeOracle) truncate(height uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.blocks = o.blocks[:height]
	o.hashes = o.hashes[:height]
}

func (o *fakeOracle) HashAt(_ context.Context, height uint32) (ids.ID, bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if int(height) >= len(o.hashes) {
		return ids.ID{}, false, nil
	}
	return o.hashes[height], true, nil
}

func (o *fakeOracle) BlockAt(_ context.Context, hash ids.ID) (*tuxedo.Block, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, h := range o.hashes {
		if h == hash {
			return o.blocks[i], nil
		}
	}
	return nil, errBlockNotFound
}

func ownedBlock(t *testing.T, number uint32, parent ids.ID, owner []byte, amount uint64) *tuxedo.Block {
	t.Helper()
	p, err := money.NewOutput(0, amount)
	require.NoError(t, err)
	return &tuxedo.Block{
		// StateRoot carries the mint amount so that two blocks at the same
		// height with different contents (as in a reorg) never collide on
		// header hash purely because this fixture leaves ParentHash unset.
		Header: tuxedo.Header{Number: number, ParentHash: parent, StateRoot: []byte{byte(amount), byte(amount >> 8)}},
		Transactions: []tuxedo.Transaction{
			{
				Outputs: []tuxedo.Output{{Payload: p, Verifier: verify.SigCheck(owner)}},
				Checker: checker.Money(0),
			},
		},
	}
}

// claimBlock builds a block whose single transaction mints a PoE claim, not
// a coin, under a verifier that follower.TrackAll still accepts.
func claimBlock(t *testing.T, number uint32, parent ids.ID) *tuxedo.Block {
	t.Helper()
	p, err := poe.NewOutput([32]byte{byte(number)}, number)
	require.NoError(t, err)
	return &tuxedo.Block{
		Header: tuxedo.Header{Number: number, ParentHash: parent, StateRoot: []byte{0xc1, byte(number)}},
		Transactions: []tuxedo.Transaction{
			{
				Outputs: []tuxedo.Output{{Payload: p, Verifier: verify.UpForGrabs()}},
				Checker: checker.PoEClaim(),
			},
		},
	}
}

func newFollower(t *testing.T, oracle follower.Oracle) *follower.Follower {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "tuxedo-follower"))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, st.Close()) })
	return follower.New(st, oracle, follower.TrackAll)
}

func TestSynchronizeBootstrapsFromGenesis(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1, 2, 3}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 10))
	oracle.append(ownedBlock(t, 1, ids.Empty, owner, 20))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	height, err := f.Height()
	require.NoError(t, err)
	require.Equal(t, uint32(1), height)

	balances, err := f.Balances()
	require.NoError(t, err)
	require.Equal(t, uint64(30), balances[hex.EncodeToString(owner)])
}

func TestSynchronizeIsIdempotentWhenCaughtUp(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 1))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))
	require.NoError(t, f.Synchronize(context.Background()))

	height, err := f.Height()
	require.NoError(t, err)
	require.Equal(t, uint32(0), height)
}

func TestSynchronizeAppliesNewBlocksIncrementally(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 1))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	oracle.append(ownedBlock(t, 1, ids.Empty, owner, 2))
	require.NoError(t, f.Synchronize(context.Background()))

	height, err := f.Height()
	require.NoError(t, err)
	require.Equal(t, uint32(1), height)
}

func TestSynchronizeRollsBackDivergedBlocks(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 1))
	oracle.append(ownedBlock(t, 1, ids.Empty, owner, 100))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	balances, err := f.Balances()
	require.NoError(t, err)
	require.Equal(t, uint64(101), balances[hex.EncodeToString(owner)])

	// Simulate a reorg: height 1's block is replaced with a different one.
	oracle.truncate(1)
	oracle.append(ownedBlock(t, 1, ids.Empty, owner, 5))
	require.NoError(t, f.Synchronize(context.Background()))

	height, err := f.Height()
	require.NoError(t, err)
	require.Equal(t, uint32(1), height)

	balances, err = f.Balances()
	require.NoError(t, err)
	require.Equal(t, uint64(6), balances[hex.EncodeToString(owner)], "rolled-back block's outputs must no longer count")
}

func TestGetBlockAndGetBlockHash(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	hash := oracle.append(ownedBlock(t, 0, ids.Empty, owner, 7))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	gotHash, err := f.GetBlockHash(0)
	require.NoError(t, err)
	require.Equal(t, hash, gotHash)

	block, err := f.GetBlock(hash)
	require.NoError(t, err)
	require.Equal(t, uint32(0), block.Header.Number)
}

func TestArbitraryUnspentSetAndGetUnspent(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 7))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	refs, ok, err := f.ArbitraryUnspentSet(7)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, refs, 1)

	out, found, err := f.GetUnspent(refs[0])
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, verify.KindSigCheck, out.Verifier.Kind)
}

func TestArbitraryUnspentSetZeroTargetSucceedsWithEmptySet(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 7))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	refs, ok, err := f.ArbitraryUnspentSet(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Empty(t, refs)
}

func TestArbitraryUnspentSetReportsInsufficientFunds(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 7))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	refs, ok, err := f.ArbitraryUnspentSet(100)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, refs)
}

func TestArbitraryUnspentSetAccumulatesAcrossMultipleCoins(t *testing.T) {
	oracle := newFakeOracle()
	owner := []byte{1}
	oracle.append(ownedBlock(t, 0, ids.Empty, owner, 3))
	oracle.append(ownedBlock(t, 1, ids.Empty, owner, 4))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	refs, ok, err := f.ArbitraryUnspentSet(6)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, refs, 2, "a single block's 3-coin output is insufficient, both must be selected")
}

func TestApplyTransactionSkipsNonCoinOutputsEvenWhenPredicateAccepts(t *testing.T) {
	oracle := newFakeOracle()
	oracle.append(claimBlock(t, 0, ids.Empty))

	f := newFollower(t, oracle)
	require.NoError(t, f.Synchronize(context.Background()))

	// TrackAll accepts UpForGrabs, so the output passed the verifier
	// predicate — but a PoE claim is not a recognized coin payload and
	// must not land in the unspent index.
	refs, ok, err := f.ArbitraryUnspentSet(1)
	require.NoError(t, err)
	require.False(t, ok)
	require.Empty(t, refs)

	balances, err := f.Balances()
	require.NoError(t, err)
	require.Empty(t, balances)
}

