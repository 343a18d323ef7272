// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package follower implements a light client: an Oracle-fed local index
// of blocks and UTXOs that can detect and unwind a reorg, then resync
// forward, entirely by trusting an oracle's reported canonical chain.
//
// The synchronize algorithm (backward rollback loop until the local head
// matches the oracle's reported hash, then forward apply loop until the
// oracle reports no next block) follows the same shape as a wallet
// syncing against a node it doesn't trust for anything but chain shape;
// the surrounding Go idiom — sentinel errors, a mutex-guarded struct,
// apply/unapply helper pairs — follows a chain-processor convention seen
// elsewhere in this codebase.
package follower

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/tuxedo-labs/tuxedo/checker/money"
	"github.com/tuxedo-labs/tuxedo/checker/tux0"
	"github.com/tuxedo-labs/tuxedo/follower/store"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/metrics"
	"github.com/tuxedo-labs/tuxedo/payload"
	"github.com/tuxedo-labs/tuxedo/tuxedo"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/verify"
)

// Oracle is the engine collaborator the follower trusts for the
// canonical chain: hash_at and block_at.
type Oracle interface {
	// HashAt returns the canonical block hash at height, ok=false if the
	// oracle has no block at that height yet.
	HashAt(ctx context.Context, height uint32) (hash ids.ID, ok bool, err error)
	// BlockAt returns the full block for a hash the oracle has already
	// reported via HashAt.
	BlockAt(ctx context.Context, hash ids.ID) (*tuxedo.Block, error)
}

// SpendPredicate decides whether the follower tracks an output locked by
// v — e.g. "owned by one of my addresses". The original wallet tracks
// only SigCheck outputs it can eventually spend; here it is a pluggable
// predicate over the Verifier union instead of one hard-coded variant.
type SpendPredicate func(v verify.Verifier) bool

// TrackAll is the permissive SpendPredicate a block explorer (as opposed
// to a wallet) uses: every output is worth indexing.
func TrackAll(verify.Verifier) bool { return true }

var (
	// ErrUninitialized is returned by Synchronize when the block hash at
	// the store's recorded head height cannot be read. An empty store
	// (height 0, no hash) is not an error: Synchronize bootstraps it from
	// the oracle's genesis.
	ErrUninitialized = errors.New("follower: local store has no block hash at its head height")
	// ErrInconsistent flags a corrupted local index: a height recorded in
	// block_hashes with no matching body in blocks.
	ErrInconsistent = errors.New("follower: local index inconsistent")
)

// prefetchWindow bounds how many blocks the forward-sync loop fetches
// from the oracle concurrently ahead of the height it is applying.
const prefetchWindow = 4

// Follower is the light client: a local Store kept in sync with an
// Oracle via Synchronize.
type Follower struct {
	mu        sync.Mutex
	store     *store.Store
	oracle    Oracle
	predicate SpendPredicate
	log       *zap.Logger
	limiter   *rate.Limiter
	metrics   *metrics.Engine
}

// Option configures a Follower at construction time.
type Option func(*Follower)

// WithLogger overrides the default no-op logger.
func WithLogger(log *zap.Logger) Option { return func(f *Follower) { f.log = log } }

// WithMetrics attaches a metrics.Engine for sync-lag/rollback-depth
// instrumentation.
func WithMetrics(m *metrics.Engine) Option { return func(f *Follower) { f.metrics = m } }

// WithRateLimit bounds how often Synchronize calls the oracle, guarding
// against hammering a remote endpoint on every retry.
func WithRateLimit(limiter *rate.Limiter) Option { return func(f *Follower) { f.limiter = limiter } }

// New builds a Follower over st, consulting oracle and tracking only
// outputs predicate accepts.
func New(st *store.Store, oracle Oracle, predicate SpendPredicate, opts ...Option) *Follower {
	f := &Follower{
		store:     st,
		oracle:    oracle,
		predicate: predicate,
		log:       zap.NewNop(),
		limiter:   rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// wait applies the Follower's oracle rate limit, if any.
func (f *Follower) wait(ctx context.Context) error {
	if f.limiter == nil {
		return nil
	}
	return f.limiter.Wait(ctx)
}

// Synchronize runs the rollback-then-forward-sync algorithm against the
// oracle. It first walks backward from the local head while
// the oracle disagrees with the locally recorded hash at that height
// (undoing each divergent block), then walks forward applying every
// block the oracle reports until it reports none.
func (f *Follower) Synchronize(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	height, err := f.store.Height()
	if err != nil {
		return fmt.Errorf("follower: reading local height: %w", err)
	}
	localHash, err := f.store.HashAt(height)
	if errors.Is(err, store.ErrNotFound) && height == 0 {
		// Nothing synced yet: skip straight to forward sync from genesis
		// rather than treating an empty store as a rollback target.
		f.log.Info("local store empty, bootstrapping from genesis")
		return f.forwardSync(ctx, 0)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUninitialized, err)
	}

	if err := f.wait(ctx); err != nil {
		return err
	}
	oracleHash, ok, err := f.oracle.HashAt(ctx, height)
	if err != nil {
		return fmt.Errorf("follower: oracle hash_at(%d): %w", height, err)
	}

	rollbacks := 0
	for !ok || oracleHash != localHash {
		if height == 0 {
			return fmt.Errorf("follower: rolled back to genesis without finding a common ancestor")
		}
		f.log.Warn("rolling back divergent block", zap.Uint32("height", height), zap.Stringer("local", localHash))
		if err := f.unapplyHighestBlock(); err != nil {
			return err
		}
		rollbacks++
		height--
		localHash, err = f.store.HashAt(height)
		if err != nil {
			return fmt.Errorf("%w: local hash at %d: %v", ErrInconsistent, height, err)
		}
		if err := f.wait(ctx); err != nil {
			return err
		}
		oracleHash, ok, err = f.oracle.HashAt(ctx, height)
		if err != nil {
			return fmt.Errorf("follower: oracle hash_at(%d): %w", height, err)
		}
	}
	if f.metrics != nil && rollbacks > 0 {
		f.metrics.RollbackDepth.Observe(float64(rollbacks))
	}

	// Common ancestor found (or no rollback was needed); resync forward.
	height++
	return f.forwardSync(ctx, height)
}

// forwardSync applies every block the oracle reports starting at height,
// stopping cleanly (not an error) the first time the oracle has no block
// there yet: no block at the next height simply means the follower has
// caught up.
func (f *Follower) forwardSync(ctx context.Context, height uint32) error {
	for {
		batchHashes, lastOK, err := f.prefetchHashes(ctx, height)
		if err != nil {
			return err
		}
		if len(batchHashes) == 0 {
			f.log.Info("forward sync caught up", zap.Uint32("height", height))
			if f.metrics != nil {
				f.metrics.SyncLag.Set(0)
			}
			return nil
		}

		blocks, err := f.prefetchBlocks(ctx, batchHashes)
		if err != nil {
			return err
		}
		for i, block := range blocks {
			if err := f.applyBlock(batchHashes[i], block); err != nil {
				return fmt.Errorf("follower: applying block at height %d: %w", height+uint32(i), err)
			}
			f.log.Info("forward synced block", zap.Uint32("height", height+uint32(i)), zap.Stringer("hash", batchHashes[i]))
		}
		height += uint32(len(batchHashes))
		if !lastOK {
			return nil
		}
	}
}

// prefetchHashes fetches up to prefetchWindow consecutive block hashes
// starting at height, stopping at the first height the oracle has
// nothing for. lastOK reports whether the window filled completely
// (meaning there may be more beyond it).
func (f *Follower) prefetchHashes(ctx context.Context, height uint32) (hashes []ids.ID, lastOK bool, err error) {
	for i := 0; i < prefetchWindow; i++ {
		if err := f.wait(ctx); err != nil {
			return nil, false, err
		}
		hash, ok, err := f.oracle.HashAt(ctx, height+uint32(i))
		if err != nil {
			return nil, false, fmt.Errorf("follower: oracle hash_at(%d): %w", height+uint32(i), err)
		}
		if !ok {
			return hashes, false, nil
		}
		hashes = append(hashes, hash)
	}
	return hashes, true, nil
}

// prefetchBlocks fetches the block bodies for hashes concurrently,
// bounded by an errgroup, then returns them in the same order — the
// oracle-call bounding described in SPEC_FULL.md's domain stack.
func (f *Follower) prefetchBlocks(ctx context.Context, hashes []ids.ID) ([]*tuxedo.Block, error) {
	blocks := make([]*tuxedo.Block, len(hashes))
	g, gctx := errgroup.WithContext(ctx)
	for i, h := range hashes {
		i, h := i, h
		g.Go(func() error {
			if err := f.wait(gctx); err != nil {
				return err
			}
			block, err := f.oracle.BlockAt(gctx, h)
			if err != nil {
				return fmt.Errorf("follower: oracle block_at(%s): %w", h, err)
			}
			blocks[i] = block
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blocks, nil
}

// applyBlock records block under hash and applies its transactions'
// effects to the unspent/spent tables.
func (f *Follower) applyBlock(hash ids.ID, block *tuxedo.Block) error {
	batch := f.store.NewBatch()
	if err := batch.PutBlock(block.Header.Number, hash, block); err != nil {
		batch.Close()
		return err
	}
	// pending overlays the not-yet-committed outputs a prior transaction in
	// this same block introduced, so a later transaction spending one of
	// them (a same-block chain) resolves it instead of missing the store.
	pending := make(map[ids.OutputRef]txtypes.Output)
	for i := range block.Transactions {
		if err := f.applyTransaction(batch, &block.Transactions[i], pending); err != nil {
			batch.Close()
			return err
		}
	}
	if err := batch.SetHeight(block.Header.Number); err != nil {
		batch.Close()
		return err
	}
	return batch.Commit()
}

func (f *Follower) applyTransaction(batch *store.Batch, tx *tuxedo.Transaction, pending map[ids.OutputRef]txtypes.Output) error {
	txHash, err := tx.Hash()
	if err != nil {
		return err
	}
	for i, out := range tx.Outputs {
		if !f.predicate(out.Verifier) {
			continue
		}
		if _, ok := coinAmount(out); !ok {
			// Not a recognized coin payload — the follower only indexes
			// spendable balances, not arbitrary application state.
			continue
		}
		ref := ids.NewOutputRef(txHash, uint32(i))
		if err := batch.MarkUnspent(ref, out); err != nil {
			return err
		}
		pending[ref] = out
	}
	for _, in := range tx.Inputs {
		out, ok := pending[in.OutputRef]
		if ok {
			delete(pending, in.OutputRef)
		} else {
			out, ok, err = f.store.GetUnspent(in.OutputRef)
			if err != nil {
				return err
			}
		}
		if !ok {
			// Not one of our tracked outputs (filtered out on creation, or
			// spent before the follower started tracking it).
			continue
		}
		if err := batch.MarkSpent(in.OutputRef, out); err != nil {
			return err
		}
	}
	return nil
}

// unapplyHighestBlock undoes the locally recorded block at the current
// head height: every consumed input is moved back to unspent, every
// output the block introduced is dropped entirely, in reverse
// transaction order.
func (f *Follower) unapplyHighestBlock() error {
	height, err := f.store.Height()
	if err != nil {
		return err
	}
	hash, err := f.store.HashAt(height)
	if err != nil {
		return fmt.Errorf("%w: no hash recorded at height %d", ErrInconsistent, height)
	}
	block, err := f.store.BlockByHash(hash)
	if err != nil {
		return fmt.Errorf("%w: block %s missing body", ErrInconsistent, hash)
	}

	batch := f.store.NewBatch()
	for i := len(block.Transactions) - 1; i >= 0; i-- {
		tx := &block.Transactions[i]
		if err := f.unapplyTransaction(batch, tx); err != nil {
			batch.Close()
			return err
		}
	}
	if err := batch.DeleteBlock(height); err != nil {
		batch.Close()
		return err
	}
	if height > 0 {
		if err := batch.SetHeight(height - 1); err != nil {
			batch.Close()
			return err
		}
	}
	return batch.Commit()
}

func (f *Follower) unapplyTransaction(batch *store.Batch, tx *tuxedo.Transaction) error {
	for _, in := range tx.Inputs {
		out, ok, err := f.store.GetSpent(in.OutputRef)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := batch.UnmarkSpent(in.OutputRef, out); err != nil {
			return err
		}
	}
	txHash, err := tx.Hash()
	if err != nil {
		return err
	}
	for i := range tx.Outputs {
		ref := ids.NewOutputRef(txHash, uint32(i))
		if err := batch.DeleteUnspent(ref); err != nil {
			return err
		}
	}
	return nil
}

// --- queries -------------------------------------------------------------

// GetUnspent implements the get_unspent query.
func (f *Follower) GetUnspent(ref ids.OutputRef) (txtypes.Output, bool, error) {
	return f.store.GetUnspent(ref)
}

// ArbitraryUnspentSet implements arbitrary_unspent_set: an unordered
// selection of tracked unspent coins whose summed amounts reach
// targetValue, suitable as spend candidates. ok=false means the
// tracked total falls short of targetValue and no such set exists.
func (f *Follower) ArbitraryUnspentSet(targetValue uint64) (refs []ids.OutputRef, ok bool, err error) {
	return f.store.ArbitraryUnspentSet(targetValue, func(_ ids.OutputRef, out txtypes.Output) (uint64, bool) {
		return coinAmount(out)
	})
}

// GetBlockHash implements get_block_hash.
func (f *Follower) GetBlockHash(height uint32) (ids.ID, error) {
	return f.store.HashAt(height)
}

// GetBlock implements get_block.
func (f *Follower) GetBlock(hash ids.ID) (*tuxedo.Block, error) {
	return f.store.BlockByHash(hash)
}

// Height implements the height query: the follower's local head.
func (f *Follower) Height() (uint32, error) {
	return f.store.Height()
}

// Balances implements the balances query: sums every tracked unspent
// Coin<0> output by owner pubkey. This only aggregates the default coin
// ID 0 — callers needing other asset IDs use ArbitraryUnspentSet
// directly.
func (f *Follower) Balances() (map[string]uint64, error) {
	refs, err := f.store.AllUnspent(nil)
	if err != nil {
		return nil, err
	}
	balances := make(map[string]uint64)
	for _, ref := range refs {
		out, ok, err := f.store.GetUnspent(ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		amount, owner, ok := coinAmountAndOwner(out)
		if !ok {
			continue
		}
		balances[owner] += amount
	}
	return balances, nil
}

// coinAmountAndOwner decodes out as a Coin<0> payload owned by a
// SigCheck verifier, returning ok=false for any other shape (DAP coins,
// up-for-grabs outputs, threshold-owned outputs) since those have no
// single owner key to key a balance by.
func coinAmountAndOwner(out txtypes.Output) (amount uint64, owner string, ok bool) {
	if out.Verifier.Kind != verify.KindSigCheck {
		return 0, "", false
	}
	var coin money.Coin
	if err := payload.DecodeAs(out.Payload, &coin); err != nil || coin.ID != 0 {
		return 0, "", false
	}
	return coin.Amount, hex.EncodeToString(out.Verifier.OwnerPubKey), true
}

// coinAmount decodes out as any recognized coin payload — Coin<id> at
// its face amount, or DAPCoin<id> at its fixed notional value of 1,
// matching checker/tux0's totalValue accounting — returning ok=false for
// any other payload shape.
func coinAmount(out txtypes.Output) (uint64, bool) {
	var coin money.Coin
	if err := payload.DecodeAs(out.Payload, &coin); err == nil {
		return coin.Amount, true
	}
	var dap tux0.DAPCoin
	if err := payload.DecodeAs(out.Payload, &dap); err == nil {
		return 1, true
	}
	return 0, false
}
