// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package executive

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/tuxedo-labs/tuxedo/tuxedo"
	"github.com/tuxedo-labs/tuxedo/utxoset"
)

// ApplyBlock opens a staged Batch over utxo, validates and applies every
// transaction in order, and
// commits only if the whole block validates. Any single transaction
// failure rejects the entire block and leaves utxo untouched — the Batch
// is simply discarded, nothing is committed.
func (v *Validator) ApplyBlock(block *tuxedo.Block, utxo utxoset.Set) error {
	headerHash, err := block.Header.Hash()
	if err != nil {
		return fmt.Errorf("executive: hashing header: %w", err)
	}
	v.log.Info("opening block", zap.Uint32("number", block.Header.Number), zap.Stringer("hash", headerHash))

	batch := utxoset.NewBatch(utxo)
	for i := range block.Transactions {
		tx := &block.Transactions[i]
		validity, err := v.ValidateTransaction(tx, batch, SourceBlock)
		if err != nil {
			v.log.Info("block rejected",
				zap.Uint32("number", block.Header.Number),
				zap.Int("transaction", i),
				zap.Error(err))
			return fmt.Errorf("executive: block %d transaction %d: %w", block.Header.Number, i, err)
		}
		if err := applyTransaction(tx, batch); err != nil {
			return fmt.Errorf("executive: block %d transaction %d: applying: %w", block.Header.Number, i, err)
		}
		_ = validity // priority/tags are a pool concern; block application only needs pass/fail
	}

	if err := batch.Commit(); err != nil {
		return fmt.Errorf("executive: committing block %d: %w", block.Header.Number, err)
	}
	v.log.Info("block applied", zap.Uint32("number", block.Header.Number), zap.Stringer("hash", headerHash),
		zap.Int("transactions", len(block.Transactions)))
	if v.metrics != nil {
		v.metrics.BlocksApplied.Inc()
	}
	return nil
}

// applyTransaction stages tx's consumes and inserts against batch: every
// input is removed, every output is inserted keyed by (hash(tx), index).
func applyTransaction(tx *tuxedo.Transaction, batch *utxoset.Batch) error {
	for _, in := range tx.Inputs {
		if _, err := batch.Consume(in.OutputRef); err != nil {
			return err
		}
	}
	for i, out := range tx.Outputs {
		ref, err := tx.OutputRefAt(i)
		if err != nil {
			return err
		}
		if err := batch.Insert(ref, out); err != nil {
			return err
		}
	}
	return nil
}
