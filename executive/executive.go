// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package executive implements the block and transaction validator: the
// five-step validate_transaction predicate and the atomic apply_block
// protocol built on top of the UTXO Set.
//
// Grounded on vms/platformvm's tx executor split (a pure Execute that
// returns a VersionedState diff, applied only once every transaction in
// the block has executed cleanly) and vms/avm/import_tx.go's Verify,
// with zap structured logging matching node/config.go and the network
// packages' logger-injection convention.
package executive

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/tuxedo-labs/tuxedo/checker/tux0"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/metrics"
	"github.com/tuxedo-labs/tuxedo/payload"
	"github.com/tuxedo-labs/tuxedo/tuxedo"
	"github.com/tuxedo-labs/tuxedo/txtypes"
	"github.com/tuxedo-labs/tuxedo/utxoset"
	"github.com/tuxedo-labs/tuxedo/verify"
)

// Source distinguishes the two contexts validate_transaction runs in: a
// candidate pulled from the transaction pool, where a missing input is a
// future dependency, versus a transaction embedded in a block being
// applied, where a missing input is fatal.
type Source int

const (
	// SourcePool validates a standalone candidate transaction.
	SourcePool Source = iota
	// SourceBlock validates a transaction as part of apply_block.
	SourceBlock
)

// Structural errors surfaced by structuralCheck and lookupInputs/lookupPeeks.
var (
	ErrDuplicateInput = errors.New("executive: duplicate input")
	ErrDuplicatePeek  = errors.New("executive: peek duplicates an input or another peek")
	ErrMissingInput   = errors.New("executive: input not found")
	ErrMissingPeek    = errors.New("executive: peek not found")
	ErrNoInputs       = errors.New("executive: non-inherent transaction has no inputs or no outputs")
	ErrVerifierFailed = errors.New("executive: verifier rejected redeemer")
)

// Validity is the successful outcome of validate_transaction: the
// checker's priority plus the provides/requires tags used by a pool to
// track transaction dependencies.
type Validity struct {
	Priority uint64
	// Provides lists one tag per new output, keyed by its would-be
	// OutputRef encoded as bytes.
	Provides [][]byte
	// Requires lists one tag per input missing in pool context, nil in
	// block context (a missing input there is always fatal).
	Requires [][]byte
}

// Validator runs validate_transaction against a UTXO Set view.
type Validator struct {
	log     *zap.Logger
	metrics *metrics.Engine
}

// New returns a Validator that logs through log and, if m is non-nil,
// records counters on it. A nil log is replaced with zap.NewNop(),
// matching the "always-safe default logger" convention used throughout
// this codebase; a nil m simply disables metrics, since instrumentation
// is optional for standalone/test use of the validator.
func New(log *zap.Logger, m *metrics.Engine) *Validator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Validator{log: log, metrics: m}
}

// ValidateTransaction runs the five-step validation predicate against
// set, which may be a utxoset.MapSet (pool context) or a utxoset.Batch
// scoped to one in-progress block (block context).
func (v *Validator) ValidateTransaction(tx *tuxedo.Transaction, set utxoset.Set, src Source) (Validity, error) {
	if err := structuralCheck(tx); err != nil {
		v.log.Debug("transaction rejected: structural", zap.Error(err))
		v.countFailure()
		return Validity{}, err
	}

	inputs, requires, err := lookupInputs(tx, set, src)
	if err != nil {
		v.log.Debug("transaction rejected: input lookup", zap.Error(err))
		v.countFailure()
		return Validity{}, err
	}
	peeks, err := lookupPeeks(tx, set)
	if err != nil {
		v.log.Debug("transaction rejected: peek lookup", zap.Error(err))
		v.countFailure()
		return Validity{}, err
	}

	// Step 3: verification against the simplified (zeroed-redeemer)
	// preimage every input's stored verifier is checked against.
	preimage, err := tx.SimplifiedBytes()
	if err != nil {
		return Validity{}, fmt.Errorf("executive: computing simplified preimage: %w", err)
	}
	vctx := buildContext(tx, set)
	resolved := 0
	for _, in := range tx.Inputs {
		if _, ok := set.Peek(in.OutputRef); !ok {
			// Missing in pool context: no stored output to pull a
			// verifier from, so this input cannot be verified yet.
			continue
		}
		out := inputs[resolved]
		resolved++
		ok, verr := out.Verifier.Verify(preimage, in.Redeemer, vctx)
		if verr != nil {
			v.log.Debug("transaction rejected: verifier error", zap.Error(verr))
			v.countFailure()
			return Validity{}, fmt.Errorf("executive: %w: %v", ErrVerifierFailed, verr)
		}
		if !ok {
			v.log.Debug("transaction rejected: verifier vote false", zap.String("input", in.OutputRef.String()))
			v.countFailure()
			return Validity{}, ErrVerifierFailed
		}
	}

	// Step 4: semantic check via the closed checker union.
	priority, err := tx.Checker.Check(inputs, peeks, tx.Outputs)
	if err != nil {
		v.log.Debug("transaction rejected: constraint checker", zap.Error(err))
		v.countFailure()
		return Validity{}, fmt.Errorf("executive: constraint check: %w", err)
	}

	// Step 5: priority and tags.
	provides := make([][]byte, len(tx.Outputs))
	for i := range tx.Outputs {
		ref, rerr := tx.OutputRefAt(i)
		if rerr != nil {
			return Validity{}, rerr
		}
		provides[i] = ref.Bytes()
	}

	return Validity{Priority: priority, Provides: provides, Requires: requires}, nil
}

func (v *Validator) countFailure() {
	if v.metrics != nil {
		v.metrics.TransactionsFailed.Inc()
	}
}

func structuralCheck(tx *tuxedo.Transaction) error {
	seen := make(map[ids.OutputRef]struct{}, len(tx.Inputs)+len(tx.Peeks))
	for _, in := range tx.Inputs {
		if _, dup := seen[in.OutputRef]; dup {
			return ErrDuplicateInput
		}
		seen[in.OutputRef] = struct{}{}
	}
	peekSeen := make(map[ids.OutputRef]struct{}, len(tx.Peeks))
	for _, p := range tx.Peeks {
		if _, dup := seen[p]; dup {
			return ErrDuplicatePeek
		}
		if _, dup := peekSeen[p]; dup {
			return ErrDuplicatePeek
		}
		peekSeen[p] = struct{}{}
	}
	if len(tx.Outputs) == 0 && !tx.IsInherent() {
		return ErrNoInputs
	}
	if len(tx.Inputs) == 0 && !tx.IsInherent() {
		return ErrNoInputs
	}
	return nil
}

// lookupInputs resolves every input's referenced output. In SourceBlock
// context a missing input is fatal; in SourcePool context it is
// collected as a "requires" tag and left out of the returned outputs: its
// verifier is not run, and the checker sees only the resolved inputs.
func lookupInputs(tx *tuxedo.Transaction, set utxoset.Set, src Source) ([]txtypes.Output, [][]byte, error) {
	outs := make([]txtypes.Output, 0, len(tx.Inputs))
	var requires [][]byte
	for _, in := range tx.Inputs {
		out, ok := set.Peek(in.OutputRef)
		if !ok {
			if src == SourceBlock {
				return nil, nil, fmt.Errorf("executive: %w: %s", ErrMissingInput, in.OutputRef)
			}
			requires = append(requires, in.OutputRef.Bytes())
			continue
		}
		outs = append(outs, out)
	}
	return outs, requires, nil
}

// buildContext assembles the Tux0Transfer verifier's collaborators: the
// simplified_tx's own input refs, and a lookup from (txHash, index) back
// to the stored payload bytes of any output still resolvable in set
// (covers peeked commitments as well as the inputs themselves).
func buildContext(tx *tuxedo.Transaction, set utxoset.Set) *verify.Context {
	ctx := &verify.Context{
		InputRefs: make([]struct {
			TxHash [32]byte
			Index  uint32
		}, len(tx.Inputs)),
	}
	for i, in := range tx.Inputs {
		ctx.InputRefs[i].TxHash = in.OutputRef.TxHash
		ctx.InputRefs[i].Index = in.OutputRef.Index
	}
	ctx.PeekPayload = func(txHash [32]byte, index uint32) ([]byte, bool) {
		out, ok := set.Peek(ids.NewOutputRef(txHash, index))
		if !ok {
			return nil, false
		}
		var dap tux0.DAPCoin
		if err := payload.DecodeAs(out.Payload, &dap); err != nil {
			return nil, false
		}
		return dap.Commitment, true
	}
	return ctx
}

func lookupPeeks(tx *tuxedo.Transaction, set utxoset.Set) ([]txtypes.Output, error) {
	outs := make([]txtypes.Output, len(tx.Peeks))
	for i, ref := range tx.Peeks {
		out, ok := set.Peek(ref)
		if !ok {
			return nil, fmt.Errorf("executive: %w: %s", ErrMissingPeek, ref)
		}
		outs[i] = out
	}
	return outs, nil
}
