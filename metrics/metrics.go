// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics holds the Prometheus collectors shared by the
// executive and the follower. Grounded verbatim on
// vms/avm/index/metrics.go's initialize(namespace, registerer) idiom:
// one struct of collectors, constructed once, registered once.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Engine collects executive-side counters and histograms: blocks
// applied, transactions rejected, and rollback depth observed by the
// follower while resolving a reorg.
type Engine struct {
	BlocksApplied      prometheus.Counter
	TransactionsFailed prometheus.Counter
	RollbackDepth      prometheus.Histogram
	SyncLag            prometheus.Gauge
}

// NewEngine builds and registers the Engine collectors under namespace.
func NewEngine(namespace string, registerer prometheus.Registerer) (*Engine, error) {
	m := &Engine{
		BlocksApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "blocks_applied",
			Help:      "Number of blocks successfully applied to the UTXO set",
		}),
		TransactionsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_failed",
			Help:      "Number of transactions rejected by validate_transaction",
		}),
		RollbackDepth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rollback_depth",
			Help:      "Number of blocks rolled back per follower reorg",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		SyncLag: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_lag_blocks",
			Help:      "Blocks between the follower's local head and the oracle's head",
		}),
	}
	for _, c := range []prometheus.Collector{m.BlocksApplied, m.TransactionsFailed, m.RollbackDepth, m.SyncLag} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}
