// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Command tuxedo-node is a thin ambient-stack demonstration harness: it
// wires config, metrics, follower/store, and follower into a runnable
// follower daemon against a user-supplied oracle endpoint. It does not
// implement networking or consensus (Non-goals).
//
// Grounded on main/params.go's flag-parsing-to-config-struct split,
// adapted from stdlib flag to spf13/cobra + spf13/viper for the layered
// file/flag/env configuration SPEC_FULL.md calls for.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/time/rate"

	"github.com/tuxedo-labs/tuxedo/config"
	"github.com/tuxedo-labs/tuxedo/follower"
	"github.com/tuxedo-labs/tuxedo/follower/store"
	"github.com/tuxedo-labs/tuxedo/ids"
	"github.com/tuxedo-labs/tuxedo/metrics"
)

// checkGenesis refuses to keep following an oracle whose height-0 block
// doesn't match the operator-supplied genesis hash, once one has synced.
// An empty want skips the check (useful for first-time bootstrap against
// an oracle whose genesis isn't pinned yet).
func checkGenesis(f *follower.Follower, want string) error {
	if want == "" {
		return nil
	}
	wantID, err := ids.FromHex(want)
	if err != nil {
		return fmt.Errorf("tuxedo-node: invalid configured genesis hash: %w", err)
	}
	gotID, err := f.GetBlockHash(0)
	if err != nil {
		// Nothing synced yet, so genesis hasn't landed: nothing to
		// compare against.
		return nil
	}
	if gotID != wantID {
		return fmt.Errorf("tuxedo-node: local genesis %s does not match configured genesis %s", gotID, wantID)
	}
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:   "tuxedo-node",
		Short: "Run a tuxedo follower against an oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFollow(cmd.Context(), cfgPath)
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().String("store-dir", "", "override config.storeDir")
	root.PersistentFlags().String("oracle-addr", "", "override config.oracleAddr")
	_ = viper.BindPFlag("storeDir", root.PersistentFlags().Lookup("store-dir"))
	_ = viper.BindPFlag("oracleAddr", root.PersistentFlags().Lookup("oracle-addr"))

	return root
}

func runFollow(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if v := viper.GetString("storeDir"); v != "" {
		cfg.StoreDir = v
	}
	if v := viper.GetString("oracleAddr"); v != "" {
		cfg.OracleAddr = v
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	registry := prometheus.NewRegistry()
	m, err := metrics.NewEngine(cfg.MetricsNamespace, registry)
	if err != nil {
		return fmt.Errorf("tuxedo-node: registering metrics: %w", err)
	}

	st, err := store.Open(cfg.StoreDir)
	if err != nil {
		return fmt.Errorf("tuxedo-node: opening store: %w", err)
	}
	defer st.Close()

	oracle := newHTTPOracle(cfg.OracleAddr)
	f := follower.New(st, oracle, follower.TrackAll,
		follower.WithLogger(log),
		follower.WithMetrics(m),
		follower.WithRateLimit(rate.NewLimiter(rate.Limit(cfg.OracleQPS), cfg.OracleBurst)),
	)

	if cfg.MetricsAddr != "" {
		go serveMetrics(log, cfg.MetricsAddr, registry)
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ticker := newSyncTicker(cfg)
	defer ticker.Stop()

	log.Info("tuxedo-node starting",
		zap.String("storeDir", cfg.StoreDir),
		zap.String("oracleAddr", cfg.OracleAddr),
		zap.Duration("syncInterval", cfg.SyncInterval))

	for {
		if err := f.Synchronize(ctx); err != nil {
			log.Error("synchronize failed", zap.Error(err))
		} else if err := checkGenesis(f, cfg.GenesisHashHex); err != nil {
			log.Error("genesis mismatch, refusing to continue following", zap.Error(err))
			return err
		}
		select {
		case <-ctx.Done():
			log.Info("tuxedo-node shutting down")
			return nil
		case <-ticker.C:
		}
	}
}

func serveMetrics(log *zap.Logger, addr string, registry *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil { //nolint:gosec
		log.Error("metrics server stopped", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("tuxedo-node: invalid log level %q: %w", level, err)
	}
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
