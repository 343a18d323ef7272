// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config defines the typed runtime configuration for a
// tuxedo-node process: genesis parameters, the follower's local store
// path, and oracle call pacing.
//
// Grounded on node/config.go's flat struct-of-settings-with-tags idiom,
// adapted from json tags to yaml tags since decoding here goes through
// gopkg.in/yaml.v3 and spf13/viper rather than a flag-driven json config.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything a tuxedo-node process needs to run the
// follower against an oracle and expose its index.
type Config struct {
	// GenesisHashHex is the hex-encoded hash of the chain's genesis
	// block. cmd/tuxedo-node compares it with the follower's local block
	// hash at height 0 after each sync; empty skips the comparison.
	GenesisHashHex string `yaml:"genesisHash" mapstructure:"genesisHash"`

	// Parachain records whether the node is deployed as a parachain. It is
	// loaded from file and environment, but no component reads it: the
	// checker variant set and the inherent extractors are the same whether
	// it is true or false.
	Parachain bool `yaml:"parachain" mapstructure:"parachain"`

	// StoreDir is the pebble directory backing follower/store.
	StoreDir string `yaml:"storeDir" mapstructure:"storeDir"`

	// OracleAddr is the host:port of the HTTP oracle endpoint used to
	// satisfy the follower.Oracle interface.
	OracleAddr string `yaml:"oracleAddr" mapstructure:"oracleAddr"`

	// OracleQPS and OracleBurst bound how often the follower calls the
	// oracle (golang.org/x/time/rate).
	OracleQPS   float64 `yaml:"oracleQPS" mapstructure:"oracleQPS"`
	OracleBurst int     `yaml:"oracleBurst" mapstructure:"oracleBurst"`

	// SyncInterval is how often Synchronize is re-run against the oracle.
	SyncInterval time.Duration `yaml:"syncInterval" mapstructure:"syncInterval"`

	// MetricsNamespace is the Prometheus namespace metrics.NewEngine
	// registers collectors under.
	MetricsNamespace string `yaml:"metricsNamespace" mapstructure:"metricsNamespace"`

	// MetricsAddr, if non-empty, is the address /metrics is served on.
	MetricsAddr string `yaml:"metricsAddr" mapstructure:"metricsAddr"`

	// LogLevel is one of zapcore's level names (debug, info, warn, error).
	LogLevel string `yaml:"logLevel" mapstructure:"logLevel"`
}

// Default returns the configuration a bare solo-chain follower starts
// from before flags/env/file overrides are layered on.
func Default() Config {
	return Config{
		Parachain:        false,
		StoreDir:         "./tuxedo-data",
		OracleAddr:       "127.0.0.1:9650",
		OracleQPS:        20,
		OracleBurst:      5,
		SyncInterval:     2 * time.Second,
		MetricsNamespace: "tuxedo",
		MetricsAddr:      ":9100",
		LogLevel:         "info",
	}
}

// Load builds a viper instance seeded with Default, merges in an
// optional config file, and layers TUXEDO_-prefixed environment
// variables over it (spf13/viper's standard file > env precedence with
// env given priority, matching cmd/tuxedo-node's flag/env/file stack).
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TUXEDO")
	v.AutomaticEnv()

	def := Default()
	v.SetDefault("genesisHash", def.GenesisHashHex)
	v.SetDefault("parachain", def.Parachain)
	v.SetDefault("storeDir", def.StoreDir)
	v.SetDefault("oracleAddr", def.OracleAddr)
	v.SetDefault("oracleQPS", def.OracleQPS)
	v.SetDefault("oracleBurst", def.OracleBurst)
	v.SetDefault("syncInterval", def.SyncInterval)
	v.SetDefault("metricsNamespace", def.MetricsNamespace)
	v.SetDefault("metricsAddr", def.MetricsAddr)
	v.SetDefault("logLevel", def.LogLevel)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decoding: %w", err)
	}
	if cfg.StoreDir == "" {
		return Config{}, fmt.Errorf("config: storeDir must not be empty")
	}
	if cfg.OracleAddr == "" {
		return Config{}, fmt.Errorf("config: oracleAddr must not be empty")
	}
	return cfg, nil
}
