// (c) 2024, Tuxedo Labs. All rights reserved.
// See the file LICENSE for licensing terms.

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tuxedo-labs/tuxedo/config"
)

func TestLoadWithNoFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadMergesYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuxedo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storeDir: /data/custom\noracleQPS: 42\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/custom", cfg.StoreDir)
	require.Equal(t, float64(42), cfg.OracleQPS)
	// Unset fields still fall back to defaults.
	require.Equal(t, config.Default().OracleAddr, cfg.OracleAddr)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuxedo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storeDir: /data/from-file\n"), 0o644))

	t.Setenv("TUXEDO_STOREDIR", "/data/from-env")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/from-env", cfg.StoreDir)
}

func TestLoadRejectsEmptyStoreDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuxedo.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storeDir: \"\"\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}
