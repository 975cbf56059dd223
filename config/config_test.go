package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tapelang/bfjit/config"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := config.DefaultConfig()
	require.Equal(t, 640000, cfg.Runtime.TapeSize)
	require.False(t, cfg.Runtime.DebugBreak)
	require.Equal(t, "", cfg.Output.DumpBinaryPath)
	require.False(t, cfg.Output.DumpIR)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.toml")

	cfg, err := config.LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, config.DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := config.DefaultConfig()
	cfg.Runtime.TapeSize = 12345
	cfg.Runtime.DebugBreak = true
	cfg.Output.DumpBinaryPath = "/tmp/out.bin"
	cfg.Output.DumpIR = true

	require.NoError(t, cfg.SaveTo(path))

	loaded, err := config.LoadFrom(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestLoadFromRejectsMalformedTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("this is not [ valid toml"), 0600))

	_, err := config.LoadFrom(path)
	require.Error(t, err)
}
