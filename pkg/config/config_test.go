package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PARLOR_SERVER", "")
	t.Setenv("PARLOR_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultServer, cfg.Server)
	require.Equal(t, "info", cfg.LogLevel)
}

func TestLoadReadsConfigFile(t *testing.T) {
	t.Setenv("PARLOR_SERVER", "")
	t.Setenv("PARLOR_LOG_LEVEL", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: https://chat.example.com\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://chat.example.com", cfg.Server)
	require.Equal(t, "debug", cfg.LogLevel)
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: https://file.example.com\n"), 0o644))

	t.Setenv("PARLOR_SERVER", "https://env.example.com")
	t.Setenv("PARLOR_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://env.example.com", cfg.Server)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
