package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultServer matches the backend's development listen address.
	DefaultServer = "http://localhost:8000"

	envServer   = "PARLOR_SERVER"
	envLogLevel = "PARLOR_LOG_LEVEL"
)

// Config is the client configuration. Precedence, lowest to highest:
// defaults, config file, environment (including a .env file in the
// working directory), command-line flags.
type Config struct {
	Server   string `yaml:"server"`
	LogLevel string `yaml:"log_level"`
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, "parlor", "config.yaml"), nil
}

// Load reads the config file at path (missing file is fine) and applies
// environment overrides.
func Load(path string) (*Config, error) {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	cfg := &Config{
		Server:   DefaultServer,
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.Wrapf(err, "parse config file %s", path)
			}
		case os.IsNotExist(err):
		default:
			return nil, errors.Wrapf(err, "read config file %s", path)
		}
	}

	if v := strings.TrimSpace(os.Getenv(envServer)); v != "" {
		cfg.Server = v
	}
	if v := strings.TrimSpace(os.Getenv(envLogLevel)); v != "" {
		cfg.LogLevel = v
	}

	if cfg.Server == "" {
		cfg.Server = DefaultServer
	}
	return cfg, nil
}
