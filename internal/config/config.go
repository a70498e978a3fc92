package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Backend names accepted in [storage].
const (
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

type Config struct {
	Storage StorageConfig `toml:"storage"`
	Log     LogConfig     `toml:"log"`
}

type StorageConfig struct {
	// Backend selects the storage implementation: pebble, sqlite or bolt.
	Backend string `toml:"backend"`
	// Path is the database directory (pebble) or file (sqlite, bolt).
	Path string `toml:"path"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "console" or "json"
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: BackendPebble,
			Path:    "data/db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads a TOML config file over the defaults. If path is empty, only
// defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Storage.Backend) {
	case BackendPebble, BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}
	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must not be empty")
	}
	return nil
}

// EnsureDir creates the parent directory of the configured storage path.
func (c *Config) EnsureDir() error {
	dir := c.Storage.Path
	if c.Storage.Backend != BackendPebble {
		dir = filepath.Dir(dir)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating storage directory: %w", err)
	}
	return nil
}
