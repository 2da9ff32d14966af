// Package config loads database settings from an optional YAML file and the
// environment. Environment variables win over the file; the file wins over
// defaults.
//
// Recognised variables:
//   - AM3DB_ROOT: database root directory (default: "database")
//   - AM3DB_LOG_LEVEL: debug, info, warn or error (default: "info")
//   - AM3DB_LOCK_SHARDS: take advisory file locks around saves (default: false)
//   - AM3DB_ATOMIC_WRITES: write shards via temp file and rename (default: false)
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/am3db/internal/storage"
)

const (
	DefaultRoot     = "database"
	DefaultLogLevel = "info"
)

// Config holds everything needed to open a database
type Config struct {
	Root         string `yaml:"root"`
	LogLevel     string `yaml:"log_level"`
	LockShards   bool   `yaml:"lock_shards"`
	AtomicWrites bool   `yaml:"atomic_writes"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{Root: DefaultRoot, LogLevel: DefaultLogLevel}
}

// Load reads path if it is non-empty, then applies environment overrides.
// A named file that does not exist is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if cfg.Root == "" {
		return Config{}, errors.New("config: empty database root")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Root = getenv("AM3DB_ROOT", c.Root)
	c.LogLevel = getenv("AM3DB_LOG_LEVEL", c.LogLevel)

	var err error
	if c.LockShards, err = getbool("AM3DB_LOCK_SHARDS", c.LockShards); err != nil {
		return err
	}
	if c.AtomicWrites, err = getbool("AM3DB_ATOMIC_WRITES", c.AtomicWrites); err != nil {
		return err
	}
	return nil
}

// StorageOptions returns the file store options implied by the config
func (c Config) StorageOptions() storage.FileOptions {
	return storage.FileOptions{AtomicWrites: c.AtomicWrites, Locking: c.LockShards}
}

// ReactionsDir returns the directory holding shard files
func (c Config) ReactionsDir() string {
	return filepath.Join(c.Root, "reactions")
}

// UsersFile returns the path of the user directory file
func (c Config) UsersFile() string {
	return filepath.Join(c.Root, "users.yml")
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) (bool, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config: %s=%q is not a boolean", k, v)
	}
	return b, nil
}
