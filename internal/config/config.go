// Package config defines the todo application configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"github.com/tgienger/todo/internal/models"
	"github.com/tgienger/todo/internal/storage"
	"gopkg.in/yaml.v3"
)

// Config is the top-level todo configuration.
type Config struct {
	Variant models.Variant `json:"variant" yaml:"variant"`
	Seed    bool           `json:"seed" yaml:"seed"` // write demo data on first run
	Storage StorageConfig  `json:"storage" yaml:"storage"`
	Log     LogConfig      `json:"log" yaml:"log"`
	Server  ServerConfig   `json:"server" yaml:"server"`
}

// StorageConfig selects the key/value backend.
type StorageConfig struct {
	Backend     storage.Kind `json:"backend" yaml:"backend"`
	Path        string       `json:"path" yaml:"path"` // sqlite file; empty uses the XDG data dir
	RedisAddr   string       `json:"redis_addr" yaml:"redis_addr"`
	RedisPrefix string       `json:"redis_prefix" yaml:"redis_prefix"`
	// FallbackMemory keeps the app running on an in-memory backend when
	// the configured one cannot be opened. Nothing is saved in that mode.
	FallbackMemory bool `json:"fallback_memory" yaml:"fallback_memory"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	Path  string `json:"path" yaml:"path"` // TUI log file; empty uses the XDG state dir
}

// ServerConfig controls the JSON API server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Variant: models.VariantTags,
		Seed:    true,
		Storage: StorageConfig{
			Backend:     storage.KindSQLite,
			RedisAddr:   "127.0.0.1:6379",
			RedisPrefix: storage.DefaultRedisPrefix,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

// DefaultPath is config.yaml under the user config directory
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "todo", "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path, a
// .env file in the working directory and TODO_* environment variables, in
// increasing precedence. An empty path reads DefaultPath if it exists.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// godotenv never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	variant := string(c.Variant)
	str("TODO_VARIANT", &variant)
	c.Variant = models.Variant(strings.ToLower(variant))

	backend := string(c.Storage.Backend)
	str("TODO_STORAGE_BACKEND", &backend)
	c.Storage.Backend = storage.Kind(strings.ToLower(backend))

	str("TODO_STORAGE_PATH", &c.Storage.Path)
	str("TODO_REDIS_ADDR", &c.Storage.RedisAddr)
	str("TODO_REDIS_PREFIX", &c.Storage.RedisPrefix)
	str("TODO_LOG_LEVEL", &c.Log.Level)
	str("TODO_LOG_PATH", &c.Log.Path)
	str("TODO_SERVER_ADDR", &c.Server.Addr)

	if err := boolean("TODO_SEED", &c.Seed); err != nil {
		return err
	}
	return boolean("TODO_STORAGE_FALLBACK_MEMORY", &c.Storage.FallbackMemory)
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	if !c.Variant.Valid() {
		return fmt.Errorf("variant %q: must be %q or %q", c.Variant, models.VariantTags, models.VariantCategories)
	}
	switch c.Storage.Backend {
	case storage.KindSQLite, storage.KindMemory:
	case storage.KindRedis:
		if c.Storage.RedisAddr == "" {
			return errors.New("storage.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("storage.backend %q: must be sqlite, redis or memory", c.Storage.Backend)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	return nil
}

// StorageOptions converts the storage section for storage.Open
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Kind:        c.Storage.Backend,
		Path:        c.Storage.Path,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}
