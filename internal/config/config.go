package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	koanftoml "github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

const (
	envPrefix = "TGSCAN_"

	DefaultMinIntervalMS = 10
	DefaultHistoryBatch  = 100
)

// Config represents the global <base>/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session" koanf:"default_session"`
	APIID          int    `toml:"api_id,omitempty" koanf:"api_id"`
	APIHash        string `toml:"api_hash,omitempty" koanf:"api_hash"`
	MinIntervalMS  int    `toml:"min_interval_ms" koanf:"min_interval_ms"`
	HistoryBatch   int    `toml:"history_batch" koanf:"history_batch"`
}

// Default returns the configuration used when no file or env overrides exist.
func Default() *Config {
	return &Config{
		MinIntervalMS: DefaultMinIntervalMS,
		HistoryBatch:  DefaultHistoryBatch,
	}
}

// MinInterval is the pause inserted after every scanned message.
func (c *Config) MinInterval() time.Duration {
	return time.Duration(c.MinIntervalMS) * time.Millisecond
}

// Load reads config from path, then applies TGSCAN_* environment overrides
// (TGSCAN_API_ID, TGSCAN_MIN_INTERVAL_MS, ...). A missing file is not an error.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), koanftoml.Parser()); err != nil {
			return nil, oops.With("path", path).Wrapf(err, "load config file")
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.With("path", path).Wrapf(err, "stat config file")
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, oops.Wrapf(err, "load environment overrides")
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.With("path", path).Wrapf(err, "decode config")
	}
	if cfg.MinIntervalMS < 0 {
		cfg.MinIntervalMS = 0
	}
	if cfg.HistoryBatch <= 0 {
		cfg.HistoryBatch = DefaultHistoryBatch
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
