// Package config loads catalog settings from the environment. All
// variables carry the CATALOG_ prefix and every field has a default,
// so an empty environment yields a working in-memory setup.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/shopfabrik/catalog/cache"
)

// Config is the catalog's runtime configuration.
type Config struct {
	// Storage selects the persistence backend: "memory", "sqlite" or
	// "postgres".
	Storage string `env:"CATALOG_STORAGE" envDefault:"memory"`

	// DSN is the database connection string for the sqlite and
	// postgres backends.
	DSN string `env:"CATALOG_DSN" envDefault:"file::memory:?cache=shared"`

	CacheCapacity           int           `env:"CATALOG_CACHE_CAPACITY" envDefault:"10000"`
	CacheShards             int           `env:"CATALOG_CACHE_SHARDS" envDefault:"256"`
	CacheTTL                time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
	CacheEvictionPercentage int           `env:"CATALOG_CACHE_EVICTION_PCT" envDefault:"10"`
	CacheEvictionInterval   time.Duration `env:"CATALOG_CACHE_EVICTION_INTERVAL" envDefault:"0"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"CATALOG_LOG_LEVEL" envDefault:"info"`

	// LogJSON switches the log encoding from console to JSON.
	LogJSON bool `env:"CATALOG_LOG_JSON" envDefault:"false"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints the struct tags cannot.
func (c *Config) Validate() error {
	switch c.Storage {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}
	if c.Storage != "memory" && c.DSN == "" {
		return fmt.Errorf("storage backend %q requires CATALOG_DSN", c.Storage)
	}
	return c.CacheConfig().Validate()
}

// CacheConfig maps the environment settings onto the cache package's
// configuration.
func (c *Config) CacheConfig() cache.Config {
	return cache.Config{
		Capacity:           c.CacheCapacity,
		NumShards:          c.CacheShards,
		TTL:                c.CacheTTL,
		EvictionPercentage: c.CacheEvictionPercentage,
		EvictionInterval:   c.CacheEvictionInterval,
	}
}

// NewLogger builds the process logger from the configured level and
// encoding.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", c.LogLevel, err)
	}

	zcfg := zap.NewProductionConfig()
	if !c.LogJSON {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}
