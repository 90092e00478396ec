package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for pal.
type Config struct {
	Log     LogConfig     `toml:"log"`
	Cache   CacheConfig   `toml:"cache"`
	Fetch   FetchConfig   `toml:"fetch"`
	Sources SourcesConfig `toml:"sources"`
	GnuCash GnuCashConfig `toml:"gnucash"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `toml:"level"` // debug, info, warn, error
	Pretty bool   `toml:"pretty"`
}

// CacheConfig holds the instrument data cache configuration.
type CacheConfig struct {
	Backend string      `toml:"backend"` // disk, redis, memory or none
	Dir     string      `toml:"dir"`     // disk backend only, defaults to the user cache dir
	TTL     string      `toml:"ttl"`
	Redis   RedisConfig `toml:"redis"`
}

// GetTTL parses and returns the cache entries lifetime.
func (c *CacheConfig) GetTTL() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 30 * 24 * time.Hour
	}
	return d
}

// RedisConfig holds the redis cache backend configuration.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

// FetchConfig holds the web pages fetching configuration.
type FetchConfig struct {
	Timeout     string  `toml:"timeout"`
	RateLimit   float64 `toml:"rate_limit"` // requests per second and per source, 0 is unlimited
	Concurrency int     `toml:"concurrency"`
}

// GetTimeout parses and returns the timeout duration
func (c *FetchConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// SourcesConfig holds the configuration of each instrument data source.
type SourcesConfig struct {
	FinEx   SourceConfig `toml:"finex"`
	Tinkoff SourceConfig `toml:"tinkoff"`
}

// SourceConfig holds the configuration of an instrument data source.
type SourceConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url"`
}

// GnuCashConfig holds the defaults of the gnucash-allocation command.
type GnuCashConfig struct {
	File   string `toml:"file"`
	Report string `toml:"report"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Pretty: true,
		},
		Cache: CacheConfig{
			Backend: "disk",
			TTL:     "720h",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "pal:",
			},
		},
		Fetch: FetchConfig{
			Timeout:     "30s",
			RateLimit:   2,
			Concurrency: 4,
		},
		Sources: SourcesConfig{
			FinEx:   SourceConfig{Enabled: true},
			Tinkoff: SourceConfig{Enabled: true},
		},
		GnuCash: GnuCashConfig{
			Report: "Securities",
		},
	}
}

// DefaultConfigFile returns the path of the user configuration file.
func DefaultConfigFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "pal", "config.toml")
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	config.Cache.Backend = strings.ToLower(strings.TrimSpace(config.Cache.Backend))
	switch config.Cache.Backend {
	case "disk", "redis", "memory", "none":
	default:
		return nil, fmt.Errorf("unknown cache backend %q, want one of disk, redis, memory or none", config.Cache.Backend)
	}
	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if level := os.Getenv("PAL_LOG_LEVEL"); level != "" {
		config.Log.Level = level
	}
	if backend := os.Getenv("PAL_CACHE_BACKEND"); backend != "" {
		config.Cache.Backend = backend
	}
	if dir := os.Getenv("PAL_CACHE_DIR"); dir != "" {
		config.Cache.Dir = dir
	}
	if addr := os.Getenv("PAL_REDIS_ADDR"); addr != "" {
		config.Cache.Redis.Addr = addr
	}
	if timeout := os.Getenv("PAL_FETCH_TIMEOUT"); timeout != "" {
		config.Fetch.Timeout = timeout
	}
}
