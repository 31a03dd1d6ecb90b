// Package config provides configuration management for the subscription
// gateway. Configuration is loaded from a YAML file; every field has a
// working default so the gateway can start with no file at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	StoreBackendMemory = "memory"
	StoreBackendRedis  = "redis"
)

// Config holds all configuration for the gateway.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Store  StoreConfig  `yaml:"store"`
	Cache  CacheConfig  `yaml:"cache"`
	Auth   AuthConfig   `yaml:"auth"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"readTimeout"`
	WriteTimeout    Duration `yaml:"writeTimeout"`
	IdleTimeout     Duration `yaml:"idleTimeout"`
	ShutdownTimeout Duration `yaml:"shutdownTimeout"`
	MetricsPath     string   `yaml:"metricsPath"`
}

// LogConfig holds the logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// StoreConfig selects and configures the subscription store backend.
type StoreConfig struct {
	Backend string        `yaml:"backend"`
	Redis   RedisConfig   `yaml:"redis"`
	Breaker BreakerConfig `yaml:"breaker"`

	// FetchTimeout bounds a single store fetch on a cache miss.
	FetchTimeout Duration `yaml:"fetchTimeout"`
}

// RedisConfig holds the Redis store settings.
type RedisConfig struct {
	Address      string   `yaml:"address"`
	Password     string   `yaml:"password"`
	DB           int      `yaml:"db"`
	KeyPrefix    string   `yaml:"keyPrefix"`
	DialTimeout  Duration `yaml:"dialTimeout"`
	ReadTimeout  Duration `yaml:"readTimeout"`
	WriteTimeout Duration `yaml:"writeTimeout"`
}

// BreakerConfig holds the store circuit-breaker settings.
type BreakerConfig struct {
	Enabled     bool     `yaml:"enabled"`
	MaxFailures int      `yaml:"maxFailures"`
	Timeout     Duration `yaml:"timeout"`
}

// CacheConfig holds the identity-cache settings.
type CacheConfig struct {
	// SubscriptionTTL bounds the staleness of a cached subscription.
	SubscriptionTTL Duration `yaml:"subscriptionTTL"`

	// ClaimTTL bounds the staleness of a cached claim-to-id mapping.
	ClaimTTL Duration `yaml:"claimTTL"`

	// MaxEntries bounds each cache tier.
	MaxEntries int `yaml:"maxEntries"`
}

// AuthConfig holds the authorization-adapter settings.
type AuthConfig struct {
	// FailOpen lets requests through when the store is unavailable.
	// Denials for not-found, invalid, or policy reasons always fail
	// closed regardless of this flag.
	FailOpen bool `yaml:"failOpen"`

	// CORSEnabled answers OPTIONS preflight requests directly.
	CORSEnabled bool `yaml:"corsEnabled"`

	// PinCookie sets the subscription cookie on allowed requests that
	// did not present one.
	PinCookie bool `yaml:"pinCookie"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(15 * time.Second),
			WriteTimeout:    Duration(15 * time.Second),
			IdleTimeout:     Duration(60 * time.Second),
			ShutdownTimeout: Duration(10 * time.Second),
			MetricsPath:     "/metrics",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Store: StoreConfig{
			Backend: StoreBackendMemory,
			Redis: RedisConfig{
				Address:      "localhost:6379",
				KeyPrefix:    "subauthgw:",
				DialTimeout:  Duration(5 * time.Second),
				ReadTimeout:  Duration(3 * time.Second),
				WriteTimeout: Duration(3 * time.Second),
			},
			Breaker: BreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     Duration(30 * time.Second),
			},
			FetchTimeout: Duration(5 * time.Second),
		},
		Cache: CacheConfig{
			SubscriptionTTL: Duration(time.Hour),
			ClaimTTL:        Duration(24 * time.Hour),
			MaxEntries:      500,
		},
		Auth: AuthConfig{
			FailOpen:    false,
			CORSEnabled: true,
			PinCookie:   true,
		},
	}
}

// Load reads the configuration file at path over the defaults. An empty
// path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	switch c.Store.Backend {
	case StoreBackendMemory, StoreBackendRedis:
	default:
		return fmt.Errorf("invalid store backend: %q", c.Store.Backend)
	}
	if c.Store.Backend == StoreBackendRedis && c.Store.Redis.Address == "" {
		return fmt.Errorf("redis store requires an address")
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache maxEntries must be positive: %d", c.Cache.MaxEntries)
	}
	if c.Cache.SubscriptionTTL <= 0 || c.Cache.ClaimTTL <= 0 {
		return fmt.Errorf("cache TTLs must be positive")
	}
	return nil
}
