// Package config loads runtime settings for the server and CLI: defaults,
// then an optional YAML file, then SIMILAR_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/himanishpuri/SimilarTracks/internal/validation"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "SIMILAR_CONFIG"

// DefaultPaths are tried in order when PathEnvVar is unset.
var DefaultPaths = []string{"similar.yaml", "similar.yml"}

const envPrefix = "SIMILAR_"

type Config struct {
	API     APIConfig     `koanf:"api"`
	Cache   CacheConfig   `koanf:"cache"`
	Server  ServerConfig  `koanf:"server"`
	Logging LoggingConfig `koanf:"logging"`
	Ranking RankingConfig `koanf:"ranking"`
}

// APIConfig points at the similarity-search API.
type APIConfig struct {
	BaseURL         string        `koanf:"base_url" validate:"required,http_url"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	RatePerSecond   float64       `koanf:"rate_per_second" validate:"gte=0"`
	Burst           int           `koanf:"burst" validate:"gte=1"`
	BreakerFailures uint32        `koanf:"breaker_failures" validate:"gte=1"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout" validate:"gt=0"`
}

type CacheConfig struct {
	Enabled bool          `koanf:"enabled"`
	Path    string        `koanf:"path" validate:"required_if=Enabled true"`
	TTL     time.Duration `koanf:"ttl" validate:"gte=0"`
}

type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port" validate:"min=1,max=65535"`
	// CORSOrigins is a comma-separated allow list; "*" allows any origin.
	CORSOrigins  string        `koanf:"cors_origins"`
	ReadTimeout  time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gt=0"`
	// RateLimitRequests per RateLimitWindow per client IP; 0 disables limiting.
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `koanf:"format" validate:"oneof=console json"`
	Caller bool   `koanf:"caller"`
}

type RankingConfig struct {
	DisplayLimit int `koanf:"display_limit" validate:"min=1,max=50"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:         "http://localhost:8000",
			Timeout:         90 * time.Second,
			RatePerSecond:   1,
			Burst:           2,
			BreakerFailures: 5,
			BreakerTimeout:  30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "similartracks.sqlite3",
			TTL:     24 * time.Hour,
		},
		Server: ServerConfig{
			Host:              "",
			Port:              8080,
			CORSOrigins:       "*",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      120 * time.Second,
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Ranking: RankingConfig{
			DisplayLimit: 10,
		},
	}
}

// Load merges defaults, the config file (if any) and the environment, then
// validates the result.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file; an empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	return validation.Struct(c)
}

// Origins splits Server.CORSOrigins into its entries.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.Server.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envSections lists the config sections an env var may address; the first
// underscore after the section separates it from the key, so
// SIMILAR_API_BASE_URL becomes api.base_url.
var envSections = []string{"api", "cache", "server", "logging", "ranking"}

func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(key, section+"_"); ok && rest != "" {
			return section + "." + rest
		}
	}
	// Unknown keys (including SIMILAR_CONFIG) are ignored.
	return ""
}
