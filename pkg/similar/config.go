//go:build !js && !wasm
// +build !js,!wasm

package similar

import (
	"time"

	"github.com/himanishpuri/SimilarTracks/pkg/similar/client"
	"github.com/himanishpuri/SimilarTracks/pkg/similar/storage"
)

type Config struct {
	// Client configures the search API client built when no Searcher is given.
	Client client.Config

	CachePath    string
	CacheTTL     time.Duration
	CacheEnabled bool

	Logger   Logger
	Storage  Storage
	Searcher Searcher
	Observer Observer
}

type Option func(*Config)

func WithBaseURL(url string) Option {
	return func(c *Config) {
		c.Client.BaseURL = url
	}
}

func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.Client.Timeout = timeout
	}
}

func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Config) {
		c.Client.RatePerSecond = perSecond
		c.Client.Burst = burst
	}
}

func WithBreaker(failures uint32, timeout time.Duration) Option {
	return func(c *Config) {
		c.Client.BreakerFailures = failures
		c.Client.BreakerTimeout = timeout
	}
}

func WithCachePath(path string) Option {
	return func(c *Config) {
		c.CachePath = path
	}
}

func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Config) {
		c.CacheTTL = ttl
	}
}

// WithoutCache disables the local pool cache entirely.
func WithoutCache() Option {
	return func(c *Config) {
		c.CacheEnabled = false
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStorage(storage Storage) Option {
	return func(c *Config) {
		c.Storage = storage
		c.CacheEnabled = storage != nil
	}
}

func WithSearcher(searcher Searcher) Option {
	return func(c *Config) {
		c.Searcher = searcher
	}
}

// WithObserver reports every search, cached or not, to o.
func WithObserver(o Observer) Option {
	return func(c *Config) {
		c.Observer = o
	}
}

func defaultConfig() *Config {
	return &Config{
		Client:       client.DefaultConfig(),
		CachePath:    storage.DefaultDBFile,
		CacheTTL:     24 * time.Hour,
		CacheEnabled: true,
		Logger:       nil,
	}
}
