//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/himanishpuri/SimilarTracks/internal/config"
	"github.com/himanishpuri/SimilarTracks/internal/metrics"
	"github.com/himanishpuri/SimilarTracks/pkg/logger"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
)

func main() {
	log := logger.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	port := flag.Int("port", cfg.Server.Port, "HTTP server port")
	apiURL := flag.String("api", cfg.API.BaseURL, "Base URL of the similarity-search API")
	cachePath := flag.String("cache", cfg.Cache.Path, "Path to SQLite search cache")
	noCache := flag.Bool("no-cache", !cfg.Cache.Enabled, "Disable the search cache")
	origins := flag.String("origins", cfg.Server.CORSOrigins, "Comma-separated list of allowed CORS origins (use * for all)")
	flag.Parse()

	cfg.Server.Port = *port
	cfg.API.BaseURL = *apiURL
	cfg.Cache.Path = *cachePath
	cfg.Cache.Enabled = !*noCache
	cfg.Server.CORSOrigins = *origins
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	configureLogger(log, cfg.Logging)

	opts := []similar.Option{
		similar.WithBaseURL(cfg.API.BaseURL),
		similar.WithHTTPTimeout(cfg.API.Timeout),
		similar.WithRateLimit(cfg.API.RatePerSecond, cfg.API.Burst),
		similar.WithBreaker(cfg.API.BreakerFailures, cfg.API.BreakerTimeout),
		similar.WithCachePath(cfg.Cache.Path),
		similar.WithCacheTTL(cfg.Cache.TTL),
		similar.WithLogger(log.With("similar")),
		similar.WithObserver(metrics.SearchObserver{}),
	}
	if !cfg.Cache.Enabled {
		opts = append(opts, similar.WithoutCache())
	}

	service, err := similar.NewService(opts...)
	if err != nil {
		log.Fatalf("Failed to create service: %v", err)
	}
	defer service.Close()

	server := NewServer(service, &ServerConfig{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.Origins(),
		DisplayLimit:   cfg.Ranking.DisplayLimit,
		SearchTimeout:  cfg.API.Timeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,

		RateLimitRequests: cfg.Server.RateLimitRequests,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		log.Errorf("Server failed: %v", err)
		os.Exit(1)
	}
}

func configureLogger(log *logger.Logger, cfg config.LoggingConfig) {
	if os.Getenv("LOG_LEVEL") == "" {
		log.SetLevel(logger.ParseLevel(cfg.Level))
	}
	log.SetJSON(strings.EqualFold(cfg.Format, "json"))
	log.SetShowCaller(cfg.Caller)
}
