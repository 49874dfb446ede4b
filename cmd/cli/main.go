//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/himanishpuri/SimilarTracks/internal/config"
	"github.com/himanishpuri/SimilarTracks/pkg/logger"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
)

// Global flags
var (
	apiURL    string
	cachePath string
	noCache   bool
	verbose   bool
	cfg       *config.Config
)

func setupFlags() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}

	// Global flags that can be used with any command
	flag.StringVar(&apiURL, "api", cfg.API.BaseURL, "Base URL of the similarity-search API (env: SIMILAR_API_BASE_URL)")
	flag.StringVar(&cachePath, "cache", cfg.Cache.Path, "Path to the SQLite search cache (env: SIMILAR_CACHE_PATH)")
	flag.BoolVar(&noCache, "no-cache", !cfg.Cache.Enabled, "Always query the API, never the local cache")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Usage = printUsage
}

// createService creates a new search service with configured options
func createService() (similar.Service, error) {
	opts := []similar.Option{
		similar.WithBaseURL(apiURL),
		similar.WithHTTPTimeout(cfg.API.Timeout),
		similar.WithRateLimit(cfg.API.RatePerSecond, cfg.API.Burst),
		similar.WithBreaker(cfg.API.BreakerFailures, cfg.API.BreakerTimeout),
		similar.WithCachePath(cachePath),
		similar.WithCacheTTL(cfg.Cache.TTL),
	}
	if noCache {
		opts = append(opts, similar.WithoutCache())
	}
	return similar.NewService(opts...)
}

func main() {
	setupFlags()
	flag.Parse()

	log := logger.GetLogger()
	if os.Getenv("LOG_LEVEL") == "" {
		// Keep the terminal for results unless asked otherwise.
		log.SetLevel(logger.WARN)
		if verbose {
			log.SetLevel(logger.DEBUG)
		}
	}

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]
	log.Infof("Executing command: %s", command)

	var err error
	switch command {
	case "search":
		err = handleSearch(args)
	case "tags":
		err = handleTags(args)
	case "interactive", "i":
		err = handleInteractive(args)
	case "cache":
		err = handleCache(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Printf("❌ %s\n", describeError(err))
		log.Errorf("%s failed: %v", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("SimilarTracks - find and re-rank tracks similar to a seed")
	fmt.Println("\nGlobal Options:")
	fmt.Println("  --api <url>        Similarity-search API (env: SIMILAR_API_BASE_URL, default: http://localhost:8000)")
	fmt.Println("  --cache <path>     SQLite search cache (env: SIMILAR_CACHE_PATH, default: similartracks.sqlite3)")
	fmt.Println("  --no-cache         Always query the API")
	fmt.Println("  -v                 Verbose logging")
	fmt.Println("\nUsage:")
	fmt.Println("  similar [global-options] search <track_url> [--limit <n>] [--tempo <pct>] [--tag <tag>]... [--json]")
	fmt.Println("  similar [global-options] tags <track_url>")
	fmt.Println("  similar [global-options] interactive <track_url> [--limit <n>]")
	fmt.Println("  similar [global-options] cache list")
	fmt.Println("  similar [global-options] cache delete <id>")
	fmt.Println("  similar [global-options] cache purge [--older-than <duration>]")
	fmt.Println("\nExamples:")
	fmt.Println("  # Top 10 similar tracks")
	fmt.Println("  similar search https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC")
	fmt.Println()
	fmt.Println("  # Within 8% of the seed tempo, favouring two tags")
	fmt.Println("  similar search spotify:track:4uLU6hMCjMI75M1A2tKUQC --tempo 8 --tag indie --tag \"dream pop\"")
	fmt.Println()
	fmt.Println("  # Explore filters interactively")
	fmt.Println("  similar interactive https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC")
}
