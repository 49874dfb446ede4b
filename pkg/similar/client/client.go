// Package client talks to the similarity-search API that resolves a seed
// track and returns its pool of similar candidates.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

const (
	similarPath  = "/api/similar"
	maxBodyBytes = 8 << 20
)

// ErrCircuitOpen is returned while the breaker rejects calls after repeated upstream failures.
var ErrCircuitOpen = errors.New("search service temporarily unavailable")

// APIError is a non-2xx answer from the search API.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return e.Message()
}

// Message is the text shown to the user: the server's detail when it sent
// one, a generic fallback otherwise.
func (e *APIError) Message() string {
	if strings.TrimSpace(e.Detail) != "" {
		return e.Detail
	}
	return fmt.Sprintf("Request failed (%d)", e.StatusCode)
}

// Temporary reports whether the failure is on the server side.
func (e *APIError) Temporary() bool {
	return e.StatusCode >= 500
}

type Config struct {
	BaseURL string
	Timeout time.Duration

	// RatePerSecond limits outgoing searches; 0 disables limiting.
	RatePerSecond float64
	Burst         int

	// BreakerFailures consecutive failures open the breaker for BreakerTimeout.
	BreakerFailures uint32
	BreakerTimeout  time.Duration

	HTTPClient *http.Client
}

func DefaultConfig() Config {
	return Config{
		BaseURL:         "http://localhost:8000",
		Timeout:         90 * time.Second,
		RatePerSecond:   1,
		Burst:           2,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*models.SimilarResponse]
}

func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}

	settings := gobreaker.Settings{
		Name:        "similar-search",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: isBreakerSuccess,
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker[*models.SimilarResponse](settings),
	}
}

// isBreakerSuccess keeps client mistakes (4xx) and cancellations from
// counting against the upstream.
func isBreakerSuccess(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return !apiErr.Temporary()
	}
	return false
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// BreakerState returns the breaker state name: closed, half-open or open.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Similar fetches the seed track and up to limit similar tracks for trackURL.
func (c *Client) Similar(ctx context.Context, trackURL string, limit int) (*models.SimilarResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	resp, err := c.breaker.Execute(func() (*models.SimilarResponse, error) {
		return c.similar(ctx, trackURL, limit)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}
	return resp, err
}

func (c *Client) similar(ctx context.Context, trackURL string, limit int) (*models.SimilarResponse, error) {
	body, err := json.Marshal(models.SimilarRequest{URL: trackURL, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("encoding search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+similarPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading search response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb models.ErrorBody
		// A body that is not JSON still yields the generic message.
		_ = json.Unmarshal(data, &eb)
		return nil, &APIError{StatusCode: resp.StatusCode, Detail: eb.Detail}
	}

	var out models.SimilarResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}
	normalize(&out)
	return &out, nil
}

// normalize folds every tag so overlap checks compare like with like.
func normalize(resp *models.SimilarResponse) {
	seedTags := make([]string, 0, len(resp.SeedTags))
	for _, t := range resp.SeedTags {
		// Duplicates are kept: each occurrence weighs in the vocabulary.
		if n := utils.NormalizeTag(t); n != "" {
			seedTags = append(seedTags, n)
		}
	}
	resp.SeedTags = seedTags
	resp.SeedTrack.Tags = utils.NormalizeTags(resp.SeedTrack.Tags)
	for i := range resp.SimilarTracks {
		resp.SimilarTracks[i].Tags = utils.NormalizeTags(resp.SimilarTracks[i].Tags)
	}
	if resp.SimilarTracks == nil {
		resp.SimilarTracks = []models.Track{}
	}
}
