package similar

import (
	"context"
	"time"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
)

type Service interface {
	Search(ctx context.Context, trackURL string) (*models.SimilarResponse, error)
	NewSession(ctx context.Context, trackURL string, displayLimit int) (*Session, error)
	ListCached() ([]models.CachedSearch, error)
	DeleteCached(id string) error
	PurgeCache(olderThan time.Duration) (int64, error)
	Stats() Stats
	Close() error
}

// Searcher fetches a candidate pool from the similarity-search API.
type Searcher interface {
	Similar(ctx context.Context, trackURL string, limit int) (*models.SimilarResponse, error)
}

type Storage interface {
	SaveSearch(key, url string, resp *models.SimilarResponse) (string, error)
	LoadSearch(key string) (*models.SimilarResponse, *models.CachedSearch, error)
	ListSearches() ([]models.CachedSearch, error)
	CountSearches() (int64, error)
	DeleteSearch(id string) error
	PurgeBefore(cutoff time.Time) (int64, error)
	Close() error
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Observer receives the source ("cache" or "upstream"), the error and the
// duration of each search.
type Observer interface {
	ObserveSearch(source string, err error, elapsed time.Duration)
}

// Stats is a point-in-time view of the service for health endpoints.
type Stats struct {
	CacheEnabled bool   `json:"cache_enabled"`
	CachedPools  int64  `json:"cached_pools"`
	CacheTTL     string `json:"cache_ttl"`
	Upstream     string `json:"upstream"`
	BreakerState string `json:"breaker_state,omitempty"`
}
