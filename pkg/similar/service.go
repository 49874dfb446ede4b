//go:build !js && !wasm
// +build !js,!wasm

package similar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/himanishpuri/SimilarTracks/pkg/logger"
	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar/client"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

const (
	SourceCache    = "cache"
	SourceUpstream = "upstream"
)

// searchService is the default implementation of the Service interface.
type searchService struct {
	searcher Searcher
	storage  Storage
	log      Logger
	config   *Config
	now      func() time.Time
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	searcher := cfg.Searcher
	if searcher == nil {
		searcher = client.New(cfg.Client)
	}

	var stor Storage
	if cfg.CacheEnabled {
		if cfg.Storage != nil {
			stor = cfg.Storage
		} else {
			var err error
			stor, err = NewSQLiteStorage(cfg.CachePath)
			if err != nil {
				return nil, fmt.Errorf("failed to create cache storage: %w", err)
			}
		}
	}

	return &searchService{
		searcher: searcher,
		storage:  stor,
		log:      cfg.Logger,
		config:   cfg,
		now:      time.Now,
	}, nil
}

// Search returns the full candidate pool for a seed, from the cache when a
// fresh entry exists. Cache failures are logged and never fail the search.
func (s *searchService) Search(ctx context.Context, trackURL string) (*models.SimilarResponse, error) {
	trackURL = strings.TrimSpace(trackURL)
	if trackURL == "" {
		return nil, ErrEmptyURL
	}
	start := s.now()
	key := utils.CacheKey(trackURL)

	if resp, ok := s.fromCache(key); ok {
		s.observe(SourceCache, nil, start)
		return resp, nil
	}

	s.log.Infof("Searching similar tracks for %s", trackURL)
	resp, err := s.searcher.Similar(ctx, trackURL, PoolSize)
	s.observe(SourceUpstream, err, start)
	if err != nil {
		return nil, fmt.Errorf("similar search failed: %w", err)
	}
	s.log.Infof("Received %d candidates for %s", len(resp.SimilarTracks), resp.SeedTrack.Name)

	if s.storage != nil {
		if _, err := s.storage.SaveSearch(key, trackURL, resp); err != nil {
			s.log.Warnf("Failed to cache pool for %s: %v", key, err)
		}
	}
	return resp, nil
}

func (s *searchService) fromCache(key string) (*models.SimilarResponse, bool) {
	if s.storage == nil {
		return nil, false
	}
	resp, meta, err := s.storage.LoadSearch(key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			s.log.Warnf("Cache lookup failed for %s: %v", key, err)
		}
		return nil, false
	}
	if ttl := s.config.CacheTTL; ttl > 0 && s.now().Sub(meta.CreatedAt) > ttl {
		s.log.Debugf("Cached pool for %s is stale (%s old)", key, s.now().Sub(meta.CreatedAt).Round(time.Second))
		return nil, false
	}
	s.log.Debugf("Serving %d cached candidates for %s", len(resp.SimilarTracks), key)
	return resp, true
}

func (s *searchService) observe(source string, err error, start time.Time) {
	if s.config.Observer == nil {
		return
	}
	s.config.Observer.ObserveSearch(source, err, s.now().Sub(start))
}

// NewSession runs a search and returns a session loaded with its pool and
// filters reset to the given display limit.
func (s *searchService) NewSession(ctx context.Context, trackURL string, displayLimit int) (*Session, error) {
	sess := NewSession()
	sess.Begin(displayLimit)
	resp, err := s.Search(ctx, trackURL)
	if err != nil {
		return nil, err
	}
	sess.Load(resp)
	return sess, nil
}

func (s *searchService) ListCached() ([]models.CachedSearch, error) {
	if s.storage == nil {
		return []models.CachedSearch{}, nil
	}
	return s.storage.ListSearches()
}

func (s *searchService) DeleteCached(id string) error {
	if s.storage == nil {
		return ErrCacheMiss
	}
	if err := s.storage.DeleteSearch(id); err != nil {
		return fmt.Errorf("failed to delete cached search %s: %w", id, err)
	}
	s.log.Infof("Deleted cached search %s", id)
	return nil
}

// PurgeCache removes cached pools older than olderThan. A zero or negative
// age removes everything.
func (s *searchService) PurgeCache(olderThan time.Duration) (int64, error) {
	if s.storage == nil {
		return 0, nil
	}
	cutoff := s.now()
	if olderThan > 0 {
		cutoff = cutoff.Add(-olderThan)
	} else {
		cutoff = cutoff.Add(time.Second)
	}
	n, err := s.storage.PurgeBefore(cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	if n > 0 {
		s.log.Infof("Purged %d cached searches", n)
	}
	return n, nil
}

func (s *searchService) Stats() Stats {
	st := Stats{
		CacheEnabled: s.storage != nil,
		CacheTTL:     s.config.CacheTTL.String(),
		Upstream:     s.config.Client.BaseURL,
	}
	if s.storage != nil {
		if n, err := s.storage.CountSearches(); err == nil {
			st.CachedPools = n
		}
	}
	if c, ok := s.searcher.(*client.Client); ok {
		st.Upstream = c.BaseURL()
		st.BreakerState = c.BreakerState()
	}
	return st
}

func (s *searchService) Close() error {
	if s.storage != nil {
		return s.storage.Close()
	}
	return nil
}
