//go:build !js && !wasm
// +build !js,!wasm

package similar

import (
	"errors"
	"fmt"
	"time"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage creates a new SQLite storage backend.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SaveSearch(key, url string, resp *models.SimilarResponse) (string, error) {
	return s.db.SaveSearch(key, url, resp)
}

func (s *storageAdapter) LoadSearch(key string) (*models.SimilarResponse, *models.CachedSearch, error) {
	resp, meta, err := s.db.LoadSearch(key)
	if err != nil {
		return nil, nil, missing(err)
	}
	return resp, meta, nil
}

func (s *storageAdapter) ListSearches() ([]models.CachedSearch, error) {
	return s.db.ListSearches()
}

func (s *storageAdapter) CountSearches() (int64, error) {
	return s.db.CountSearches()
}

func (s *storageAdapter) DeleteSearch(id string) error {
	return missing(s.db.DeleteSearchByID(id))
}

func (s *storageAdapter) PurgeBefore(cutoff time.Time) (int64, error) {
	return s.db.PurgeBefore(cutoff)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

// missing tags storage lookups that found nothing with ErrCacheMiss.
func missing(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrCacheMiss, err)
	}
	return err
}
