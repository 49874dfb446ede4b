//go:build !js && !wasm
// +build !js,!wasm

// Package storage persists fetched candidate pools in SQLite so a repeated
// search for the same seed can be served locally.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/goccy/go-json"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

const DefaultDBFile = "similartracks.sqlite3"
const errDBClientNil = "db client is nil"

// ErrNotFound is returned when no cached search matches.
var ErrNotFound = errors.New("cached search not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Search is one cached pool, keyed by the normalized seed reference.
type Search struct {
	ID             string `gorm:"primaryKey;type:varchar(36)"`
	CacheKey       string `gorm:"uniqueIndex:idx_search_key"`
	URL            string
	SeedJSON       string
	SeedTagsJSON   string
	CandidateCount int
	CreatedAt      time.Time `gorm:"index:idx_search_created"`
}

// Candidate is one track of a cached pool. Position preserves the order the
// server returned, which ranking relies on for ties.
type Candidate struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"`
	SearchID    string `gorm:"type:varchar(36);index:idx_candidate_search"`
	Position    int
	Name        string
	ArtistsJSON string
	Album       string
	AlbumArt    string
	PreviewURL  string
	SpotifyURL  string
	MatchScore  *float64
	BPM         *float64
	TagsJSON    string
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=foreign_keys(1)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// SQLite serializes writers; one connection avoids "database is locked".
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Search{}, &Candidate{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// SaveSearch stores resp under key, replacing any previous entry for the
// same key, and returns the new entry's ID.
func (c *DBClient) SaveSearch(key, url string, resp *models.SimilarResponse) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	if resp == nil {
		return "", errors.New("nil search response")
	}

	seedJSON, err := json.Marshal(resp.SeedTrack)
	if err != nil {
		return "", fmt.Errorf("encoding seed track: %w", err)
	}
	seedTagsJSON, err := marshalStrings(resp.SeedTags)
	if err != nil {
		return "", fmt.Errorf("encoding seed tags: %w", err)
	}

	search := Search{
		ID:             utils.GenerateUUID(),
		CacheKey:       key,
		URL:            url,
		SeedJSON:       string(seedJSON),
		SeedTagsJSON:   seedTagsJSON,
		CandidateCount: len(resp.SimilarTracks),
	}

	rows := make([]Candidate, 0, len(resp.SimilarTracks))
	for i, t := range resp.SimilarTracks {
		row, err := candidateRow(search.ID, i, t)
		if err != nil {
			return "", err
		}
		rows = append(rows, row)
	}

	err = c.DB.Transaction(func(tx *gorm.DB) error {
		var old []Search
		if err := tx.Where("cache_key = ?", key).Find(&old).Error; err != nil {
			return fmt.Errorf("querying existing search: %w", err)
		}
		for _, o := range old {
			if err := deleteSearch(tx, o.ID); err != nil {
				return err
			}
		}

		if err := tx.Create(&search).Error; err != nil {
			return fmt.Errorf("creating search: %w", err)
		}
		if len(rows) > 0 {
			if err := tx.CreateInBatches(rows, 100).Error; err != nil {
				return fmt.Errorf("batch insert candidates: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return search.ID, nil
}

// LoadSearch returns the cached pool for key together with its metadata.
func (c *DBClient) LoadSearch(key string) (*models.SimilarResponse, *models.CachedSearch, error) {
	if c == nil || c.DB == nil {
		return nil, nil, errors.New(errDBClientNil)
	}

	var search Search
	if err := c.DB.Where("cache_key = ?", key).First(&search).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("querying search: %w", err)
	}

	var rows []Candidate
	if err := c.DB.Where("search_id = ?", search.ID).Order("position").Find(&rows).Error; err != nil {
		return nil, nil, fmt.Errorf("querying candidates: %w", err)
	}

	resp := &models.SimilarResponse{SimilarTracks: make([]models.Track, 0, len(rows))}
	if err := json.Unmarshal([]byte(search.SeedJSON), &resp.SeedTrack); err != nil {
		return nil, nil, fmt.Errorf("decoding seed track: %w", err)
	}
	tags, err := unmarshalStrings(search.SeedTagsJSON)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding seed tags: %w", err)
	}
	resp.SeedTags = tags

	for _, r := range rows {
		t, err := r.track()
		if err != nil {
			return nil, nil, err
		}
		resp.SimilarTracks = append(resp.SimilarTracks, t)
	}

	meta := search.cached(resp.SeedTrack)
	return resp, &meta, nil
}

// ListSearches returns every cached search, newest first.
func (c *DBClient) ListSearches() ([]models.CachedSearch, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}

	var searches []Search
	if err := c.DB.Order("created_at desc").Find(&searches).Error; err != nil {
		return nil, fmt.Errorf("listing searches: %w", err)
	}

	out := make([]models.CachedSearch, 0, len(searches))
	for _, s := range searches {
		var seed models.Track
		// A damaged seed blob only costs the listing its seed name.
		_ = json.Unmarshal([]byte(s.SeedJSON), &seed)
		out = append(out, s.cached(seed))
	}
	return out, nil
}

// CountSearches returns the number of cached searches.
func (c *DBClient) CountSearches() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var count int64
	if err := c.DB.Model(&Search{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting searches: %w", err)
	}
	return count, nil
}

// DeleteSearchByID removes a cached search and its candidates.
func (c *DBClient) DeleteSearchByID(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Search{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return fmt.Errorf("querying search: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}
		return deleteSearch(tx, id)
	})
}

// PurgeBefore deletes every search cached before cutoff and returns how many were removed.
func (c *DBClient) PurgeBefore(cutoff time.Time) (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}

	var removed int64
	err := c.DB.Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&Search{}).Where("created_at < ?", cutoff).Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("querying stale searches: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("search_id IN ?", ids).Delete(&Candidate{}).Error; err != nil {
			return fmt.Errorf("deleting stale candidates: %w", err)
		}
		res := tx.Where("id IN ?", ids).Delete(&Search{})
		if res.Error != nil {
			return fmt.Errorf("deleting stale searches: %w", res.Error)
		}
		removed = res.RowsAffected
		return nil
	})
	return removed, err
}

func deleteSearch(tx *gorm.DB, id string) error {
	if err := tx.Where("search_id = ?", id).Delete(&Candidate{}).Error; err != nil {
		return fmt.Errorf("deleting candidates: %w", err)
	}
	if err := tx.Where("id = ?", id).Delete(&Search{}).Error; err != nil {
		return fmt.Errorf("deleting search: %w", err)
	}
	return nil
}

func (s Search) cached(seed models.Track) models.CachedSearch {
	return models.CachedSearch{
		ID:          s.ID,
		Key:         s.CacheKey,
		URL:         s.URL,
		SeedName:    seed.Name,
		SeedArtists: seed.Artists,
		Candidates:  s.CandidateCount,
		CreatedAt:   s.CreatedAt,
	}
}

func candidateRow(searchID string, pos int, t models.Track) (Candidate, error) {
	artists, err := marshalStrings(t.Artists)
	if err != nil {
		return Candidate{}, fmt.Errorf("encoding artists of %q: %w", t.Name, err)
	}
	tags, err := marshalStrings(t.Tags)
	if err != nil {
		return Candidate{}, fmt.Errorf("encoding tags of %q: %w", t.Name, err)
	}
	return Candidate{
		SearchID:    searchID,
		Position:    pos,
		Name:        t.Name,
		ArtistsJSON: artists,
		Album:       t.Album,
		AlbumArt:    t.AlbumArt,
		PreviewURL:  t.PreviewURL,
		SpotifyURL:  t.SpotifyURL,
		MatchScore:  t.MatchScore,
		BPM:         t.BPM,
		TagsJSON:    tags,
	}, nil
}

func (r Candidate) track() (models.Track, error) {
	artists, err := unmarshalStrings(r.ArtistsJSON)
	if err != nil {
		return models.Track{}, fmt.Errorf("decoding artists of %q: %w", r.Name, err)
	}
	tags, err := unmarshalStrings(r.TagsJSON)
	if err != nil {
		return models.Track{}, fmt.Errorf("decoding tags of %q: %w", r.Name, err)
	}
	return models.Track{
		Name:       r.Name,
		Artists:    artists,
		Album:      r.Album,
		AlbumArt:   r.AlbumArt,
		PreviewURL: r.PreviewURL,
		SpotifyURL: r.SpotifyURL,
		MatchScore: r.MatchScore,
		BPM:        r.BPM,
		Tags:       tags,
	}, nil
}

func marshalStrings(v []string) (string, error) {
	if len(v) == 0 {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalStrings(s string) ([]string, error) {
	if s == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, err
	}
	return out, nil
}
