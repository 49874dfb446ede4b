package models

import (
	"math"
	"strings"
	"time"
)

// Track is a single track as returned by the similarity-search API.
// The seed track and every candidate share this shape.
type Track struct {
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	AlbumArt   string   `json:"album_art,omitempty"`
	PreviewURL string   `json:"preview_url,omitempty"`
	SpotifyURL string   `json:"spotify_url,omitempty"`

	// MatchScore is the server-computed similarity to the seed, in [0,1].
	MatchScore *float64 `json:"match_score,omitempty"`

	// BPM is the track tempo when the upstream could resolve it.
	BPM *float64 `json:"bpm,omitempty"`

	// Tags are descriptive tags (genre, mood, ...). Order carries no meaning.
	Tags []string `json:"tags,omitempty"`
}

// BaseScore returns the match score, or 0 when the server did not provide one.
func (t Track) BaseScore() float64 {
	if t.MatchScore == nil || math.IsNaN(*t.MatchScore) {
		return 0
	}
	return *t.MatchScore
}

// Tempo returns the track tempo and whether it is known.
// Non-positive or non-finite values count as unknown.
func (t Track) Tempo() (float64, bool) {
	if t.BPM == nil {
		return 0, false
	}
	bpm := *t.BPM
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return 0, false
	}
	return bpm, true
}

// ArtistLine joins the artist list for display.
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// SimilarRequest is the body sent to POST /api/similar.
type SimilarRequest struct {
	URL   string `json:"url" validate:"required"`
	Limit int    `json:"limit" validate:"min=1,max=50"`
}

// SimilarResponse is a successful answer from the similarity-search API.
type SimilarResponse struct {
	SeedTrack     Track    `json:"seed_track"`
	SeedTags      []string `json:"seed_tags"`
	SimilarTracks []Track  `json:"similar_tracks"`
}

// ErrorBody is the error payload of the similarity-search API.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// CachedSearch describes a pool stored in the local search cache.
type CachedSearch struct {
	ID          string
	Key         string
	URL         string
	SeedName    string
	SeedArtists []string
	Candidates  int
	CreatedAt   time.Time
}

// Float returns a pointer to v. Handy for building tracks in code.
func Float(v float64) *float64 {
	return &v
}
