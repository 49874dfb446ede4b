// Package rankapi is the JSON-facing surface of the ranking engine shared by
// the HTTP server and the WebAssembly build: request decoding, tag
// normalization and response shaping around similar.Rank and
// similar.BuildVocabulary.
package rankapi

import (
	"errors"

	"github.com/goccy/go-json"

	"github.com/himanishpuri/SimilarTracks/internal/validation"
	"github.com/himanishpuri/SimilarTracks/pkg/models"
	"github.com/himanishpuri/SimilarTracks/pkg/similar"
	"github.com/himanishpuri/SimilarTracks/pkg/utils"
)

// ErrInvalidJSON is returned when a request body cannot be decoded.
var ErrInvalidJSON = errors.New("invalid request body")

// RankRequest re-ranks a pool the caller already holds.
type RankRequest struct {
	SeedTrack     models.Track   `json:"seed_track"`
	SimilarTracks []models.Track `json:"similar_tracks" validate:"max=500"`

	// TempoTolerance is optional; omitted means no tempo filter.
	TempoTolerance *int     `json:"tempo_tolerance" validate:"omitempty,min=0,max=100"`
	SelectedTags   []string `json:"selected_tags"`

	// Limit is optional; 0 uses the caller's default display limit.
	Limit int `json:"limit" validate:"min=0,max=500"`
}

// FilterState converts the request into ranking filters.
func (r *RankRequest) FilterState(defaultLimit int) similar.FilterState {
	f := similar.NewFilterStore(defaultLimit)
	if r.TempoTolerance != nil {
		f.SetTempoTolerance(*r.TempoTolerance)
	}
	for _, tag := range utils.NormalizeTags(r.SelectedTags) {
		f.ToggleTag(tag)
	}
	f.SetDisplayLimit(r.Limit)
	return f.State()
}

type RankResponse struct {
	Results      []similar.RankedTrack `json:"results"`
	TotalPassing int                   `json:"total_passing"`
	Shown        int                   `json:"shown"`
	Summary      string                `json:"summary"`
	Filters      similar.FilterState   `json:"filters"`
}

type VocabularyRequest struct {
	SimilarTracks []models.Track `json:"similar_tracks" validate:"max=500"`
	SeedTags      []string       `json:"seed_tags"`
}

type VocabularyResponse struct {
	Tags  []similar.TagCount `json:"tags"`
	Count int                `json:"count"`
}

// Rank scores req's pool and shapes the result for the wire.
func Rank(req *RankRequest, defaultLimit int) RankResponse {
	state := req.FilterState(defaultLimit)
	pool := NormalizePool(req.SimilarTracks)
	result := similar.Rank(pool, req.SeedTrack, state)

	view := similar.View{
		RankResult: result,
		Filters:    state,
		PoolSize:   len(pool),
		Loaded:     true,
	}
	results := result.Results
	if results == nil {
		results = []similar.RankedTrack{}
	}
	return RankResponse{
		Results:      results,
		TotalPassing: result.TotalPassing,
		Shown:        len(result.Results),
		Summary:      view.Summary(),
		Filters:      state,
	}
}

// Vocabulary builds the tag chips for req's pool.
func Vocabulary(req *VocabularyRequest) VocabularyResponse {
	seedTags := make([]string, 0, len(req.SeedTags))
	for _, t := range req.SeedTags {
		if t = utils.NormalizeTag(t); t != "" {
			seedTags = append(seedTags, t)
		}
	}
	vocab := similar.BuildVocabulary(NormalizePool(req.SimilarTracks), seedTags)
	return VocabularyResponse{Tags: vocab, Count: len(vocab)}
}

// Decode unmarshals data into v and validates it.
func Decode(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return ErrInvalidJSON
	}
	return validation.Struct(v)
}

// RankJSON is Rank over raw JSON.
func RankJSON(data []byte, defaultLimit int) ([]byte, error) {
	var req RankRequest
	if err := Decode(data, &req); err != nil {
		return nil, err
	}
	return json.Marshal(Rank(&req, defaultLimit))
}

// VocabularyJSON is Vocabulary over raw JSON.
func VocabularyJSON(data []byte) ([]byte, error) {
	var req VocabularyRequest
	if err := Decode(data, &req); err != nil {
		return nil, err
	}
	return json.Marshal(Vocabulary(&req))
}

// NormalizePool returns a copy of pool with every candidate's tags normalized.
func NormalizePool(pool []models.Track) []models.Track {
	out := make([]models.Track, len(pool))
	for i, t := range pool {
		t.Tags = utils.NormalizeTags(t.Tags)
		out[i] = t
	}
	return out
}
