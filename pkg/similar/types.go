package similar

import (
	"github.com/himanishpuri/SimilarTracks/pkg/models"
)

const (
	// PoolSize is the number of candidates requested per search. The full
	// pool is always fetched so re-ranking never needs another request.
	PoolSize = 50

	// DefaultDisplayLimit is used when no positive display limit was requested.
	DefaultDisplayLimit = 10

	// NoTempoFilter disables tempo scoring.
	NoTempoFilter = 100

	// ExactTempoBand is the percentage difference still treated as an exact
	// tempo match when the tolerance is 0.
	ExactTempoBand = 2.0

	// MaxTempoDecay is the score reduction at the edge of the tolerance band.
	MaxTempoDecay = 0.4

	// TagMismatchFloor is the multiplier for a tagged candidate sharing none
	// of the selected tags.
	TagMismatchFloor = 0.5

	// UntaggedPenalty is the multiplier for a candidate without any tags.
	UntaggedPenalty = 0.4

	// VocabularySize caps the number of tag chips offered to the user.
	VocabularySize = 30

	// SeedTagWeight is added to a tag's count for every seed tag occurrence.
	SeedTagWeight = 5
)

// FilterState is an immutable snapshot of the user's filter settings.
type FilterState struct {
	// TempoTolerance is the accepted tempo deviation in percent.
	// 100 disables tempo filtering, 0 accepts exact matches only.
	TempoTolerance int `json:"tempo_tolerance"`

	// SelectedTags is the set of tags the user toggled on, sorted.
	SelectedTags []string `json:"selected_tags"`

	// DisplayLimit is the number of ranked tracks to surface.
	DisplayLimit int `json:"limit"`
}

// DefaultFilterState is the state a fresh search starts from.
func DefaultFilterState(displayLimit int) FilterState {
	if displayLimit <= 0 {
		displayLimit = DefaultDisplayLimit
	}
	return FilterState{
		TempoTolerance: NoTempoFilter,
		DisplayLimit:   displayLimit,
	}
}

// RankedTrack is a candidate together with its score under the current filters.
type RankedTrack struct {
	models.Track
	EffectiveScore float64 `json:"effective_score"`
}

// RankResult is the output of Rank.
type RankResult struct {
	// Results holds at most DisplayLimit tracks, best first.
	Results []RankedTrack `json:"results"`

	// TotalPassing counts every track that survived filtering, before truncation.
	TotalPassing int `json:"total_passing"`
}

// TagCount is one entry of the tag vocabulary.
type TagCount struct {
	Tag    string `json:"tag"`
	Weight int    `json:"weight"`
}
