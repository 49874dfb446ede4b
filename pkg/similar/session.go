package similar

import (
	"fmt"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
)

// EmptyState explains why a view has no results.
type EmptyState int

const (
	// NotEmpty means the view has at least one result.
	NotEmpty EmptyState = iota
	// NotLoaded means no search has completed yet.
	NotLoaded
	// NoCandidates means the server returned an empty pool.
	NoCandidates
	// FilteredOut means every candidate was excluded by the filters.
	FilteredOut
)

// Message is the user-facing text for the state.
func (e EmptyState) Message() string {
	switch e {
	case NotLoaded:
		return "Search for a track to see similar tracks."
	case NoCandidates:
		return "No similar tracks found."
	case FilteredOut:
		return "No tracks match the current filters."
	default:
		return ""
	}
}

// View is what the presentation layer renders after every change.
type View struct {
	RankResult
	Filters  FilterState `json:"filters"`
	PoolSize int         `json:"pool_size"`
	Loaded   bool        `json:"loaded"`
}

// EmptyState reports why the view is empty, or NotEmpty.
func (v View) EmptyState() EmptyState {
	switch {
	case !v.Loaded:
		return NotLoaded
	case v.PoolSize == 0:
		return NoCandidates
	case len(v.Results) == 0:
		return FilteredOut
	default:
		return NotEmpty
	}
}

// Summary returns "Showing K of N", or the empty-state message.
func (v View) Summary() string {
	if e := v.EmptyState(); e != NotEmpty {
		return e.Message()
	}
	return fmt.Sprintf("Showing %d of %d", len(v.Results), v.TotalPassing)
}

// Session is the application state of one interactive search: the fetched
// pool, the seed and the filter settings. It has a single owner and is not
// safe for concurrent use.
type Session struct {
	pool     []models.Track
	seed     models.Track
	seedTags []string
	vocab    []TagCount
	filters  FilterStore
	loaded   bool
}

// NewSession returns an empty session.
func NewSession() *Session {
	s := &Session{}
	s.filters.Reset(DefaultDisplayLimit)
	return s
}

// Begin starts a new search: filters go back to their defaults and the
// previous pool is dropped. Call it before the search request is sent.
func (s *Session) Begin(displayLimit int) {
	s.filters.Reset(displayLimit)
	s.pool = nil
	s.seed = models.Track{}
	s.seedTags = nil
	s.vocab = nil
	s.loaded = false
}

// Load installs the result of a successful search and builds the tag vocabulary.
func (s *Session) Load(resp *models.SimilarResponse) {
	if resp == nil {
		resp = &models.SimilarResponse{}
	}
	s.pool = append([]models.Track(nil), resp.SimilarTracks...)
	s.seed = resp.SeedTrack
	s.seedTags = append([]string(nil), resp.SeedTags...)
	s.vocab = BuildVocabulary(s.pool, s.seedTags)
	s.loaded = true
}

// Dispatch applies cmd to the filters and returns the re-ranked view.
func (s *Session) Dispatch(cmd Command) View {
	if cmd != nil {
		cmd.Apply(&s.filters)
	}
	return s.View()
}

// View ranks the current pool under the current filters.
func (s *Session) View() View {
	state := s.filters.State()
	v := View{
		Filters:  state,
		PoolSize: len(s.pool),
		Loaded:   s.loaded,
	}
	v.RankResult = Rank(s.pool, s.seed, state)
	return v
}

func (s *Session) Loaded() bool { return s.loaded }
func (s *Session) Seed() models.Track { return s.seed }
func (s *Session) SeedTags() []string { return append([]string(nil), s.seedTags...) }
func (s *Session) Pool() []models.Track { return append([]models.Track(nil), s.pool...) }
func (s *Session) Vocabulary() []TagCount { return append([]TagCount(nil), s.vocab...) }
func (s *Session) Filters() FilterState { return s.filters.State() }
func (s *Session) IsTagSelected(tag string) bool { return s.filters.IsSelected(tag) }
