package similar

import (
	"math"
	"sort"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
)

// Rank scores every candidate in pool against seed under state and returns
// the surviving tracks sorted by descending effective score, truncated to
// state.DisplayLimit. Tracks with equal scores keep their pool order.
//
// Rank never modifies pool.
func Rank(pool []models.Track, seed models.Track, state FilterState) RankResult {
	seedTempo, seedKnown := seed.Tempo()
	tempoActive := seedKnown && state.TempoTolerance < NoTempoFilter
	selected := tagSet(state.SelectedTags)

	passing := make([]RankedTrack, 0, len(pool))
	for _, c := range pool {
		score := c.BaseScore()

		if tempoActive {
			if tempo, ok := c.Tempo(); ok {
				score *= TempoMultiplier(tempo, seedTempo, state.TempoTolerance)
			}
		}

		if len(selected) > 0 {
			score *= tagMultiplier(c.Tags, selected)
		}

		if !(score > 0) {
			continue
		}
		passing = append(passing, RankedTrack{Track: c, EffectiveScore: score})
	}

	sort.SliceStable(passing, func(i, j int) bool {
		return passing[i].EffectiveScore > passing[j].EffectiveScore
	})

	result := RankResult{TotalPassing: len(passing)}
	limit := state.DisplayLimit
	if limit > 0 && limit < len(passing) {
		passing = passing[:limit]
	}
	result.Results = passing
	return result
}

// tempoEpsilon absorbs float noise in the percentage, e.g. 122.4 vs 120
// computes to 2.0000000000000049.
const tempoEpsilon = 1e-9

// TempoDiffPercent returns how far tempo is from seedTempo, in percent of seedTempo.
func TempoDiffPercent(tempo, seedTempo float64) float64 {
	return math.Abs(tempo-seedTempo) * 100 / seedTempo
}

// TempoMultiplier returns the factor applied to a candidate's score for its
// tempo. Both tempos must be known. tolerance is clamped to [0,100]; at 100
// the multiplier is always 1.
func TempoMultiplier(tempo, seedTempo float64, tolerance int) float64 {
	tolerance = clampTolerance(tolerance)
	if tolerance >= NoTempoFilter {
		return 1
	}

	diff := TempoDiffPercent(tempo, seedTempo)
	if tolerance == 0 {
		if diff <= ExactTempoBand+tempoEpsilon {
			return 1
		}
		return 0
	}

	tol := float64(tolerance)
	if diff > tol+tempoEpsilon {
		return 0
	}
	if diff > tol {
		diff = tol
	}
	return 1 - (diff/tol)*MaxTempoDecay
}

// TagMultiplier returns the factor applied to a candidate's score for its
// overlap with selected. An empty selection yields 1.
func TagMultiplier(tags, selected []string) float64 {
	set := tagSet(selected)
	if len(set) == 0 {
		return 1
	}
	return tagMultiplier(tags, set)
}

func tagMultiplier(tags []string, selected map[string]struct{}) float64 {
	if len(tags) == 0 {
		return UntaggedPenalty
	}

	// Candidate tags are a set; count each selected tag once.
	overlap := 0
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := selected[t]; ok {
			overlap++
		}
	}

	ratio := float64(overlap) / float64(len(selected))
	return TagMismatchFloor + (1-TagMismatchFloor)*ratio
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

func clampTolerance(percent int) int {
	if percent < 0 {
		return 0
	}
	if percent > NoTempoFilter {
		return NoTempoFilter
	}
	return percent
}
