package similar

import (
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func track(name string, score float64, bpm float64, tags ...string) models.Track {
	t := models.Track{
		Name:       name,
		Artists:    []string{"Artist " + name},
		MatchScore: models.Float(score),
		Tags:       tags,
	}
	if bpm > 0 {
		t.BPM = models.Float(bpm)
	}
	return t
}

func names(results []RankedTrack) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

func TestRank_NoFiltersPassesThrough(t *testing.T) {
	pool := []models.Track{
		track("a", 0.3, 90, "rock"),
		track("b", 0.9, 0),
		track("c", 0.6, 150, "pop"),
	}
	seed := track("seed", 1, 120)

	res := Rank(pool, seed, DefaultFilterState(10))

	if res.TotalPassing != 3 {
		t.Fatalf("Expected 3 passing, got %d", res.TotalPassing)
	}
	want := []string{"b", "c", "a"}
	if got := names(res.Results); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
	for _, r := range res.Results {
		if !almostEqual(r.EffectiveScore, r.BaseScore()) {
			t.Errorf("Expected %s effective score %.2f, got %.4f", r.Name, r.BaseScore(), r.EffectiveScore)
		}
	}
}

func TestRank_Idempotent(t *testing.T) {
	pool := []models.Track{
		track("a", 0.5, 118, "indie"),
		track("b", 0.5, 125, "indie", "rock"),
		track("c", 0.7, 0, "rock"),
		track("d", 0.2, 121),
	}
	seed := track("seed", 1, 120)
	state := FilterState{TempoTolerance: 10, SelectedTags: []string{"rock"}, DisplayLimit: 3}

	first := Rank(pool, seed, state)
	second := Rank(pool, seed, state)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Expected identical results, got %+v and %+v", first, second)
	}
}

func TestRank_DoesNotMutatePool(t *testing.T) {
	pool := []models.Track{
		track("a", 0.2, 100),
		track("b", 0.8, 100),
	}
	before := append([]models.Track(nil), pool...)

	Rank(pool, track("seed", 1, 100), FilterState{TempoTolerance: 5, DisplayLimit: 1})

	if !reflect.DeepEqual(pool, before) {
		t.Error("Expected pool to be unchanged after ranking")
	}
}

func TestRank_StableForEqualScores(t *testing.T) {
	pool := []models.Track{
		track("first", 0.5, 0),
		track("second", 0.5, 0),
		track("third", 0.5, 0),
	}

	res := Rank(pool, models.Track{}, DefaultFilterState(10))

	want := []string{"first", "second", "third"}
	if got := names(res.Results); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected pool order %v for ties, got %v", want, got)
	}
}

func TestTempoMultiplier_Decay(t *testing.T) {
	tests := []struct {
		tempo float64
		want  float64
	}{
		{120, 1.0},
		{126, 0.8},
		{114, 0.8},
		{132, 0.6},
		{108, 0.6},
		{132.5, 0},
		{140, 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.1f", tt.tempo), func(t *testing.T) {
			got := TempoMultiplier(tt.tempo, 120, 10)
			if !almostEqual(got, tt.want) {
				t.Errorf("Expected multiplier %.2f, got %.4f", tt.want, got)
			}
		})
	}
}

func TestTempoMultiplier_Monotonic(t *testing.T) {
	prev := 2.0
	for tempo := 120.0; tempo <= 135; tempo += 0.25 {
		got := TempoMultiplier(tempo, 120, 10)
		if got > prev {
			t.Fatalf("Expected non-increasing multiplier, got %.4f after %.4f at %.2f BPM", got, prev, tempo)
		}
		if got != 0 && (got < 0.6-epsilon || got > 1) {
			t.Fatalf("Expected multiplier in [0.6, 1] inside the band, got %.4f", got)
		}
		prev = got
	}
}

func TestTempoMultiplier_ExactMode(t *testing.T) {
	tests := []struct {
		tempo float64
		seed  float64
		want  float64
	}{
		{100, 100, 1},
		{98, 100, 1},
		{102, 100, 1},
		{101.5, 100, 1},
		{102.01, 100, 0},
		{97.99, 100, 0},
		{122.4, 120, 1},
		{117.6, 120, 1},
		{122.42, 120, 0},
	}

	for _, tt := range tests {
		got := TempoMultiplier(tt.tempo, tt.seed, 0)
		if got != tt.want {
			t.Errorf("Expected %.0f at %.2f BPM (seed %.0f), got %.4f", tt.want, tt.tempo, tt.seed, got)
		}
	}
}

func TestTempoMultiplier_ToleranceEdge(t *testing.T) {
	// 121.2 vs 120 is exactly 1% but computes to 1.0000000000000024.
	got := TempoMultiplier(121.2, 120, 1)
	if !almostEqual(got, 0.6) {
		t.Errorf("Expected 0.6 at the tolerance edge, got %.12f", got)
	}
	if got := TempoMultiplier(121.3, 120, 1); got != 0 {
		t.Errorf("Expected exclusion past the tolerance edge, got %.4f", got)
	}
}

func TestTempoMultiplier_Clamped(t *testing.T) {
	if got := TempoMultiplier(300, 100, 250); got != 1 {
		t.Errorf("Expected tolerance above 100 to disable filtering, got %.4f", got)
	}
	if got := TempoMultiplier(103, 100, -5); got != 0 {
		t.Errorf("Expected negative tolerance to act as exact mode, got %.4f", got)
	}
}

func TestRank_TempoNeedsBothTempos(t *testing.T) {
	pool := []models.Track{
		track("unknown", 0.5, 0),
		track("far", 0.9, 200),
	}

	// Unknown candidate tempo: the candidate is not penalised.
	res := Rank(pool, track("seed", 1, 100), FilterState{TempoTolerance: 5, DisplayLimit: 10})
	if got := names(res.Results); !reflect.DeepEqual(got, []string{"unknown"}) {
		t.Errorf("Expected only the tempo-less candidate to pass, got %v", got)
	}
	if !almostEqual(res.Results[0].EffectiveScore, 0.5) {
		t.Errorf("Expected unpenalised score 0.5, got %.4f", res.Results[0].EffectiveScore)
	}

	// Unknown seed tempo: tempo scoring is skipped altogether.
	res = Rank(pool, track("seed", 1, 0), FilterState{TempoTolerance: 0, DisplayLimit: 10})
	if res.TotalPassing != 2 {
		t.Errorf("Expected both candidates to pass without a seed tempo, got %d", res.TotalPassing)
	}
}

func TestTagMultiplier(t *testing.T) {
	tests := []struct {
		name     string
		tags     []string
		selected []string
		want     float64
	}{
		{"no selection", []string{"rock"}, nil, 1},
		{"full overlap", []string{"rock", "indie", "pop"}, []string{"rock", "indie"}, 1},
		{"half overlap", []string{"rock"}, []string{"rock", "indie"}, 0.75},
		{"no overlap", []string{"jazz"}, []string{"rock", "indie"}, 0.5},
		{"untagged", nil, []string{"rock"}, 0.4},
		{"duplicate tags count once", []string{"rock", "rock"}, []string{"rock", "indie"}, 0.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TagMultiplier(tt.tags, tt.selected)
			if !almostEqual(got, tt.want) {
				t.Errorf("Expected %.2f, got %.4f", tt.want, got)
			}
		})
	}
}

func TestRank_TagsReorderButNeverExclude(t *testing.T) {
	pool := []models.Track{
		track("untagged", 0.9, 0),
		track("other", 0.8, 0, "jazz"),
		track("match", 0.6, 0, "rock"),
	}

	res := Rank(pool, models.Track{}, FilterState{TempoTolerance: 100, SelectedTags: []string{"rock"}, DisplayLimit: 10})

	if res.TotalPassing != 3 {
		t.Fatalf("Expected tag filtering to keep all 3 tracks, got %d", res.TotalPassing)
	}
	// match 0.6, other 0.4, untagged 0.36
	want := []string{"match", "other", "untagged"}
	if got := names(res.Results); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected order %v, got %v", want, got)
	}
}

func TestRank_Truncation(t *testing.T) {
	pool := make([]models.Track, 0, 50)
	for i := 0; i < 50; i++ {
		bpm := 100.0
		if i%5 >= 3 {
			bpm = 200
		}
		pool = append(pool, track(fmt.Sprintf("t%02d", i), 1-float64(i)/100, bpm))
	}

	res := Rank(pool, track("seed", 1, 100), FilterState{TempoTolerance: 10, DisplayLimit: 10})

	if res.TotalPassing != 30 {
		t.Errorf("Expected 30 passing, got %d", res.TotalPassing)
	}
	if len(res.Results) != 10 {
		t.Errorf("Expected 10 results, got %d", len(res.Results))
	}
	for i := 1; i < len(res.Results); i++ {
		if res.Results[i].EffectiveScore > res.Results[i-1].EffectiveScore {
			t.Fatalf("Expected descending scores at %d", i)
		}
	}
}

func TestRank_NonPositiveLimitShowsAll(t *testing.T) {
	pool := []models.Track{track("a", 0.1, 0), track("b", 0.2, 0)}

	res := Rank(pool, models.Track{}, FilterState{TempoTolerance: 100})

	if len(res.Results) != 2 {
		t.Errorf("Expected every passing track without a limit, got %d", len(res.Results))
	}
}

func TestRank_MissingScoreDropped(t *testing.T) {
	pool := []models.Track{
		{Name: "no score"},
		{Name: "nan", MatchScore: models.Float(math.NaN())},
		track("zero", 0, 0),
		track("kept", 0.1, 0),
	}

	res := Rank(pool, models.Track{}, DefaultFilterState(10))

	if got := names(res.Results); !reflect.DeepEqual(got, []string{"kept"}) {
		t.Errorf("Expected only scored tracks, got %v", got)
	}
}

func TestRank_EndToEnd(t *testing.T) {
	pool := []models.Track{
		track("near", 0.9, 126, "indie"),
		track("same", 0.7, 120, "indie"),
		track("fast", 0.95, 140, "indie"),
	}
	seed := track("seed", 1, 120, "indie")

	res := Rank(pool, seed, FilterState{TempoTolerance: 10, SelectedTags: []string{"indie"}, DisplayLimit: 10})

	if res.TotalPassing != 2 {
		t.Fatalf("Expected 2 passing, got %d", res.TotalPassing)
	}
	if res.Results[0].Name != "near" || !almostEqual(res.Results[0].EffectiveScore, 0.72) {
		t.Errorf("Expected near at 0.72 first, got %s at %.4f", res.Results[0].Name, res.Results[0].EffectiveScore)
	}
	if res.Results[1].Name != "same" || !almostEqual(res.Results[1].EffectiveScore, 0.7) {
		t.Errorf("Expected same at 0.70 second, got %s at %.4f", res.Results[1].Name, res.Results[1].EffectiveScore)
	}
}
