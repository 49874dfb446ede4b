//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/himanishpuri/SimilarTracks/pkg/similar"
)

func printSeed(out io.Writer, sess *similar.Session) {
	seed := sess.Seed()
	fmt.Fprintf(out, "\n🎵 Seed: \"%s\" by %s", seed.Name, seed.ArtistLine())
	if bpm, ok := seed.Tempo(); ok {
		fmt.Fprintf(out, " (%.0f BPM)", bpm)
	}
	fmt.Fprintln(out)
	if tags := sess.SeedTags(); len(tags) > 0 {
		fmt.Fprintf(out, "   Tags: %s\n", strings.Join(tags, ", "))
	}
}

// printView renders the ranked results, or the reason there are none.
func printView(out io.Writer, v similar.View) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Filters: %s\n", describeFilters(v.Filters))

	if v.EmptyState() != similar.NotEmpty {
		fmt.Fprintf(out, "📭 %s\n\n", v.Summary())
		return
	}

	fmt.Fprintf(out, "%s\n\n", v.Summary())
	for i, r := range v.Results {
		fmt.Fprintf(out, "%2d. \"%s\" by %s\n", i+1, r.Name, r.ArtistLine())
		line := fmt.Sprintf("    Score: %.0f%% (match %.0f%%)", r.EffectiveScore*100, r.BaseScore()*100)
		if bpm, ok := r.Tempo(); ok {
			line += fmt.Sprintf(" | %.0f BPM", bpm)
		}
		if len(r.Tags) > 0 {
			line += " | " + strings.Join(r.Tags, ", ")
		}
		fmt.Fprintln(out, line)
		if r.SpotifyURL != "" {
			fmt.Fprintf(out, "    %s\n", r.SpotifyURL)
		}
	}
	fmt.Fprintln(out)
}

func describeFilters(f similar.FilterState) string {
	tempo := "off"
	switch {
	case f.TempoTolerance == 0:
		tempo = "exact"
	case f.TempoTolerance < similar.NoTempoFilter:
		tempo = fmt.Sprintf("±%d%%", f.TempoTolerance)
	}
	tags := "none"
	if len(f.SelectedTags) > 0 {
		tags = strings.Join(f.SelectedTags, ", ")
	}
	return fmt.Sprintf("tempo %s | tags %s | limit %d", tempo, tags, f.DisplayLimit)
}

func printVocabulary(out io.Writer, sess *similar.Session) {
	vocab := sess.Vocabulary()
	if len(vocab) == 0 {
		fmt.Fprintln(out, "\n🏷️  No tags available")
		return
	}
	fmt.Fprintf(out, "\n🏷️  %d tag(s):\n", len(vocab))
	for i, tc := range vocab {
		mark := " "
		if sess.IsTagSelected(tc.Tag) {
			mark = "*"
		}
		fmt.Fprintf(out, "  %s #%-2d %s (%d)\n", mark, i+1, tc.Tag, tc.Weight)
	}
}
