package similar

import (
	"sort"

	"github.com/himanishpuri/SimilarTracks/pkg/models"
)

// BuildVocabulary derives the tag chips offered for a pool. Each candidate
// contributes 1 per distinct tag and each seed tag occurrence adds
// SeedTagWeight, so tags describing the seed surface even when few
// candidates carry them. The heaviest VocabularySize tags are returned;
// ties keep first-seen order.
func BuildVocabulary(pool []models.Track, seedTags []string) []TagCount {
	weights := make(map[string]int)
	var order []string

	add := func(tag string, w int) {
		if tag == "" {
			return
		}
		if _, ok := weights[tag]; !ok {
			order = append(order, tag)
		}
		weights[tag] += w
	}

	for _, c := range pool {
		seen := make(map[string]struct{}, len(c.Tags))
		for _, t := range c.Tags {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}
			add(t, 1)
		}
	}
	for _, t := range seedTags {
		add(t, SeedTagWeight)
	}

	vocab := make([]TagCount, 0, len(order))
	for _, t := range order {
		vocab = append(vocab, TagCount{Tag: t, Weight: weights[t]})
	}
	sort.SliceStable(vocab, func(i, j int) bool {
		return vocab[i].Weight > vocab[j].Weight
	})

	if len(vocab) > VocabularySize {
		vocab = vocab[:VocabularySize]
	}
	return vocab
}
