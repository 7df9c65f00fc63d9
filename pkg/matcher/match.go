package matcher

import (
	"slices"

	"github.com/snaptheplant/fieldguide/pkg/model"
)

// Match ranks the records of category by agreement with observed. Scoring
// is soft: a key defined on both sides with different values only fails to
// add to the score and never removes the candidate. Only keys of the
// category vocabulary count, so confidence stays within 0..100.
//
// Match has no side effects; the same inputs always yield the same
// ordering.
func Match(records []*model.SpeciesRecord, category model.Category, observed model.Attributes) []*model.ScoredCandidate {
	keys := category.AttributeKeys()
	observed = observed.Normalize()

	candidates := make([]*model.ScoredCandidate, 0)
	for _, record := range records {
		if record == nil || record.Category != category {
			continue
		}

		score := 0
		for _, key := range keys {
			value, ok := observed[key]
			if !ok {
				continue
			}
			if record.Attributes.Matches(key, value) {
				score++
			}
		}

		candidates = append(candidates, &model.ScoredCandidate{
			Species:    record.Clone(),
			Score:      score,
			Confidence: confidence(score, len(keys)),
		})
	}

	// empty observations keep catalog order; every confidence is 0 anyway
	slices.SortStableFunc(candidates, func(a, b *model.ScoredCandidate) int {
		return b.Confidence - a.Confidence
	})

	return candidates
}

func confidence(score, max int) int {
	if max <= 0 || score <= 0 {
		return 0
	}
	return min(score*100/max, 100)
}

// Top returns at most n leading candidates
func Top(candidates []*model.ScoredCandidate, n int) []*model.ScoredCandidate {
	if n < 0 {
		n = 0
	}
	if len(candidates) <= n {
		return candidates
	}
	return candidates[:n]
}
