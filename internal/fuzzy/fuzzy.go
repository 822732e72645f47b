// Package fuzzy scores how well a candidate name matches a query, backing
// the Store's find_fuzzy primitive (spec.md §4.1). Grounded on the
// teacher's internal/semantic.FuzzyMatcher: Jaro-Winkler similarity via
// go-edlib, with a secondary Jaro-Winkler pass (here via xrash/smetrics
// rather than edlib's own, since the pack carries both) used to break
// near-ties the primary metric alone can't separate.
package fuzzy

import (
	"sort"

	"github.com/hbollon/go-edlib"
	"github.com/xrash/smetrics"
)

// Score returns the similarity of query against candidate in [0, 1]. 0
// means no match; values close to 1 mean near-identical strings. It blends
// Jaro-Winkler (the primary signal, good at matching names with typos or a
// swapped pair of characters) with a normalized Jaro-Winkler from smetrics
// as a tie-breaker when the edlib score alone would leave two candidates
// indistinguishable.
func Score(query, candidate string) float64 {
	if query == "" || candidate == "" {
		return 0
	}
	if query == candidate {
		return 1
	}

	primary, err := edlib.StringsSimilarity(query, candidate, edlib.JaroWinkler)
	if err != nil {
		primary = 0
	}

	secondary := smetrics.JaroWinkler(query, candidate, 0.7, 4)

	// Average the two: keeps edlib's score as the dominant signal while
	// letting smetrics nudge apart candidates edlib scores identically.
	return (float64(primary) + secondary) / 2
}

// Match is one (name, score) pair found against a query.
type Match struct {
	Name  string
	Score float64
}

// Rank scores every candidate against query, keeps only positive scores,
// and returns them sorted by descending score. Equal scores keep their
// relative input order (sort.SliceStable), matching spec.md §4.1's "ties
// broken arbitrarily but stably within a single call".
func Rank(query string, candidates []string) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		if s := Score(query, c); s > 0 {
			matches = append(matches, Match{Name: c, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
