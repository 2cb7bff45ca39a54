package service

import (
	"sort"

	"github.com/clauseguard/contractreview/backend/model"
)

// similarityThreshold filters out irrelevant library matches.
const similarityThreshold = 0.5

// ClauseMatch pairs a library clause with its similarity score against the
// query text.
type ClauseMatch struct {
	Clause model.Clause `json:"clause"`
	Score  float64      `json:"similarity_score"`
}

// SimilarityRatio computes a sequence-similarity ratio between a and b:
// 2*LCS(a,b) / (len(a)+len(b)). 1.0 for identical strings, 0 for strings with
// no common characters. O(len(a)*len(b)) time, acceptable at clause-library
// scale; revisit with an indexed approach if libraries grow past a few
// hundred entries.
func SimilarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	// LCS length over bytes, one rolling row.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}

	lcs := prev[len(b)]
	return 2.0 * float64(lcs) / float64(len(a)+len(b))
}

// FindSimilarClauses scores text against every clause in the library and
// returns the top limit matches above the threshold, descending by score with
// a stable tie-break on library order. Pure and read-only.
func FindSimilarClauses(text string, library []model.Clause, limit int) []ClauseMatch {
	if limit <= 0 {
		limit = 3
	}

	var matches []ClauseMatch
	for i := range library {
		score := SimilarityRatio(text, library[i].Content)
		if score > similarityThreshold {
			matches = append(matches, ClauseMatch{Clause: library[i], Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches
}
