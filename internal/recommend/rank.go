package recommend

import (
	"sort"
)

// ScoredPost pairs a candidate post with its fused score.
type ScoredPost struct {
	PostID string
	Score  float64
}

// FuseAndRank combines collaborative and content scores for every candidate
// post, sorts descending and truncates to limit.
//
// finalScore = cfWeight·cf + cbWeight·cb, with absent terms defaulting to 0.
// Ordering between equal scores is implementation-defined: candidates come
// out of map iteration and the sort is not stable on ties.
func FuseAndRank(
	cfScores, cbScores map[string]float64,
	candidates map[string]struct{},
	cfWeight, cbWeight float64,
	limit int,
) []ScoredPost {
	ranked := make([]ScoredPost, 0, len(candidates))
	for postID := range candidates {
		ranked = append(ranked, ScoredPost{
			PostID: postID,
			Score:  cfWeight*cfScores[postID] + cbWeight*cbScores[postID],
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
