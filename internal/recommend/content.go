package recommend

import (
	"math"
	"sort"

	"github.com/oggyb/confide/internal/db"
)

// IsPositiveReaction reports whether a reaction type counts as a topical
// preference signal. Comment reactions carry collaborative weight 3 but are
// deliberately excluded here: commenting signals engagement, not that the
// user wants more of the topic.
func IsPositiveReaction(reactionType string) bool {
	switch reactionType {
	case db.ReactionLike, db.ReactionSupport, db.ReactionBookmark:
		return true
	}
	return false
}

// postKeywords returns categories ∪ hashtags as a sorted, deduplicated
// slice. Sorted output keeps the cached JSON form deterministic.
func postKeywords(categories, hashtags []string) []string {
	set := make(map[string]struct{}, len(categories)+len(hashtags))
	for _, c := range categories {
		set[c] = struct{}{}
	}
	for _, h := range hashtags {
		set[h] = struct{}{}
	}
	keywords := make([]string, 0, len(set))
	for k := range set {
		keywords = append(keywords, k)
	}
	sort.Strings(keywords)
	return keywords
}

// BuildPostFeatures maps every post ID to its keyword feature set.
func BuildPostFeatures(posts []db.Post) map[string][]string {
	features := make(map[string][]string, len(posts))
	for _, p := range posts {
		features[p.ID] = postKeywords(p.Categories, p.Hashtags)
	}
	return features
}

// BuildUserPreferences unions the keywords of every post each user reacted
// to positively. Users with no positive reactions have no entry.
func BuildUserPreferences(reactions []db.Reaction, features map[string][]string) map[uint64][]string {
	sets := make(map[uint64]map[string]struct{})
	for _, r := range reactions {
		if r.UserID == 0 || r.PostID == "" || !IsPositiveReaction(r.ReactionType) {
			continue
		}
		keywords, ok := features[r.PostID]
		if !ok {
			continue
		}
		set := sets[r.UserID]
		if set == nil {
			set = make(map[string]struct{})
			sets[r.UserID] = set
		}
		for _, k := range keywords {
			set[k] = struct{}{}
		}
	}

	prefs := make(map[uint64][]string, len(sets))
	for userID, set := range sets {
		keywords := make([]string, 0, len(set))
		for k := range set {
			keywords = append(keywords, k)
		}
		sort.Strings(keywords)
		prefs[userID] = keywords
	}
	return prefs
}

// ContentSimilarity scores keyword overlap between a user profile and a
// post: |intersection| / sqrt(|A|·|B|).
//
// The denominator is the geometric mean of the set sizes, NOT the union
// size — this is intentionally not Jaccard similarity. Either set empty
// yields 0.
func ContentSimilarity(userKeywords, postKeywords []string) float64 {
	if len(userKeywords) == 0 || len(postKeywords) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(userKeywords))
	for _, k := range userKeywords {
		set[k] = struct{}{}
	}
	intersection := 0
	for _, k := range postKeywords {
		if _, ok := set[k]; ok {
			intersection++
		}
	}

	return float64(intersection) / math.Sqrt(float64(len(userKeywords))*float64(len(postKeywords)))
}

// ContentScores computes content-based scores for every post the target
// user has not interacted with. A user without a preference profile gets an
// empty map: collaborative scores alone rank for content-cold-start users.
func ContentScores(
	prefs map[uint64][]string,
	features map[string][]string,
	targetUserID uint64,
	interacted map[string]struct{},
) map[string]float64 {
	scores := make(map[string]float64)

	userKeywords, ok := prefs[targetUserID]
	if !ok {
		return scores
	}

	for postID, keywords := range features {
		if _, done := interacted[postID]; done {
			continue
		}
		scores[postID] = ContentSimilarity(userKeywords, keywords)
	}
	return scores
}
