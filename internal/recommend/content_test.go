package recommend_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/recommend"
)

func TestContentSimilarity_EmptySets(t *testing.T) {
	assert.Zero(t, recommend.ContentSimilarity(nil, []string{"a", "b"}))
	assert.Zero(t, recommend.ContentSimilarity([]string{"a", "b"}, nil))
	assert.Zero(t, recommend.ContentSimilarity(nil, nil))
}

func TestContentSimilarity_Symmetric(t *testing.T) {
	a := []string{"anxiety", "work", "sleep"}
	b := []string{"work", "family"}

	assert.Equal(t, recommend.ContentSimilarity(a, b), recommend.ContentSimilarity(b, a))
}

func TestContentSimilarity_GeometricMeanDenominator(t *testing.T) {
	// |A|=3, |B|=2, intersection=1 -> 1 / sqrt(6). Jaccard would be 1/4.
	a := []string{"anxiety", "work", "sleep"}
	b := []string{"work", "family"}

	assert.InDelta(t, 1/math.Sqrt(6), recommend.ContentSimilarity(a, b), 1e-12)
}

func TestContentSimilarity_IdenticalSets(t *testing.T) {
	a := []string{"x", "y"}
	assert.InDelta(t, 1.0, recommend.ContentSimilarity(a, a), 1e-12)
}

func TestBuildPostFeatures_UnionOfTags(t *testing.T) {
	posts := []db.Post{
		{ID: "p1", Categories: []string{"work", "stress"}, Hashtags: []string{"#vent", "work"}},
		{ID: "p2"},
	}

	features := recommend.BuildPostFeatures(posts)

	assert.Equal(t, []string{"#vent", "stress", "work"}, features["p1"])
	assert.Empty(t, features["p2"])
}

func TestBuildUserPreferences_PositiveReactionsOnly(t *testing.T) {
	features := map[string][]string{
		"p1": {"work"},
		"p2": {"family"},
		"p3": {"school"},
		"p4": {"sleep"},
	}
	reactions := []db.Reaction{
		{PostID: "p1", UserID: 1, ReactionType: db.ReactionLike},
		{PostID: "p2", UserID: 1, ReactionType: db.ReactionSupport},
		{PostID: "p3", UserID: 1, ReactionType: db.ReactionBookmark},
		{PostID: "p4", UserID: 1, ReactionType: db.ReactionComment}, // engagement, not preference
	}

	prefs := recommend.BuildUserPreferences(reactions, features)

	require.Contains(t, prefs, uint64(1))
	assert.ElementsMatch(t, []string{"work", "family", "school"}, prefs[1])
}

// Comment reactions weigh 3 in the interaction matrix yet contribute nothing
// to the preference profile. The asymmetry is deliberate; this test pins it.
func TestUserPreferences_CommentReactionIsNotPositiveSignal(t *testing.T) {
	features := map[string][]string{"p1": {"work"}}
	reactions := []db.Reaction{
		{PostID: "p1", UserID: 7, ReactionType: db.ReactionComment},
	}

	assert.Equal(t, 3, recommend.ReactionWeight(db.ReactionComment))
	assert.NotContains(t, recommend.BuildUserPreferences(reactions, features), uint64(7))
}

func TestContentScores_NoProfileMeansEmptyMap(t *testing.T) {
	features := map[string][]string{"p1": {"work"}}

	scores := recommend.ContentScores(map[uint64][]string{}, features, 1, nil)

	assert.Empty(t, scores)
}

func TestContentScores_SkipsInteractedPosts(t *testing.T) {
	prefs := map[uint64][]string{1: {"work"}}
	features := map[string][]string{
		"p1": {"work"},
		"p2": {"work"},
	}
	interacted := map[string]struct{}{"p1": {}}

	scores := recommend.ContentScores(prefs, features, 1, interacted)

	assert.NotContains(t, scores, "p1")
	assert.InDelta(t, 1.0, scores["p2"], 1e-12)
}
