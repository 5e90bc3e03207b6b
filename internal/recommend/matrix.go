// Package recommend implements the hybrid recommendation math: the
// user×post interaction matrix, cosine-similarity collaborative scoring,
// keyword-based content scoring, and weighted score fusion.
//
// Everything here is pure in-memory computation over already-fetched rows;
// fetching and caching belong to the service layer.
package recommend

import (
	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/logger"
)

// Matrix maps userID -> postID -> accumulated interaction weight.
type Matrix map[uint64]map[string]int

// ReactionWeight is the collaborative-filtering weight of a reaction type.
// Unknown types weigh 0 but still mark the post as interacted-with.
func ReactionWeight(reactionType string) int {
	switch reactionType {
	case db.ReactionLike:
		return 1
	case db.ReactionSupport:
		return 2
	case db.ReactionComment:
		return 3
	case db.ReactionBookmark:
		return 4
	default:
		return 0
	}
}

// BuildInteractionMatrix accumulates reaction weights into a user×post
// matrix. Malformed rows (missing user, post or type) are skipped and
// logged; they never abort the build.
func BuildInteractionMatrix(reactions []db.Reaction) Matrix {
	matrix := make(Matrix)
	for _, r := range reactions {
		if r.UserID == 0 || r.PostID == "" || r.ReactionType == "" {
			logger.Warn("skipping malformed reaction", "reaction_id", r.ID)
			continue
		}
		row := matrix[r.UserID]
		if row == nil {
			row = make(map[string]int)
			matrix[r.UserID] = row
		}
		row[r.PostID] += ReactionWeight(r.ReactionType)
	}
	return matrix
}
