// Package recommendation serves hybrid post recommendations: real-time
// scoring with Redis-cached derived artifacts, and batch precomputation.
package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/confide/internal/cache"
	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/pseudonym"
	"github.com/oggyb/confide/internal/recommend"
)

// PostStore is the slice of post persistence the recommender needs.
type PostStore interface {
	FindAll(ctx context.Context) ([]db.Post, error)
	FindByIDs(ctx context.Context, ids []string) ([]db.Post, error)
}

// ReactionStore is the slice of reaction persistence the recommender needs.
type ReactionStore interface {
	FindAll(ctx context.Context) ([]db.Reaction, error)
	FindByUser(ctx context.Context, userID uint64) ([]db.Reaction, error)
}

// Config carries the scoring weights and cache policy.
type Config struct {
	CollaborativeWeight float64
	ContentWeight       float64
	CacheTTL            time.Duration
	Workers             int
}

// Service computes hybrid recommendations for a single user on demand.
//
// The three derived artifacts (interaction matrix, preference map, feature
// map) and the final per-(user, limit) list are memoized in Redis under the
// "rec:" prefix; ClearCache evicts all four together.
type Service struct {
	posts     PostStore
	reactions ReactionStore
	cache     *cache.RedisCache
	logger    *slog.Logger
	cfg       Config
}

// NewService wires a recommendation service from its dependencies.
func NewService(posts PostStore, reactions ReactionStore, rdb *cache.RedisCache, logger *slog.Logger, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Service{
		posts:     posts,
		reactions: reactions,
		cache:     rdb,
		logger:    logger,
		cfg:       cfg,
	}
}

// GetRecommendedPosts returns up to limit posts for the user, best first.
//
// Behavior:
//   - userID 0 (unauthenticated) → empty result, not an error.
//   - Posts the user reacted to, of any type, are never candidates.
//   - Results are cached per (user, limit) until the scheduled eviction.
//   - Posts deleted between scoring and fetching are filtered out.
func (s *Service) GetRecommendedPosts(ctx context.Context, userID uint64, limit int) ([]db.Post, error) {
	if userID == 0 {
		return []db.Post{}, nil
	}

	key := s.cache.KeyForRecommendations(userID, limit)
	var ids []string
	err := s.cache.GetJSON(ctx, key, &ids)
	switch {
	case err == nil:
		return s.loadPostsInOrder(ctx, ids)
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("recommendation cache read failed", "key", key, "err", err)
	}

	ranked, err := s.computeRecommendations(ctx, userID, limit)
	if err != nil {
		return nil, err
	}

	ids = make([]string, 0, len(ranked))
	for _, r := range ranked {
		ids = append(ids, r.PostID)
	}
	if err := s.cache.SetJSON(ctx, key, ids, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("recommendation cache write failed", "key", key, "err", err)
	}

	return s.loadPostsInOrder(ctx, ids)
}

// ClearCache evicts the interaction matrix, preference map, feature map and
// every per-user result list in one sweep.
func (s *Service) ClearCache(ctx context.Context) error {
	return s.cache.ClearRecommendationArtifacts(ctx)
}

func (s *Service) computeRecommendations(ctx context.Context, userID uint64, limit int) ([]recommend.ScoredPost, error) {
	matrix, err := s.interactionMatrix(ctx)
	if err != nil {
		return nil, err
	}
	cfScores := recommend.CollaborativeScores(matrix, userID, s.cfg.Workers)

	features, err := s.postFeatures(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := s.userPreferences(ctx, features)
	if err != nil {
		return nil, err
	}

	userReactions, err := s.reactions.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user reactions: %w", err)
	}
	interacted := make(map[string]struct{}, len(userReactions))
	for _, r := range userReactions {
		interacted[r.PostID] = struct{}{}
	}

	cbScores := recommend.ContentScores(prefs, features, userID, interacted)

	// Candidates: every known post the user has not touched.
	candidates := make(map[string]struct{}, len(features))
	for postID := range features {
		if _, done := interacted[postID]; !done {
			candidates[postID] = struct{}{}
		}
	}

	return recommend.FuseAndRank(
		cfScores, cbScores, candidates,
		s.cfg.CollaborativeWeight, s.cfg.ContentWeight,
		limit,
	), nil
}

// interactionMatrix returns the cached user×post matrix, rebuilding it from
// all reactions on a miss.
func (s *Service) interactionMatrix(ctx context.Context) (recommend.Matrix, error) {
	key := s.cache.KeyForInteractionMatrix()

	var matrix recommend.Matrix
	if err := s.cache.GetJSON(ctx, key, &matrix); err == nil {
		return matrix, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("matrix cache read failed", "err", err)
	}

	reactions, err := s.reactions.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading reactions: %w", err)
	}
	matrix = recommend.BuildInteractionMatrix(reactions)

	if err := s.cache.SetJSON(ctx, key, matrix, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("matrix cache write failed", "err", err)
	}
	return matrix, nil
}

// postFeatures returns the cached postID → keyword map.
func (s *Service) postFeatures(ctx context.Context) (map[string][]string, error) {
	key := s.cache.KeyForPostFeatures()

	var features map[string][]string
	if err := s.cache.GetJSON(ctx, key, &features); err == nil {
		return features, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("features cache read failed", "err", err)
	}

	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading posts: %w", err)
	}
	features = recommend.BuildPostFeatures(posts)

	if err := s.cache.SetJSON(ctx, key, features, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("features cache write failed", "err", err)
	}
	return features, nil
}

// userPreferences returns the cached userID → keyword map.
func (s *Service) userPreferences(ctx context.Context, features map[string][]string) (map[uint64][]string, error) {
	key := s.cache.KeyForUserPreferences()

	var prefs map[uint64][]string
	if err := s.cache.GetJSON(ctx, key, &prefs); err == nil {
		return prefs, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn("preferences cache read failed", "err", err)
	}

	reactions, err := s.reactions.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading reactions: %w", err)
	}
	prefs = recommend.BuildUserPreferences(reactions, features)

	if err := s.cache.SetJSON(ctx, key, prefs, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("preferences cache write failed", "err", err)
	}
	return prefs, nil
}

func (s *Service) loadPostsInOrder(ctx context.Context, ids []string) ([]db.Post, error) {
	return loadPostsInOrder(ctx, s.posts, ids)
}

// loadPostsInOrder fetches posts by ID, keeps the scoring order, drops IDs
// that no longer resolve, and fills in display pseudonyms.
func loadPostsInOrder(ctx context.Context, store PostStore, ids []string) ([]db.Post, error) {
	if len(ids) == 0 {
		return []db.Post{}, nil
	}

	posts, err := store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading recommended posts: %w", err)
	}

	byID := make(map[string]db.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	ordered := make([]db.Post, 0, len(ids))
	for _, id := range ids {
		post, ok := byID[id]
		if !ok {
			// deleted since scoring; absent, not an error
			continue
		}
		post.DisplayUsername = pseudonym.ForPost(post.ID)
		ordered = append(ordered, post)
	}
	return ordered, nil
}
