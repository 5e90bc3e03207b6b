package recommendation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/confide/internal/cache"
	"github.com/oggyb/confide/internal/db"
)

// Recommender produces a ranked post list for one user.
type Recommender interface {
	GetRecommendedPosts(ctx context.Context, userID uint64, limit int) ([]db.Post, error)
}

// UserLister is the slice of user persistence the batch pass needs.
type UserLister interface {
	FindAllIDs(ctx context.Context) ([]uint64, error)
}

// BatchService precomputes recommendation lists for every user on a schedule
// and serves them with a real-time fallback.
//
// Precomputed lists live under their own Redis prefix, without expiry, so
// the scheduled eviction of scoring artifacts does not take them down.
type BatchService struct {
	users       UserLister
	recommender Recommender
	posts       PostStore
	cache       *cache.RedisCache
	logger      *slog.Logger
	limit       int
	workers     int
}

// NewBatchService wires a batch precomputer from its dependencies.
func NewBatchService(users UserLister, recommender Recommender, posts PostStore, rdb *cache.RedisCache, logger *slog.Logger, limit, workers int) *BatchService {
	if limit <= 0 {
		limit = 20
	}
	if workers <= 0 {
		workers = 4
	}
	return &BatchService{
		users:       users,
		recommender: recommender,
		posts:       posts,
		cache:       rdb,
		logger:      logger,
		limit:       limit,
		workers:     workers,
	}
}

// PrecomputeRecommendations refreshes the stored list for every user.
//
// One user failing never aborts the pass: the error is logged, a previously
// stored list is left in place, and a user with no stored list gets an empty
// one so the read path stays cheap.
func (b *BatchService) PrecomputeRecommendations(ctx context.Context) error {
	userIDs, err := b.users.FindAllIDs(ctx)
	if err != nil {
		return fmt.Errorf("listing users for precompute: %w", err)
	}

	b.logger.Info("starting recommendation precompute", "users", len(userIDs))

	var failed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(b.workers)
	for _, userID := range userIDs {
		userID := userID
		g.Go(func() error {
			if err := b.precomputeUser(ctx, userID); err != nil {
				failed.Add(1)
				b.logger.Error("precompute failed for user", "userID", userID, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	b.logger.Info("recommendation precompute finished",
		"users", len(userIDs),
		"failed", failed.Load(),
	)
	return nil
}

func (b *BatchService) precomputeUser(ctx context.Context, userID uint64) error {
	key := b.cache.KeyForPrecomputed(userID)

	posts, err := b.recommender.GetRecommendedPosts(ctx, userID, b.limit)
	if err != nil {
		// Keep whatever list is already stored; only seed an empty one
		// for users that have none yet.
		var existing []string
		if getErr := b.cache.GetJSON(ctx, key, &existing); errors.Is(getErr, cache.ErrMiss) {
			if setErr := b.cache.SetJSON(ctx, key, []string{}, 0); setErr != nil {
				b.logger.Warn("storing empty precomputed list failed", "userID", userID, "err", setErr)
			}
		}
		return err
	}

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return b.cache.SetJSON(ctx, key, ids, 0)
}

// GetPrecomputedRecommendations serves the stored list for a user, falling
// back to a real-time computation when none exists. It never propagates an
// error: any failure degrades to an empty result.
func (b *BatchService) GetPrecomputedRecommendations(ctx context.Context, userID uint64, limit int) []db.Post {
	if userID == 0 {
		return []db.Post{}
	}

	var ids []string
	err := b.cache.GetJSON(ctx, b.cache.KeyForPrecomputed(userID), &ids)
	if err == nil && len(ids) > 0 {
		if limit > 0 && len(ids) > limit {
			ids = ids[:limit]
		}
		posts, loadErr := loadPostsInOrder(ctx, b.posts, ids)
		if loadErr != nil {
			b.logger.Error("loading precomputed posts failed", "userID", userID, "err", loadErr)
			return []db.Post{}
		}
		return posts
	}
	if err != nil && !errors.Is(err, cache.ErrMiss) {
		b.logger.Warn("precomputed cache read failed", "userID", userID, "err", err)
	}

	posts, err := b.recommender.GetRecommendedPosts(ctx, userID, limit)
	if err != nil {
		b.logger.Error("real-time fallback failed", "userID", userID, "err", err)
		return []db.Post{}
	}
	return posts
}
