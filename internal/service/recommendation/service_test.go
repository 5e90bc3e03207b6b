package recommendation_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/cache"
	"github.com/oggyb/confide/internal/config"
	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/repository"
	"github.com/oggyb/confide/internal/service/recommendation"
)

//
// Test helpers
//

type testEnv struct {
	gdb       *gorm.DB
	cache     *cache.RedisCache
	posts     *repository.PostRepository
	reactions *repository.ReactionRepository
	svc       *recommendation.Service
}

// seedScoringData wipes the DB and inserts a small, hand-checkable dataset.
//
// Posts: postA and postB share the "career" category, postC is "travel",
// postD is "food".
//
// Reactions:
//   - user1 likes postA
//   - user2 likes postA and supports postB
//   - user3 supports postC
//
// For user1 this gives exactly one collaborative neighbor (user2, cosine
// 1/√5, pushing postB with 2/√5) and exactly one content match (postB,
// keyword overlap 1.0 via user1's "career" preference). postC and postD
// stay candidates with score 0, postA is excluded as already-reacted.
func seedScoringData(t *testing.T, gdb *gorm.DB) {
	t.Helper()

	require.NoError(t, gdb.Exec("DELETE FROM reactions").Error)
	require.NoError(t, gdb.Exec("DELETE FROM posts").Error)
	require.NoError(t, gdb.Exec("DELETE FROM users").Error)

	users := []db.User{
		{ID: 1, Username: "user1", Email: "u1@test.com", PasswordHash: "x", Active: true},
		{ID: 2, Username: "user2", Email: "u2@test.com", PasswordHash: "x", Active: true},
		{ID: 3, Username: "user3", Email: "u3@test.com", PasswordHash: "x", Active: true},
	}
	require.NoError(t, gdb.Create(&users).Error)

	posts := []db.Post{
		{ID: "postA", UserID: 1, Title: "a", Content: "a", Categories: []string{"career"}, ExpiryDuration: db.ExpiryNever},
		{ID: "postB", UserID: 2, Title: "b", Content: "b", Categories: []string{"career"}, ExpiryDuration: db.ExpiryNever},
		{ID: "postC", UserID: 3, Title: "c", Content: "c", Categories: []string{"travel"}, ExpiryDuration: db.ExpiryNever},
		{ID: "postD", UserID: 3, Title: "d", Content: "d", Categories: []string{"food"}, ExpiryDuration: db.ExpiryNever},
	}
	require.NoError(t, gdb.Create(&posts).Error)

	reactions := []db.Reaction{
		{PostID: "postA", UserID: 1, ReactionType: db.ReactionLike},
		{PostID: "postA", UserID: 2, ReactionType: db.ReactionLike},
		{PostID: "postB", UserID: 2, ReactionType: db.ReactionSupport},
		{PostID: "postC", UserID: 3, ReactionType: db.ReactionSupport},
	}
	require.NoError(t, gdb.Create(&reactions).Error)
}

// setupEnv spins up an in-memory SQLite DB, applies migrations, seeds the
// scoring dataset, starts a miniredis, and wires a recommendation Service.
//
// Each test gets its own isolated DB + Redis.
func setupEnv(t *testing.T) *testEnv {
	t.Helper()

	dbName := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	gdb, err := gorm.Open(sqlite.Open(dbName), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gdb.AutoMigrate(&db.User{}, &db.Post{}, &db.Reaction{}, &db.Comment{}))
	seedScoringData(t, gdb)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	redisCache := cache.NewRedisCache(cfg)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	posts := repository.NewPostRepository(gdb)
	reactions := repository.NewReactionRepository(gdb)

	svc := recommendation.NewService(posts, reactions, redisCache, logger, recommendation.Config{
		CollaborativeWeight: 0.6,
		ContentWeight:       0.4,
		CacheTTL:            time.Hour,
		Workers:             4,
	})

	return &testEnv{gdb: gdb, cache: redisCache, posts: posts, reactions: reactions, svc: svc}
}

func postIDs(posts []db.Post) []string {
	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

//
// Tests
//

// TestGetRecommendedPosts_RanksHybridScore checks the full pipeline on the
// seed dataset: postB wins for user1 (collaborative 2/√5 plus content 1.0),
// postA never appears, and the zero-score candidates still come back.
func TestGetRecommendedPosts_RanksHybridScore(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	posts, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)

	require.Len(t, posts, 3)
	assert.Equal(t, "postB", posts[0].ID)
	assert.NotContains(t, postIDs(posts), "postA")
	assert.ElementsMatch(t, []string{"postB", "postC", "postD"}, postIDs(posts))
}

// TestGetRecommendedPosts_SetsPseudonym checks that returned posts carry a
// display pseudonym rather than any stored username.
func TestGetRecommendedPosts_SetsPseudonym(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	posts, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	require.NotEmpty(t, posts)

	for _, p := range posts {
		assert.NotEmpty(t, p.DisplayUsername)
		assert.NotEqual(t, "user1", p.DisplayUsername)
		assert.NotEqual(t, "user2", p.DisplayUsername)
		assert.NotEqual(t, "user3", p.DisplayUsername)
	}
}

// TestGetRecommendedPosts_TruncatesToLimit checks that limit bounds the
// result and keeps the best-scored post.
func TestGetRecommendedPosts_TruncatesToLimit(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	posts, err := env.svc.GetRecommendedPosts(ctx, 1, 1)
	require.NoError(t, err)

	require.Len(t, posts, 1)
	assert.Equal(t, "postB", posts[0].ID)
}

// TestGetRecommendedPosts_AnonymousUserGetsEmpty checks that user ID 0 gets
// an empty list and no error.
func TestGetRecommendedPosts_AnonymousUserGetsEmpty(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	posts, err := env.svc.GetRecommendedPosts(ctx, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

// TestGetRecommendedPosts_CachesResult checks that a second call serves the
// memoized list even after the underlying data changed, and that ClearCache
// forces a recompute that sees the change.
func TestGetRecommendedPosts_CachesResult(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	first, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, first, 3)

	// New post arrives after the cache was populated.
	require.NoError(t, env.gdb.Create(&db.Post{
		ID: "postE", UserID: 2, Title: "e", Content: "e",
		Categories: []string{"career"}, ExpiryDuration: db.ExpiryNever,
	}).Error)

	cached, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, postIDs(first), postIDs(cached))

	require.NoError(t, env.svc.ClearCache(ctx))

	fresh, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Contains(t, postIDs(fresh), "postE")
	require.Len(t, fresh, 4)
}

// TestGetRecommendedPosts_FiltersDeletedPosts checks that a post removed
// after its ID was cached is silently dropped from the result.
func TestGetRecommendedPosts_FiltersDeletedPosts(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	first, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, first, 3)

	require.NoError(t, env.posts.Delete(ctx, "postC"))

	second, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	assert.NotContains(t, postIDs(second), "postC")
}

// TestGetRecommendedPosts_LimitKeyedSeparately checks that different limits
// do not serve each other's cached lists.
func TestGetRecommendedPosts_LimitKeyedSeparately(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	short, err := env.svc.GetRecommendedPosts(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, short, 1)

	long, err := env.svc.GetRecommendedPosts(ctx, 1, 10)
	require.NoError(t, err)
	assert.Len(t, long, 3)
}
