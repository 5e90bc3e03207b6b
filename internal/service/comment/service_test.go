package comment_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
	apperrors "github.com/oggyb/confide/internal/errors"
	"github.com/oggyb/confide/internal/repository"
	"github.com/oggyb/confide/internal/service/comment"
)

type testEnv struct {
	gdb *gorm.DB
	svc *comment.Service
}

// setupEnv spins up an in-memory SQLite DB with two posts: "open" accepts
// comments, "stale" is past its expiry.
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

	now := time.Now().UTC()
	staleAt := now.Add(-time.Hour)
	posts := []db.Post{
		{ID: "open", UserID: 1, Title: "t", Content: "c", CreatedAt: now, ExpiryDuration: db.ExpiryNever},
		{ID: "stale", UserID: 1, Title: "t", Content: "c", CreatedAt: now.Add(-25 * time.Hour), ExpiryDuration: db.Expiry24Hours, ExpiresAt: &staleAt},
	}
	require.NoError(t, gdb.Create(&posts).Error)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := comment.NewService(
		repository.NewCommentRepository(gdb),
		repository.NewPostRepository(gdb),
		logger,
	)
	return &testEnv{gdb: gdb, svc: svc}
}

func (e *testEnv) postComments(t *testing.T, postID string) int {
	t.Helper()
	var post db.Post
	require.NoError(t, e.gdb.First(&post, "id = ?", postID).Error)
	return post.Comments
}

func TestAddComment_IncrementsCounter(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	c, err := env.svc.AddComment(ctx, "open", 2, nil, "first!")
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Nil(t, c.ParentID)
	assert.Equal(t, 1, env.postComments(t, "open"))
}

func TestAddComment_Errors(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	_, err := env.svc.AddComment(ctx, "open", 0, nil, "anon")
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)

	_, err = env.svc.AddComment(ctx, "missing", 2, nil, "hello")
	assert.ErrorIs(t, err, apperrors.ErrPostNotFound)

	_, err = env.svc.AddComment(ctx, "stale", 2, nil, "too late")
	assert.ErrorIs(t, err, apperrors.ErrPostExpired)

	ghost := uint64(999)
	_, err = env.svc.AddComment(ctx, "open", 2, &ghost, "reply to nothing")
	assert.ErrorIs(t, err, apperrors.ErrCommentNotFound)
}

// TestThreading builds a two-level thread and checks that top-level and
// reply listings stay separate.
func TestThreading(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	root1, err := env.svc.AddComment(ctx, "open", 2, nil, "root one")
	require.NoError(t, err)
	root2, err := env.svc.AddComment(ctx, "open", 3, nil, "root two")
	require.NoError(t, err)
	reply, err := env.svc.AddComment(ctx, "open", 4, &root1.ID, "a reply")
	require.NoError(t, err)

	top, err := env.svc.ListTopLevel(ctx, "open")
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, root1.ID, top[0].ID)
	assert.Equal(t, root2.ID, top[1].ID)

	replies, err := env.svc.ListReplies(ctx, root1.ID)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, reply.ID, replies[0].ID)

	none, err := env.svc.ListReplies(ctx, root2.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAddComment_RejectsCrossPostParent(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	now := time.Now().UTC()
	require.NoError(t, env.gdb.Create(&db.Post{
		ID: "other", UserID: 1, Title: "t", Content: "c",
		CreatedAt: now, ExpiryDuration: db.ExpiryNever,
	}).Error)

	root, err := env.svc.AddComment(ctx, "open", 2, nil, "root")
	require.NoError(t, err)

	_, err = env.svc.AddComment(ctx, "other", 2, &root.ID, "wrong thread")
	assert.Error(t, err)
}

func TestDeleteComment_AuthorOnlyAndDecrements(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	c, err := env.svc.AddComment(ctx, "open", 2, nil, "mine")
	require.NoError(t, err)
	require.Equal(t, 1, env.postComments(t, "open"))

	assert.ErrorIs(t, env.svc.DeleteComment(ctx, 3, c.ID), apperrors.ErrForbidden)
	require.Equal(t, 1, env.postComments(t, "open"))

	require.NoError(t, env.svc.DeleteComment(ctx, 2, c.ID))
	assert.Equal(t, 0, env.postComments(t, "open"))
}

func TestDeleteComment_AbsentIsNoop(t *testing.T) {
	ctx := context.Background()
	env := setupEnv(t)

	assert.NoError(t, env.svc.DeleteComment(ctx, 2, 12345))
}
