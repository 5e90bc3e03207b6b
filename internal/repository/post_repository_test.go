package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setup in-memory DB
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.AutoMigrate(&db.User{}, &db.Post{}, &db.Reaction{}, &db.Comment{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return database
}

func makePost(id string, createdAt time.Time, expiresAt *time.Time) db.Post {
	return db.Post{
		ID: id, UserID: 1, Title: "t", Content: "c",
		CreatedAt: createdAt, ExpiryDuration: db.ExpiryNever, ExpiresAt: expiresAt,
	}
}

func TestListNewest_CursorWalk(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPostRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	for i := 0; i < 7; i++ {
		p := makePost(fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute), nil)
		require.NoError(t, dbase.Create(&p).Error)
	}

	now := time.Now().UTC()
	var seen []string
	var token *string
	for {
		page, next, err := repo.ListNewest(ctx, now, token, 3)
		require.NoError(t, err)
		for _, p := range page {
			seen = append(seen, p.ID)
		}
		if next == nil {
			break
		}
		token = next
	}

	// newest first, every post exactly once
	assert.Equal(t, []string{"p6", "p5", "p4", "p3", "p2", "p1", "p0"}, seen)
}

func TestListNewest_SkipsExpired(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPostRepository(dbase)

	now := time.Now().UTC()
	past := now.Add(-time.Minute)
	future := now.Add(time.Hour)

	for _, p := range []db.Post{
		makePost("gone", now.Add(-2*time.Hour), &past),
		makePost("soon", now.Add(-time.Hour), &future),
		makePost("forever", now.Add(-30*time.Minute), nil),
	} {
		require.NoError(t, dbase.Create(&p).Error)
	}

	posts, _, err := repo.ListNewest(ctx, now, nil, 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "forever", posts[0].ID)
	assert.Equal(t, "soon", posts[1].ID)
}

func TestUpdateTrendingScore_TouchesOnlyScore(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPostRepository(dbase)

	p := makePost("p1", time.Now().UTC(), nil)
	p.Likes = 3
	require.NoError(t, dbase.Create(&p).Error)

	require.NoError(t, repo.UpdateTrendingScore(ctx, "p1", 4.2))

	var got db.Post
	require.NoError(t, dbase.First(&got, "id = ?", "p1").Error)
	require.NotNil(t, got.TrendingScore)
	assert.InDelta(t, 4.2, *got.TrendingScore, 1e-9)
	assert.Equal(t, 3, got.Likes)
}

func TestDelete_CascadesReactionsAndComments(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPostRepository(dbase)

	p := makePost("p1", time.Now().UTC(), nil)
	require.NoError(t, dbase.Create(&p).Error)
	require.NoError(t, dbase.Create(&db.Reaction{PostID: "p1", UserID: 2, ReactionType: db.ReactionLike}).Error)
	require.NoError(t, dbase.Create(&db.Comment{PostID: "p1", UserID: 2, Content: "hi"}).Error)

	require.NoError(t, repo.Delete(ctx, "p1"))

	var reactions, comments int64
	require.NoError(t, dbase.Model(&db.Reaction{}).Count(&reactions).Error)
	require.NoError(t, dbase.Model(&db.Comment{}).Count(&comments).Error)
	assert.Zero(t, reactions)
	assert.Zero(t, comments)
}

func TestListByIDsNonExpired_Pages(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewPostRepository(dbase)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		p := makePost(fmt.Sprintf("p%d", i), base.Add(time.Duration(i)*time.Minute), nil)
		require.NoError(t, dbase.Create(&p).Error)
	}

	ids := []string{"p0", "p1", "p2", "p3"}
	now := time.Now().UTC()

	first, err := repo.ListByIDsNonExpired(ctx, ids, now, 0, 3)
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Equal(t, "p3", first[0].ID)

	second, err := repo.ListByIDsNonExpired(ctx, ids, now, 1, 3)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "p0", second[0].ID)
}
