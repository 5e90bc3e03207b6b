package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/utils/pagination"
)

// PostRepository provides data access methods for the Post model.
type PostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new repository bound to the given DB connection.
func NewPostRepository(database *gorm.DB) *PostRepository {
	return &PostRepository{db: database}
}

// FindAll returns every post, expired or not. The trending sweeper and the
// recommendation engine both consume the full set.
func (r *PostRepository) FindAll(ctx context.Context) ([]db.Post, error) {
	var posts []db.Post
	err := r.db.WithContext(ctx).Find(&posts).Error
	return posts, err
}

// FindByID returns a single post or gorm.ErrRecordNotFound.
func (r *PostRepository) FindByID(ctx context.Context, id string) (*db.Post, error) {
	var post db.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindByIDs returns the posts for the given IDs; missing IDs are simply
// absent from the result.
func (r *PostRepository) FindByIDs(ctx context.Context, ids []string) ([]db.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []db.Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

// Create inserts a new post.
func (r *PostRepository) Create(ctx context.Context, post *db.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

// Save persists all columns of an existing post.
func (r *PostRepository) Save(ctx context.Context, post *db.Post) error {
	return r.db.WithContext(ctx).Save(post).Error
}

// Delete removes a post and its reactions and comments.
func (r *PostRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&db.Reaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("post_id = ?", id).Delete(&db.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Post{}, "id = ?", id).Error
	})
}

// UpdateTrendingScore writes only the trending score column, so the sweeper
// never races user edits on other columns.
func (r *PostRepository) UpdateTrendingScore(ctx context.Context, id string, score float64) error {
	return r.db.WithContext(ctx).
		Model(&db.Post{}).
		Where("id = ?", id).
		Update("trending_score", score).Error
}

// ListNewest returns non-expired posts ordered by creation time, newest
// first, with cursor-based pagination on (created_at, id).
//
// Behavior:
//   - A post whose expires_at is NULL or in the future is visible.
//   - The cursor encodes the last row of the previous page.
//   - Returns the next page token when more rows exist.
func (r *PostRepository) ListNewest(
	ctx context.Context,
	now time.Time,
	paginationToken *string,
	limit int,
) ([]db.Post, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at DESC, id ASC").
		Limit(limit + 1)

	if cursor.PostID != "" && cursor.CreatedUnix > 0 {
		ts := time.UnixMilli(cursor.CreatedUnix)
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id > ?))",
			ts, ts, cursor.PostID,
		)
	}

	var posts []db.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, nil, err
	}

	var nextToken *string
	if len(posts) > limit {
		last := posts[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			PostID:      last.ID,
			CreatedUnix: last.CreatedAt.UnixMilli(),
		})
		nextToken = &token
		posts = posts[:limit]
	}

	return posts, nextToken, nil
}

// ListTrending returns non-expired posts ordered by trending score with
// page/size pagination. NULL scores sort last.
func (r *PostRepository) ListTrending(ctx context.Context, now time.Time, page, size int) ([]db.Post, error) {
	if page < 0 {
		page = 0
	}
	var posts []db.Post
	err := r.db.WithContext(ctx).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("trending_score IS NULL, trending_score DESC, created_at DESC, id ASC").
		Offset(page * size).
		Limit(size).
		Find(&posts).Error
	return posts, err
}

// ListByIDsNonExpired returns the non-expired subset of the given post IDs,
// newest first. Used for the bookmarked feed.
func (r *PostRepository) ListByIDsNonExpired(
	ctx context.Context,
	ids []string,
	now time.Time,
	page, size int,
) ([]db.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if page < 0 {
		page = 0
	}
	var posts []db.Post
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Where("expires_at IS NULL OR expires_at > ?", now).
		Order("created_at DESC, id ASC").
		Offset(page * size).
		Limit(size).
		Find(&posts).Error
	return posts, err
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
