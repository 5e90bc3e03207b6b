package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
)

// CommentRepository provides data access methods for the Comment model.
type CommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new repository bound to the given DB connection.
func NewCommentRepository(database *gorm.DB) *CommentRepository {
	return &CommentRepository{db: database}
}

func (r *CommentRepository) Create(ctx context.Context, comment *db.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*db.Comment, error) {
	var comment db.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListTopLevel returns a post's root comments, oldest first.
func (r *CommentRepository) ListTopLevel(ctx context.Context, postID string) ([]db.Comment, error) {
	var comments []db.Comment
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND parent_id IS NULL", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

// ListReplies returns the direct replies of a comment, oldest first.
func (r *CommentRepository) ListReplies(ctx context.Context, parentID uint64) ([]db.Comment, error) {
	var comments []db.Comment
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	return comments, err
}

func (r *CommentRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.Comment{}, id).Error
}
