package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
)

// ReactionRepository provides data access methods for the Reaction model.
type ReactionRepository struct {
	db *gorm.DB
}

// NewReactionRepository creates a new repository bound to the given DB connection.
func NewReactionRepository(database *gorm.DB) *ReactionRepository {
	return &ReactionRepository{db: database}
}

// FindAll returns every reaction row. The recommendation engine builds the
// interaction matrix from this.
func (r *ReactionRepository) FindAll(ctx context.Context) ([]db.Reaction, error) {
	var reactions []db.Reaction
	err := r.db.WithContext(ctx).Find(&reactions).Error
	return reactions, err
}

// FindByUser returns all reactions a user made, of any type.
func (r *ReactionRepository) FindByUser(ctx context.Context, userID uint64) ([]db.Reaction, error) {
	var reactions []db.Reaction
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&reactions).Error
	return reactions, err
}

// FindByUserAndType returns a user's reactions of one type (e.g. bookmarks).
func (r *ReactionRepository) FindByUserAndType(ctx context.Context, userID uint64, reactionType string) ([]db.Reaction, error) {
	var reactions []db.Reaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND reaction_type = ?", userID, reactionType).
		Find(&reactions).Error
	return reactions, err
}

// FindOne returns the unique (post, user, type) row, or gorm.ErrRecordNotFound.
func (r *ReactionRepository) FindOne(ctx context.Context, postID string, userID uint64, reactionType string) (*db.Reaction, error) {
	var reaction db.Reaction
	err := r.db.WithContext(ctx).
		Where("post_id = ? AND user_id = ? AND reaction_type = ?", postID, userID, reactionType).
		First(&reaction).Error
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

// Create inserts a reaction row. The unique (post, user, type) index makes
// a duplicate insert fail rather than silently doubling up.
func (r *ReactionRepository) Create(ctx context.Context, reaction *db.Reaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

// Delete removes a reaction row by primary key.
func (r *ReactionRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&db.Reaction{}, id).Error
}

// CountByPostAndType counts reactions of one type on one post.
// The trending sweeper derives like/support/comment counts from this.
func (r *ReactionRepository) CountByPostAndType(ctx context.Context, postID, reactionType string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Reaction{}).
		Where("post_id = ? AND reaction_type = ?", postID, reactionType).
		Count(&count).Error
	return count, err
}
