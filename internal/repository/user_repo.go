package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
)

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// FindAllIDs returns the IDs of every user. The batch precomputer iterates
// this list on each scheduled pass.
func (r *UserRepository) FindAllIDs(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := r.db.WithContext(ctx).
		Model(&db.User{}).
		Order("id ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// FindByID returns a user or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUsername returns a user or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*db.User, error) {
	var user db.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
