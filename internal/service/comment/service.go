// Package comment implements nested comment threads on posts.
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
	apperrors "github.com/oggyb/confide/internal/errors"
)

// CommentStore is the slice of comment persistence the service needs.
type CommentStore interface {
	Create(ctx context.Context, comment *db.Comment) error
	FindByID(ctx context.Context, id uint64) (*db.Comment, error)
	ListTopLevel(ctx context.Context, postID string) ([]db.Comment, error)
	ListReplies(ctx context.Context, parentID uint64) ([]db.Comment, error)
	Delete(ctx context.Context, id uint64) error
}

// PostStore is the slice of post persistence the service needs.
type PostStore interface {
	FindByID(ctx context.Context, id string) (*db.Post, error)
	Save(ctx context.Context, post *db.Post) error
}

// Service owns comment threads. Adding a comment moves the post's
// denormalized comment counter; deleting moves it back.
type Service struct {
	comments CommentStore
	posts    PostStore
	logger   *slog.Logger
}

// NewService wires a comment service.
func NewService(comments CommentStore, posts PostStore, logger *slog.Logger) *Service {
	return &Service{comments: comments, posts: posts, logger: logger}
}

// AddComment attaches a comment to a post, optionally under a parent
// comment. Commenting on an expired post is an error, as is replying to a
// parent on a different post.
func (s *Service) AddComment(ctx context.Context, postID string, userID uint64, parentID *uint64, content string) (*db.Comment, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, apperrors.ErrPostNotFound
	}
	if post.Expired(time.Now()) {
		return nil, apperrors.ErrPostExpired
	}

	if parentID != nil {
		parent, err := s.comments.FindByID(ctx, *parentID)
		if err != nil {
			return nil, apperrors.ErrCommentNotFound
		}
		if parent.PostID != postID {
			return nil, fmt.Errorf("parent comment %d belongs to another post", *parentID)
		}
	}

	comment := &db.Comment{
		PostID:   postID,
		UserID:   userID,
		ParentID: parentID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("storing comment: %w", err)
	}

	post.Comments++
	if err := s.posts.Save(ctx, post); err != nil {
		s.logger.Error("updating comment counter failed", "postID", postID, "err", err)
	}

	return comment, nil
}

// ListTopLevel returns a post's root comments, oldest first.
func (s *Service) ListTopLevel(ctx context.Context, postID string) ([]db.Comment, error) {
	return s.comments.ListTopLevel(ctx, postID)
}

// ListReplies returns the direct replies of a comment, oldest first.
func (s *Service) ListReplies(ctx context.Context, parentID uint64) ([]db.Comment, error) {
	return s.comments.ListReplies(ctx, parentID)
}

// DeleteComment removes the user's own comment and decrements the post
// counter. A comment that is already gone is a no-op, not an error.
func (s *Service) DeleteComment(ctx context.Context, userID uint64, id uint64) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		if apperrors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("looking up comment: %w", err)
	}
	if comment.UserID != userID {
		return apperrors.ErrForbidden
	}

	if err := s.comments.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting comment: %w", err)
	}

	post, err := s.posts.FindByID(ctx, comment.PostID)
	if err == nil && post.Comments > 0 {
		post.Comments--
		if err := s.posts.Save(ctx, post); err != nil {
			s.logger.Error("updating comment counter failed", "postID", comment.PostID, "err", err)
		}
	}
	return nil
}
