// Package post implements the post lifecycle: authoring, listing, reaction
// toggles, bookmarks, and the periodic trending/expiry sweep.
package post

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/confide/internal/db"
	apperrors "github.com/oggyb/confide/internal/errors"
	"github.com/oggyb/confide/internal/pseudonym"
	"github.com/oggyb/confide/internal/titlegen"
)

// PostStore is the slice of post persistence the service needs.
type PostStore interface {
	Create(ctx context.Context, post *db.Post) error
	FindByID(ctx context.Context, id string) (*db.Post, error)
	FindAll(ctx context.Context) ([]db.Post, error)
	Save(ctx context.Context, post *db.Post) error
	Delete(ctx context.Context, id string) error
	UpdateTrendingScore(ctx context.Context, id string, score float64) error
	ListNewest(ctx context.Context, now time.Time, paginationToken *string, limit int) ([]db.Post, *string, error)
	ListTrending(ctx context.Context, now time.Time, page, size int) ([]db.Post, error)
	ListByIDsNonExpired(ctx context.Context, ids []string, now time.Time, page, size int) ([]db.Post, error)
}

// ReactionStore is the slice of reaction persistence the service needs.
type ReactionStore interface {
	FindOne(ctx context.Context, postID string, userID uint64, reactionType string) (*db.Reaction, error)
	FindByUserAndType(ctx context.Context, userID uint64, reactionType string) ([]db.Reaction, error)
	Create(ctx context.Context, reaction *db.Reaction) error
	Delete(ctx context.Context, id uint64) error
	CountByPostAndType(ctx context.Context, postID, reactionType string) (int64, error)
}

// Service owns post lifecycle logic. The transport layer stays thin; every
// rule lives here.
type Service struct {
	posts     PostStore
	reactions ReactionStore
	titles    titlegen.Generator
	logger    *slog.Logger
}

// NewService wires a post service. titles may be nil, in which case created
// posts get the fallback title.
func NewService(posts PostStore, reactions ReactionStore, titles titlegen.Generator, logger *slog.Logger) *Service {
	return &Service{
		posts:     posts,
		reactions: reactions,
		titles:    titles,
		logger:    logger,
	}
}

// CreatePostInput carries the author-supplied fields of a new post.
type CreatePostInput struct {
	Title          string
	Content        string
	Categories     []string
	Hashtags       []string
	ExpiryDuration db.ExpiryDuration
}

// CreatePost stores a new post for the user.
//
// The post gets a UUID, an expiry computed from its creation instant, and,
// when the author left the title empty, a generated one ("Untitled Post" if
// generation fails). The returned post carries its display pseudonym.
func (s *Service) CreatePost(ctx context.Context, userID uint64, in CreatePostInput) (*db.Post, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}

	// Posts live forever unless the author picked a duration.
	expiry := in.ExpiryDuration
	if expiry == "" {
		expiry = db.ExpiryNever
	}
	switch expiry {
	case db.Expiry24Hours, db.Expiry7Days, db.ExpiryNever:
	default:
		return nil, fmt.Errorf("unsupported expiry duration %q", expiry)
	}

	now := time.Now().UTC()
	post := &db.Post{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          in.Title,
		Content:        in.Content,
		Categories:     in.Categories,
		Hashtags:       in.Hashtags,
		CreatedAt:      now,
		ExpiryDuration: expiry,
		ExpiresAt:      expiry.ExpiryAt(now),
	}

	if in.Title == "" {
		post.GeneratedTitle = s.generateTitle(ctx, in.Content)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("creating post: %w", err)
	}

	post.DisplayUsername = pseudonym.ForPost(post.ID)
	return post, nil
}

func (s *Service) generateTitle(ctx context.Context, content string) string {
	if s.titles == nil {
		return titlegen.FallbackTitle
	}
	title, err := s.titles.GenerateTitle(ctx, content)
	if err != nil {
		s.logger.Warn("title generation failed, using fallback", "err", err)
		return titlegen.FallbackTitle
	}
	return title
}

// GetPostByID returns a single post. Expired posts are reported as not
// found, same as absent ones.
func (s *Service) GetPostByID(ctx context.Context, id string) (*db.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrPostNotFound
	}
	if post.Expired(time.Now()) {
		return nil, apperrors.ErrPostNotFound
	}
	post.DisplayUsername = pseudonym.ForPost(post.ID)
	return post, nil
}

// ListNewest returns a page of non-expired posts, newest first, with an
// opaque cursor for the next page.
func (s *Service) ListNewest(ctx context.Context, paginationToken *string, limit int) ([]db.Post, *string, error) {
	posts, next, err := s.posts.ListNewest(ctx, time.Now(), paginationToken, limit)
	if err != nil {
		return nil, nil, fmt.Errorf("listing posts: %w", err)
	}
	return withPseudonyms(posts), next, nil
}

// ListTrending returns a page of non-expired posts ordered by trending
// score, unscored posts last.
func (s *Service) ListTrending(ctx context.Context, page, size int) ([]db.Post, error) {
	posts, err := s.posts.ListTrending(ctx, time.Now(), page, size)
	if err != nil {
		return nil, fmt.Errorf("listing trending posts: %w", err)
	}
	return withPseudonyms(posts), nil
}

// UpdatePostInput carries the editable fields of a post. Nil pointers leave
// the current value untouched.
type UpdatePostInput struct {
	Title          *string
	Content        *string
	Categories     []string
	Hashtags       []string
	ExpiryDuration *db.ExpiryDuration
}

// UpdatePost edits a post. Only the author may edit, expired posts are
// immutable, and an expiry can only be introduced on a post that currently
// never expires.
func (s *Service) UpdatePost(ctx context.Context, userID uint64, id string, in UpdatePostInput) (*db.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.ErrPostNotFound
	}
	if post.UserID != userID {
		return nil, apperrors.ErrForbidden
	}
	if post.Expired(time.Now()) {
		return nil, apperrors.ErrPostExpired
	}

	if in.Title != nil {
		post.Title = *in.Title
	}
	if in.Content != nil {
		post.Content = *in.Content
	}
	if in.Categories != nil {
		post.Categories = in.Categories
	}
	if in.Hashtags != nil {
		post.Hashtags = in.Hashtags
	}
	if in.ExpiryDuration != nil && *in.ExpiryDuration != post.ExpiryDuration {
		if post.ExpiryDuration != db.ExpiryNever {
			return nil, fmt.Errorf("expiry of post %s is already set and cannot change", id)
		}
		switch *in.ExpiryDuration {
		case db.Expiry24Hours, db.Expiry7Days, db.ExpiryNever:
		default:
			return nil, fmt.Errorf("unsupported expiry duration %q", *in.ExpiryDuration)
		}
		post.ExpiryDuration = *in.ExpiryDuration
		post.ExpiresAt = post.ExpiryDuration.ExpiryAt(post.CreatedAt)
	}

	if err := s.posts.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("saving post: %w", err)
	}
	post.DisplayUsername = pseudonym.ForPost(post.ID)
	return post, nil
}

// DeletePost removes a post and its reactions and comments. Author only.
func (s *Service) DeletePost(ctx context.Context, userID uint64, id string) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return apperrors.ErrPostNotFound
	}
	if post.UserID != userID {
		return apperrors.ErrForbidden
	}
	return s.posts.Delete(ctx, id)
}

// UpdateReaction toggles a (post, user, type) reaction: an existing row is
// removed, otherwise one is inserted. The post's denormalized counters move
// with the toggle. Returns the post with fresh counters.
func (s *Service) UpdateReaction(ctx context.Context, postID string, userID uint64, reactionType string) (*db.Post, error) {
	if userID == 0 {
		return nil, apperrors.ErrUnauthenticated
	}
	switch reactionType {
	case db.ReactionLike, db.ReactionSupport, db.ReactionComment, db.ReactionBookmark:
	default:
		return nil, apperrors.ErrInvalidReaction
	}

	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, apperrors.ErrPostNotFound
	}
	if post.Expired(time.Now()) {
		return nil, apperrors.ErrPostExpired
	}

	existing, err := s.reactions.FindOne(ctx, postID, userID, reactionType)
	if err != nil && !apperrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up reaction: %w", err)
	}

	delta := 0
	if existing != nil {
		if err := s.reactions.Delete(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("removing reaction: %w", err)
		}
		delta = -1
	} else {
		reaction := &db.Reaction{PostID: postID, UserID: userID, ReactionType: reactionType}
		if err := s.reactions.Create(ctx, reaction); err != nil {
			return nil, fmt.Errorf("storing reaction: %w", err)
		}
		delta = 1
	}

	switch reactionType {
	case db.ReactionLike:
		post.Likes += delta
	case db.ReactionSupport:
		post.Supports += delta
	case db.ReactionComment:
		post.Comments += delta
	}
	if err := s.posts.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("updating post counters: %w", err)
	}

	post.DisplayUsername = pseudonym.ForPost(post.ID)
	return post, nil
}

// GetBookmarkedPosts returns a page of the user's non-expired bookmarked
// posts.
func (s *Service) GetBookmarkedPosts(ctx context.Context, userID uint64, page, size int) ([]db.Post, error) {
	if userID == 0 {
		return []db.Post{}, nil
	}

	bookmarks, err := s.reactions.FindByUserAndType(ctx, userID, db.ReactionBookmark)
	if err != nil {
		return nil, fmt.Errorf("loading bookmarks: %w", err)
	}
	if len(bookmarks) == 0 {
		return []db.Post{}, nil
	}

	ids := make([]string, 0, len(bookmarks))
	for _, b := range bookmarks {
		ids = append(ids, b.PostID)
	}

	posts, err := s.posts.ListByIDsNonExpired(ctx, ids, time.Now(), page, size)
	if err != nil {
		return nil, fmt.Errorf("loading bookmarked posts: %w", err)
	}
	return withPseudonyms(posts), nil
}

// trendingDecayRate is the exponential decay constant applied per second of
// post age.
const trendingDecayRate = 0.00001

// CalculateTrendingScoresAndCleanExpiredPosts runs one sweep over all
// posts: expired ones are deleted, the rest get a fresh trending score of
// (likes + 2·supports + 1.5·comments) · e^(-0.00001·ageSeconds), with each
// count taken from the reaction rows of that type.
//
// Age is measured against a single instant captured at the start of the
// sweep. A post failing to delete, count or score is logged and skipped;
// the sweep always visits every post.
func (s *Service) CalculateTrendingScoresAndCleanExpiredPosts(ctx context.Context) error {
	posts, err := s.posts.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("loading posts for sweep: %w", err)
	}

	now := time.Now()
	var deleted, scored, failed int
	for _, post := range posts {
		if post.Expired(now) {
			if err := s.posts.Delete(ctx, post.ID); err != nil {
				failed++
				s.logger.Error("deleting expired post failed", "postID", post.ID, "err", err)
				continue
			}
			deleted++
			continue
		}

		engagement, err := s.engagement(ctx, post.ID)
		if err != nil {
			failed++
			s.logger.Error("counting reactions failed", "postID", post.ID, "err", err)
			continue
		}
		ageSeconds := float64(now.Unix() - post.CreatedAt.Unix())
		score := engagement * math.Exp(-trendingDecayRate*ageSeconds)

		if err := s.posts.UpdateTrendingScore(ctx, post.ID, score); err != nil {
			failed++
			s.logger.Error("updating trending score failed", "postID", post.ID, "err", err)
			continue
		}
		scored++
	}

	s.logger.Info("trending sweep finished",
		"scored", scored,
		"deleted", deleted,
		"failed", failed,
	)
	return nil
}

// engagement weighs a post's reaction rows per type. Counts come from the
// reaction store, not the denormalized columns: thread comments move the
// Comments column without creating comment-reaction rows, and must not
// move the trending score.
func (s *Service) engagement(ctx context.Context, postID string) (float64, error) {
	likes, err := s.reactions.CountByPostAndType(ctx, postID, db.ReactionLike)
	if err != nil {
		return 0, err
	}
	supports, err := s.reactions.CountByPostAndType(ctx, postID, db.ReactionSupport)
	if err != nil {
		return 0, err
	}
	comments, err := s.reactions.CountByPostAndType(ctx, postID, db.ReactionComment)
	if err != nil {
		return 0, err
	}
	return float64(likes) + 2*float64(supports) + 1.5*float64(comments), nil
}

func withPseudonyms(posts []db.Post) []db.Post {
	for i := range posts {
		posts[i].DisplayUsername = pseudonym.ForPost(posts[i].ID)
	}
	return posts
}
