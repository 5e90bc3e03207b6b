package db

import (
	"time"
)

// User table
type User struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"uniqueIndex;size:64;not null"`
	Email        string    `gorm:"uniqueIndex;size:128;not null"`
	PasswordHash string    `gorm:"size:255;not null"`
	Active       bool      `gorm:"default:true"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// ExpiryDuration is the self-destruction setting of a post.
type ExpiryDuration string

const (
	Expiry24Hours ExpiryDuration = "24h"
	Expiry7Days   ExpiryDuration = "7d"
	ExpiryNever   ExpiryDuration = "never"
)

// Hours returns the lifetime in hours, or -1 for ExpiryNever.
func (d ExpiryDuration) Hours() int {
	switch d {
	case Expiry24Hours:
		return 24
	case Expiry7Days:
		return 168
	default:
		return -1
	}
}

// ExpiryAt computes the expiry timestamp relative to the creation time.
// Returns nil for ExpiryNever.
func (d ExpiryDuration) ExpiryAt(createdAt time.Time) *time.Time {
	h := d.Hours()
	if h < 0 {
		return nil
	}
	t := createdAt.Add(time.Duration(h) * time.Hour)
	return &t
}

// Post represents an anonymous confession.
//
// Categories and Hashtags are unordered tag sets stored as JSON columns so
// the schema stays identical across MySQL and SQLite.
//
// DisplayUsername is never persisted: it is the deterministic pseudonym
// derived from the post ID, filled in by the service layer on every read.
type Post struct {
	ID     string `gorm:"primaryKey;size:36"`
	UserID uint64 `gorm:"index;not null"`

	DisplayUsername string `gorm:"-" json:"username"`

	Title          string `gorm:"size:255"`
	GeneratedTitle string `gorm:"size:255"`
	Content        string `gorm:"type:text"`

	Categories []string `gorm:"serializer:json"`
	Hashtags   []string `gorm:"serializer:json"`

	// Denormalized reaction counters maintained by the reaction toggle.
	Likes    int `gorm:"default:0"`
	Supports int `gorm:"default:0"`
	Comments int `gorm:"default:0"`

	CreatedAt time.Time `gorm:"index"`

	// Self-destruction settings
	ExpiryDuration ExpiryDuration `gorm:"size:8;default:never"`
	ExpiresAt      *time.Time     `gorm:"index"`

	// TrendingScore is mutated only by the trending sweeper.
	TrendingScore *float64 `gorm:"index"`
}

// Expired reports whether the post is past its expiry at the given instant.
// Deletion triggers only when now is strictly after ExpiresAt.
func (p *Post) Expired(now time.Time) bool {
	return p.ExpiresAt != nil && now.After(*p.ExpiresAt)
}

// Reaction type tags. The set is closed; comment reactions exist as rows in
// some code paths even though comment counts are also derived from the
// comments table.
const (
	ReactionLike     = "like"
	ReactionSupport  = "support"
	ReactionComment  = "comment"
	ReactionBookmark = "bookmark"
)

// Reaction is a single (post, user, type) reaction row.
//
// Unique index on (post_id, user_id, reaction_type) guarantees at most one
// row per triple; toggling removes the existing row rather than duplicating.
type Reaction struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	PostID       string    `gorm:"size:36;not null;uniqueIndex:idx_post_user_type,priority:1"`
	UserID       uint64    `gorm:"not null;uniqueIndex:idx_post_user_type,priority:2;index:idx_user"`
	ReactionType string    `gorm:"size:16;not null;uniqueIndex:idx_post_user_type,priority:3"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

// Comment is a post comment; ParentID is nil for top-level comments and
// references another comment for replies.
type Comment struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	PostID    string    `gorm:"size:36;not null;index"`
	UserID    uint64    `gorm:"not null"`
	ParentID  *uint64   `gorm:"index"`
	Content   string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}
