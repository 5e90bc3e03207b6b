package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedCategories = [][]string{
	{"mental-health", "anxiety"},
	{"relationships"},
	{"work", "burnout"},
	{"family"},
	{"school", "exams"},
}

var seedHashtags = [][]string{
	{"#opening-up"},
	{"#heartbreak", "#movingon"},
	{"#latenight"},
	{"#gratitude"},
	{"#vent"},
}

// SeedTestData resets the database and populates it with demo users,
// posts and reactions.
//
// Behavior:
//  1. Clears existing data in all tables.
//  2. Creates 20 users with hashed passwords.
//  3. Creates 30 posts with mixed categories/hashtags and expiry settings.
//  4. Generates reactions with a bias toward likes; counters stay in sync.
//
// Compatible with both MySQL and SQLite.
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	for _, table := range []string{"reactions", "comments", "posts", "users"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE users AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE reactions AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE comments AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('users', 'reactions', 'comments')")
	}

	log.Println("Cleared existing data")

	// --- Seed Users ---
	for i := 1; i <= 20; i++ {
		hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}

		user := User{
			Username:     fmt.Sprintf("user%d", i),
			Email:        fmt.Sprintf("user%d@example.com", i),
			PasswordHash: string(hash),
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to seed user: %w", err)
		}
	}
	log.Println("Seeded 20 users.")

	// --- Seed Posts ---
	expiries := []ExpiryDuration{ExpiryNever, ExpiryNever, Expiry7Days, Expiry24Hours}
	postIDs := make([]string, 0, 30)

	for i := 1; i <= 30; i++ {
		createdAt := time.Now().Add(-time.Duration(r.Intn(96)) * time.Hour)
		expiry := expiries[r.Intn(len(expiries))]

		post := Post{
			ID:             uuid.NewString(),
			UserID:         uint64(r.Intn(20) + 1),
			Title:          fmt.Sprintf("Confession #%d", i),
			Content:        fmt.Sprintf("Something I have never told anyone, part %d.", i),
			Categories:     seedCategories[r.Intn(len(seedCategories))],
			Hashtags:       seedHashtags[r.Intn(len(seedHashtags))],
			CreatedAt:      createdAt,
			ExpiryDuration: expiry,
			ExpiresAt:      expiry.ExpiryAt(createdAt),
		}
		if err := db.Create(&post).Error; err != nil {
			return fmt.Errorf("failed to seed post: %w", err)
		}
		postIDs = append(postIDs, post.ID)
	}
	log.Println("Seeded 30 posts.")

	// --- Seed Reactions ---
	types := []string{
		ReactionLike, ReactionLike, ReactionLike, // like probability ~50%
		ReactionSupport, ReactionComment, ReactionBookmark,
	}
	for userID := 1; userID <= 20; userID++ {
		for j := 0; j < 8; j++ {
			reaction := Reaction{
				PostID:       postIDs[r.Intn(len(postIDs))],
				UserID:       uint64(userID),
				ReactionType: types[r.Intn(len(types))],
			}
			// unique (post, user, type): ignore duplicates
			err := db.Where(
				"post_id = ? AND user_id = ? AND reaction_type = ?",
				reaction.PostID, reaction.UserID, reaction.ReactionType,
			).FirstOrCreate(&reaction).Error
			if err != nil {
				return fmt.Errorf("failed to seed reaction: %w", err)
			}
		}
	}

	// Sync denormalized counters with the seeded reactions.
	for _, postID := range postIDs {
		var likes, supports, comments int64
		db.Model(&Reaction{}).Where("post_id = ? AND reaction_type = ?", postID, ReactionLike).Count(&likes)
		db.Model(&Reaction{}).Where("post_id = ? AND reaction_type = ?", postID, ReactionSupport).Count(&supports)
		db.Model(&Reaction{}).Where("post_id = ? AND reaction_type = ?", postID, ReactionComment).Count(&comments)
		err := db.Model(&Post{}).Where("id = ?", postID).Updates(map[string]any{
			"likes":    likes,
			"supports": supports,
			"comments": comments,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to sync counters: %w", err)
		}
	}

	log.Println("Seeded reactions.")
	return nil
}
