package main

import (
	"github.com/oggyb/confide/internal/config"
	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/logger"
)

// Seeds the database with demo users, posts and reactions. Destructive:
// existing rows in the seeded tables are removed first.
func main() {
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	if err := db.SeedTestData(database); err != nil {
		log.Error("seeding failed", "err", err)
		return
	}
	log.Info("seeding complete")
}
