package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/oggyb/confide/internal/app"
	"github.com/oggyb/confide/internal/cache"
	"github.com/oggyb/confide/internal/config"
	"github.com/oggyb/confide/internal/db"
	"github.com/oggyb/confide/internal/logger"
	"github.com/oggyb/confide/internal/repository"
	"github.com/oggyb/confide/internal/scheduler"
	"github.com/oggyb/confide/internal/server"
	"github.com/oggyb/confide/internal/service/comment"
	"github.com/oggyb/confide/internal/service/post"
	"github.com/oggyb/confide/internal/service/recommendation"
	"github.com/oggyb/confide/internal/titlegen"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(database, redisCache, log)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(appCtx.DB); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// Repositories
	postRepo := repository.NewPostRepository(appCtx.DB)
	reactionRepo := repository.NewReactionRepository(appCtx.DB)
	commentRepo := repository.NewCommentRepository(appCtx.DB)
	userRepo := repository.NewUserRepository(appCtx.DB)

	// Services
	var titles titlegen.Generator
	if cfg.Gemini.APIKey != "" {
		titles = titlegen.NewClient(cfg.Gemini.BaseURL, cfg.Gemini.APIKey)
	}
	postSvc := post.NewService(postRepo, reactionRepo, titles, appCtx.Logger)
	commentSvc := comment.NewService(commentRepo, postRepo, appCtx.Logger)
	recommendSvc := recommendation.NewService(postRepo, reactionRepo, appCtx.RedisCache, appCtx.Logger, recommendation.Config{
		CollaborativeWeight: cfg.Recommend.CollaborativeWeight,
		ContentWeight:       cfg.Recommend.ContentWeight,
		CacheTTL:            cfg.Recommend.CacheTTL,
		Workers:             cfg.Recommend.PrecomputeWorkers,
	})
	batchSvc := recommendation.NewBatchService(userRepo, recommendSvc, postRepo, appCtx.RedisCache, appCtx.Logger,
		cfg.Recommend.PrecomputeLimit, cfg.Recommend.PrecomputeWorkers)

	// Background jobs
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := scheduler.New(log,
		scheduler.Job{
			Name:     "trending-sweep",
			Interval: cfg.Recommend.TrendingInterval,
			Run:      postSvc.CalculateTrendingScoresAndCleanExpiredPosts,
		},
		scheduler.Job{
			Name:     "recommendation-precompute",
			Interval: cfg.Recommend.PrecomputeInterval,
			Run:      batchSvc.PrecomputeRecommendations,
		},
		scheduler.Job{
			Name:     "recommendation-cache-eviction",
			Interval: cfg.Recommend.CacheTTL,
			Run:      recommendSvc.ClearCache,
		},
	)
	jobs.Start(ctx)

	// HTTP surface
	httpServer := server.New(cfg, log,
		post.NewRegistrar(postSvc),
		comment.NewRegistrar(commentSvc),
		recommendation.NewRegistrar(batchSvc),
	)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("http shutdown failed", "err", err)
		}
	}()

	if err := httpServer.Start(); err != nil {
		log.Error("http server failed", "err", err)
	}

	jobs.Wait()
	log.Info("server stopped")
}
