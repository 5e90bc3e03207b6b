package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/confide/internal/config"
)

// ErrMiss is returned by GetJSON when the key is absent.
var ErrMiss = errors.New("cache miss")

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, keys ...string) error {
	return c.Client.Del(ctx, keys...).Err()
}

// SetJSON marshals v and stores it under key. A single SET makes the
// replacement atomic: concurrent readers see either the old or the new
// document, never a partial write.
func (c *RedisCache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.Client.Set(ctx, key, b, ttl).Err()
}

// GetJSON loads key into out. Returns ErrMiss when the key is absent.
func (c *RedisCache) GetJSON(ctx context.Context, key string, out any) error {
	raw, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	} else if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

// DelByPrefix removes every key matching prefix* using SCAN, so eviction
// never blocks Redis the way KEYS would.
func (c *RedisCache) DelByPrefix(ctx context.Context, prefix string) error {
	iter := c.Client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.Client.Del(ctx, keys...).Err()
}

// --- Recommendation cache keys ---
//
// The four derived artifacts share the "rec:" prefix so the scheduled
// eviction clears them together.

const recPrefix = "rec:"

// KeyForInteractionMatrix is the constant "all users" matrix key.
func (c *RedisCache) KeyForInteractionMatrix() string {
	return recPrefix + "matrix:all"
}

// KeyForUserPreferences is the constant "all preferences" key.
func (c *RedisCache) KeyForUserPreferences() string {
	return recPrefix + "prefs:all"
}

// KeyForPostFeatures is the constant "all posts" feature-map key.
func (c *RedisCache) KeyForPostFeatures() string {
	return recPrefix + "features:all"
}

// KeyForRecommendations is the per-(user, limit) result list key.
func (c *RedisCache) KeyForRecommendations(userID uint64, limit int) string {
	return fmt.Sprintf("%suser:%d:%d", recPrefix, userID, limit)
}

// KeyForPrecomputed holds the batch precomputer's post-ID list for a user.
// Deliberately outside the "rec:" prefix: precomputed lists survive the
// scheduled cache eviction and are replaced only by the next batch pass.
func (c *RedisCache) KeyForPrecomputed(userID uint64) string {
	return fmt.Sprintf("precomputed:%d", userID)
}

// ClearRecommendationArtifacts evicts all four cached artifacts at once.
func (c *RedisCache) ClearRecommendationArtifacts(ctx context.Context) error {
	return c.DelByPrefix(ctx, recPrefix)
}
