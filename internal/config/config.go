package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	App struct {
		ENV string
	}

	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Auth struct {
		JWTSecret string
	}

	// Recommend holds the knobs for the recommendation engine and its
	// background jobs. Weights mirror the documented hybrid formula.
	Recommend struct {
		CollaborativeWeight float64
		ContentWeight       float64
		CacheTTL            time.Duration
		PrecomputeInterval  time.Duration
		PrecomputeLimit     int
		PrecomputeWorkers   int
		TrendingInterval    time.Duration
	}

	Gemini struct {
		BaseURL string
		APIKey  string
	}
}

func New() *Config {
	cfg := &Config{}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", "production")

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "confide")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "confide")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "127.0.0.1")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", "")

	// Recommendation engine
	cfg.Recommend.CollaborativeWeight = getEnvFloat("RECOMMEND_CF_WEIGHT", 0.6)
	cfg.Recommend.ContentWeight = getEnvFloat("RECOMMEND_CB_WEIGHT", 0.4)
	cfg.Recommend.CacheTTL = getEnvSeconds("RECOMMEND_CACHE_TTL", 3600)
	cfg.Recommend.PrecomputeInterval = getEnvSeconds("RECOMMEND_PRECOMPUTE_INTERVAL", 1800)
	cfg.Recommend.PrecomputeLimit = getEnvInt("RECOMMEND_PRECOMPUTE_LIMIT", 20)
	cfg.Recommend.PrecomputeWorkers = getEnvInt("RECOMMEND_PRECOMPUTE_WORKERS", 4)
	cfg.Recommend.TrendingInterval = getEnvSeconds("TRENDING_INTERVAL", 3600)

	// Gemini title generation
	cfg.Gemini.BaseURL = getEnvDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")
	cfg.Gemini.APIKey = getEnvDefault("GEMINI_API_KEY", "")

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvFloat(k string, def float64) float64 {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

// getEnvSeconds reads an interval expressed in whole seconds.
func getEnvSeconds(k string, def int) time.Duration {
	return time.Duration(getEnvInt(k, def)) * time.Second
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
