package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/vytor/learnprogress/internal/logger"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

type Config struct {
	Addr     string
	DBPath   string
	LogLevel string

	ContentDir    string
	CacheBackend  string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TxMaxAttempts     int
	RapidGuessSeconds int

	WriteWorkerCount int
	WriteQueueSize   int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying sensible defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent in production.
	_ = godotenv.Load()

	return Config{
		Addr:              envOr("ADDR", ":8080"),
		DBPath:            envOr("DB_PATH", "file:progress.db"),
		LogLevel:          strings.ToUpper(envOr("LOG_LEVEL", "INFO")),
		ContentDir:        envOr("CONTENT_DIR", "content"),
		CacheBackend:      strings.ToLower(envOr("CACHE_BACKEND", CacheBackendMemory)),
		CacheTTL:          envDurationOr("CACHE_TTL", 10*time.Minute),
		RedisAddr:         envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword:     envOr("REDIS_PASSWORD", ""),
		RedisDB:           envIntOr("REDIS_DB", 0),
		TxMaxAttempts:     envIntOr("TX_MAX_ATTEMPTS", 5),
		RapidGuessSeconds: envIntOr("RAPID_GUESS_SECONDS", 2),
		WriteWorkerCount:  envIntOr("WRITE_WORKER_COUNT", 2),
		WriteQueueSize:    envIntOr("WRITE_QUEUE_SIZE", 128),
	}
}

// Validate reports every invalid setting at once, naming the env key of each.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH cannot be empty"))
	}
	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR (got %q)", c.LogLevel))
	}
	if strings.TrimSpace(c.ContentDir) == "" {
		errs = append(errs, errors.New("CONTENT_DIR cannot be empty"))
	}
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if strings.TrimSpace(c.RedisAddr) == "" {
			errs = append(errs, errors.New("REDIS_ADDR cannot be empty when CACHE_BACKEND=redis"))
		}
		if c.RedisDB < 0 {
			errs = append(errs, fmt.Errorf("REDIS_DB must be >= 0 (got %d)", c.RedisDB))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be %q or %q (got %q)", CacheBackendMemory, CacheBackendRedis, c.CacheBackend))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("CACHE_TTL must not be negative (got %s)", c.CacheTTL))
	}
	if c.TxMaxAttempts < 1 || c.TxMaxAttempts > 50 {
		errs = append(errs, fmt.Errorf("TX_MAX_ATTEMPTS must be between 1 and 50 (got %d)", c.TxMaxAttempts))
	}
	if c.RapidGuessSeconds < 0 {
		errs = append(errs, fmt.Errorf("RAPID_GUESS_SECONDS must be >= 0 (got %d)", c.RapidGuessSeconds))
	}
	if c.WriteWorkerCount < 1 {
		errs = append(errs, fmt.Errorf("WRITE_WORKER_COUNT must be >= 1 (got %d)", c.WriteWorkerCount))
	}
	if c.WriteQueueSize < 1 {
		errs = append(errs, fmt.Errorf("WRITE_QUEUE_SIZE must be >= 1 (got %d)", c.WriteQueueSize))
	}

	return errors.Join(errs...)
}

// RapidGuessThreshold returns the rapid-guess cutoff as a duration.
func (c Config) RapidGuessThreshold() time.Duration {
	return time.Duration(c.RapidGuessSeconds) * time.Second
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}

func envDurationOr(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("invalid value for %s=%q, using default %s", key, v, def)
	}
	return def
}
