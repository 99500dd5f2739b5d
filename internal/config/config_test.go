package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learnprogress/internal/config"
)

func validConfig() config.Config {
	return config.Config{
		Addr:              ":8080",
		DBPath:            "test.db",
		LogLevel:          "INFO",
		ContentDir:        "content",
		CacheBackend:      config.CacheBackendMemory,
		CacheTTL:          time.Minute,
		TxMaxAttempts:     5,
		RapidGuessSeconds: 2,
		WriteWorkerCount:  2,
		WriteQueueSize:    64,
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_EmptyAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Addr = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "ADDR cannot be empty")
}

func TestValidate_EmptyDBPath(t *testing.T) {
	cfg := validConfig()
	cfg.DBPath = ""

	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "DB_PATH cannot be empty")
}

func TestValidate_LogLevel(t *testing.T) {
	tests := []struct {
		level   string
		wantErr bool
	}{
		{"DEBUG", false},
		{"INFO", false},
		{"WARN", false},
		{"ERROR", false},
		{"debug", false},
		{"INVALID", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.LogLevel = tt.level

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), "LOG_LEVEL")
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidate_CacheBackend(t *testing.T) {
	t.Run("unknown backend", func(t *testing.T) {
		cfg := validConfig()
		cfg.CacheBackend = "memcached"
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "CACHE_BACKEND")
	})

	t.Run("redis requires address", func(t *testing.T) {
		cfg := validConfig()
		cfg.CacheBackend = config.CacheBackendRedis
		cfg.RedisAddr = ""
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "REDIS_ADDR")
	})

	t.Run("redis with address", func(t *testing.T) {
		cfg := validConfig()
		cfg.CacheBackend = config.CacheBackendRedis
		cfg.RedisAddr = "localhost:6379"
		assert.NoError(t, cfg.Validate())
	})
}

func TestValidate_InvalidWorkerSettings(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*config.Config)
		expectedError string
	}{
		{"zero workers", func(c *config.Config) { c.WriteWorkerCount = 0 }, "WRITE_WORKER_COUNT"},
		{"negative workers", func(c *config.Config) { c.WriteWorkerCount = -1 }, "WRITE_WORKER_COUNT"},
		{"zero queue", func(c *config.Config) { c.WriteQueueSize = 0 }, "WRITE_QUEUE_SIZE"},
		{"zero tx attempts", func(c *config.Config) { c.TxMaxAttempts = 0 }, "TX_MAX_ATTEMPTS"},
		{"too many tx attempts", func(c *config.Config) { c.TxMaxAttempts = 51 }, "TX_MAX_ATTEMPTS"},
		{"negative rapid guess", func(c *config.Config) { c.RapidGuessSeconds = -1 }, "RAPID_GUESS_SECONDS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.expectedError)
		})
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := config.Config{
		LogLevel:     "INVALID",
		CacheBackend: "nope",
	}

	err := cfg.Validate()
	require.Error(t, err)

	errStr := err.Error()
	assert.Contains(t, errStr, "ADDR cannot be empty")
	assert.Contains(t, errStr, "DB_PATH cannot be empty")
	assert.Contains(t, errStr, "LOG_LEVEL")
	assert.Contains(t, errStr, "CONTENT_DIR")
	assert.Contains(t, errStr, "CACHE_BACKEND")
	assert.Contains(t, errStr, "TX_MAX_ATTEMPTS")
	assert.Contains(t, errStr, "WRITE_WORKER_COUNT")
	assert.Contains(t, errStr, "WRITE_QUEUE_SIZE")
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	t.Setenv("ADDR", ":9090")
	t.Setenv("DB_PATH", "custom.db")
	t.Setenv("CACHE_BACKEND", "REDIS")
	t.Setenv("CACHE_TTL", "30s")
	t.Setenv("TX_MAX_ATTEMPTS", "not-a-number")

	cfg := config.Load()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "custom.db", cfg.DBPath)
	assert.Equal(t, config.CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
	assert.Equal(t, 5, cfg.TxMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.RapidGuessThreshold())
}
