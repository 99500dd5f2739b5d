// Package cache holds the byte-level caches used for course content: an
// in-process map and a Redis backend.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrCacheMiss is returned when the requested key is not cached.
	ErrCacheMiss = errors.New("cache: key not found")

	// ErrKeyEmpty is returned when an empty key is provided.
	ErrKeyEmpty = errors.New("cache: key cannot be empty")

	// ErrInvalidTTL is returned for a negative TTL.
	ErrInvalidTTL = errors.New("cache: invalid TTL")
)

// Cache stores opaque values under string keys. A zero TTL keeps the value
// until it is deleted.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

func checkKey(key string) error {
	if key == "" {
		return ErrKeyEmpty
	}
	return nil
}
