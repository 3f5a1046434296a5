package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

type constError string

func (e constError) Error() string { return string(e) }

// Cache errors.
const (
	// ErrCacheMiss is returned by Get for absent or expired keys.
	ErrCacheMiss = constError("cache miss")

	// ErrInvalidCacheKey rejects empty keys.
	ErrInvalidCacheKey = constError("cache key cannot be empty")

	// ErrCacheUnavailable wraps backend failures.
	ErrCacheUnavailable = constError("cache unavailable")
)

// Cache stores values for a bounded TTL. Implementations are safe for
// concurrent use.
type Cache interface {
	// Get returns the value for key, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key for the cache's TTL.
	Set(ctx context.Context, key string, value []byte) error

	// Has reports whether key holds an unexpired value.
	Has(ctx context.Context, key string) (bool, error)
}

// HashKey returns a fixed-length key for arbitrary input.
func HashKey(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
