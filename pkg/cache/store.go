package cache

import (
	"context"
	"errors"
	"time"
)

var ErrCacheUnavailable = errors.New("cache: backend unavailable")

// Store is a byte-oriented cache with per-key TTL. Implementations must be
// safe for concurrent use. A miss is not an error: Get reports it through
// the boolean so backend failures stay distinguishable from absent keys.
// DeletePattern removes every key matching a glob pattern where '*' matches
// any run of characters; deleting nothing is not an error.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePattern(ctx context.Context, pattern string) error
}
