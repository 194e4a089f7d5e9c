package releases

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dmitrymomot/release-agent/pkg/cache"
)

const activeReleasesCacheKey = "active_releases"

// Cache wraps a cache.Store for the active-release feed. Backend failures
// degrade to cache misses so the feed keeps serving from the database.
type Cache struct {
	store cache.Store
	ttl   time.Duration
	log   *slog.Logger
}

func NewCache(store cache.Store, ttl time.Duration, log *slog.Logger) *Cache {
	if log == nil {
		log = slog.Default()
	}
	return &Cache{store: store, ttl: ttl, log: log}
}

// GetActive returns the cached active-release feed, or false on a miss.
func (c *Cache) GetActive(ctx context.Context) ([]PublicRelease, bool) {
	data, ok, err := c.store.Get(ctx, activeReleasesCacheKey)
	if err != nil {
		c.log.WarnContext(ctx, "release cache read failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result []PublicRelease
	if err := json.Unmarshal(data, &result); err != nil {
		c.log.WarnContext(ctx, "release cache holds invalid payload", "error", err)
		return nil, false
	}
	return result, true
}

// SetActive stores the active-release feed.
func (c *Cache) SetActive(ctx context.Context, feed []PublicRelease) {
	data, err := json.Marshal(feed)
	if err != nil {
		c.log.WarnContext(ctx, "failed to marshal release feed for cache", "error", err)
		return
	}
	if err := c.store.Set(ctx, activeReleasesCacheKey, data, c.ttl); err != nil {
		c.log.WarnContext(ctx, "release cache write failed", "error", err)
	}
}

// Invalidate drops the cached feed. Called after every release mutation.
func (c *Cache) Invalidate(ctx context.Context) {
	if err := c.store.Delete(ctx, activeReleasesCacheKey); err != nil {
		c.log.WarnContext(ctx, "release cache invalidation failed", "error", err)
	}
}
