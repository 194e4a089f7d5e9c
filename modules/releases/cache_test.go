package releases_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/release-agent/modules/releases"
	"github.com/dmitrymomot/release-agent/pkg/cache"
)

func TestCache_RoundTrip(t *testing.T) {
	t.Parallel()

	c := releases.NewCache(cache.NewMemoryStore(8), time.Minute, nil)
	ctx := context.Background()

	_, ok := c.GetActive(ctx)
	assert.False(t, ok, "empty cache must miss")

	feed := []releases.PublicRelease{
		{Version: "1.0.0", Notes: "first", PublishedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Version: "1.1.0", Notes: "second", PublishedAt: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)},
	}
	c.SetActive(ctx, feed)

	got, ok := c.GetActive(ctx)
	require.True(t, ok)
	assert.Equal(t, feed, got)
}

func TestCache_Invalidate(t *testing.T) {
	t.Parallel()

	c := releases.NewCache(cache.NewMemoryStore(8), time.Minute, nil)
	ctx := context.Background()

	c.SetActive(ctx, []releases.PublicRelease{{Version: "2.0.0"}})
	c.Invalidate(ctx)

	_, ok := c.GetActive(ctx)
	assert.False(t, ok, "invalidated feed must miss")
}

func TestCache_EmptyFeedIsCacheable(t *testing.T) {
	t.Parallel()

	c := releases.NewCache(cache.NewMemoryStore(8), time.Minute, nil)
	ctx := context.Background()

	c.SetActive(ctx, []releases.PublicRelease{})

	got, ok := c.GetActive(ctx)
	require.True(t, ok, "an empty feed is a valid cached value, not a miss")
	assert.Empty(t, got)
}

func TestRelease_Public(t *testing.T) {
	t.Parallel()

	rel := releases.Release{
		ID:          7,
		Version:     "3.1.4",
		Notes:       "bugfixes",
		URL:         "https://example.com/3.1.4",
		IsActive:    true,
		PublishedAt: time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC),
	}

	pub := rel.Public()
	assert.Equal(t, rel.Version, pub.Version)
	assert.Equal(t, rel.Notes, pub.Notes)
	assert.Equal(t, rel.URL, pub.URL)
	assert.Equal(t, rel.PublishedAt, pub.PublishedAt)
}
