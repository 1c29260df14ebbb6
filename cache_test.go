package mediawiki

import (
	"context"
	"testing"
	"time"

	json "github.com/eznix86/mediawiki-assetsource/jsoncompat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	cache := NewMemoryCache(0)

	_, ok, err := cache.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "k", json.Object{"batchcomplete": ""}))
	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, got, "batchcomplete")
	assert.Equal(t, 1, cache.Len())
}

func TestMemoryCache_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(time.Hour)
	cache.now = func() time.Time { return now }

	require.NoError(t, cache.Set(ctx, "k", json.Object{}))

	now = now.Add(59 * time.Minute)
	_, ok, _ := cache.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, ok, _ = cache.Get(ctx, "k")
	assert.False(t, ok)
	assert.Zero(t, cache.Len())
}
