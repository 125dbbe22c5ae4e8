package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wallhub/internal/config"
	"wallhub/internal/ids"
)

func TestListingCacheKeys(t *testing.T) {
	c := NewListingCache(nil, "wallhub:list", time.Minute)

	assert.Equal(t, "wallhub:list:gen", c.generationKey())
	assert.Equal(t, "wallhub:list:g3:all:1:20", c.pageKey(3, "all:1:20"))
	assert.NotEqual(t, c.pageKey(3, "all:1:20"), c.pageKey(4, "all:1:20"))
}

func testCache(t *testing.T) *ListingCache {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client, err := NewRedisClient(context.Background(), config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return NewListingCache(client, "wallhub:test:"+ids.New(), time.Minute)
}

type listing struct {
	Total int `json:"total"`
}

func TestListingCacheRoundTrip(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	var got listing
	gen, hit, err := c.Get(ctx, "all:1:10", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, gen, "all:1:10", listing{Total: 2}))
	again, hit, err := c.Get(ctx, "all:1:10", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, gen, again)
	assert.Equal(t, 2, got.Total)
}

func TestListingCacheDropsPageBuiltBeforeInvalidate(t *testing.T) {
	c := testCache(t)
	ctx := context.Background()

	var got listing
	gen, hit, err := c.Get(ctx, "all:1:10", &got)
	require.NoError(t, err)
	require.False(t, hit)

	// A mutation lands while the page is being computed.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, gen, "all:1:10", listing{Total: 1}))

	next, hit, err := c.Get(ctx, "all:1:10", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, gen+1, next)
}
