package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ListingCache keeps rendered list pages in redis under a generation
// number. Invalidate bumps the generation, so stale pages are never read
// again and simply expire.
type ListingCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewListingCache(client *redis.Client, prefix string, ttl time.Duration) *ListingCache {
	return &ListingCache{client: client, prefix: prefix, ttl: ttl}
}

// Get looks key up under the current generation and returns that
// generation. Callers that miss compute the page and hand the same
// generation to Set, so a page built across an Invalidate lands under the
// retired generation and is never read.
func (c *ListingCache) Get(ctx context.Context, key string, dst any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}
	raw, err := c.client.Get(ctx, c.pageKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, fmt.Errorf("cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return gen, false, fmt.Errorf("cache decode: %w", err)
	}
	return gen, true, nil
}

func (c *ListingCache) Set(ctx context.Context, gen int64, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	return c.client.Set(ctx, c.pageKey(gen, key), raw, c.ttl).Err()
}

func (c *ListingCache) Invalidate(ctx context.Context) error {
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *ListingCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("cache generation: %w", err)
	}
	return gen, nil
}

func (c *ListingCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *ListingCache) pageKey(gen int64, key string) string {
	return fmt.Sprintf("%s:g%d:%s", c.prefix, gen, key)
}
