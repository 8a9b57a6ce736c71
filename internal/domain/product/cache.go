// internal/domain/product/cache.go
package product

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const slugCacheTTL = 10 * time.Minute

// slugCache keeps product detail lookups out of Postgres for hot product pages.
// A nil client disables caching.
type slugCache struct {
	client *redis.Client
}

func newSlugCache(client *redis.Client) *slugCache {
	return &slugCache{client: client}
}

func slugKey(slug string) string {
	return "product:slug:" + slug
}

func (c *slugCache) get(ctx context.Context, slug string) (*Product, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, slugKey(slug)).Bytes()
	if err != nil {
		return nil, false
	}
	var p Product
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, false
	}
	return &p, true
}

func (c *slugCache) set(ctx context.Context, p *Product) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, slugKey(p.Slug), data, slugCacheTTL).Err()
}

func (c *slugCache) invalidate(ctx context.Context, slug string) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, slugKey(slug))
}
