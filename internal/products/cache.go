package products

import (
	"context"
	"encoding/json"
	"time"

	"github.com/angelmondragon/quotebuilder-backend/pkg/redis"
)

const catalogVersionCounter = "product_catalog_version"

// SearchCache stores recent search results. Invalidate drops every entry.
type SearchCache interface {
	Get(ctx context.Context, query string) ([]ProductDTO, bool, error)
	Set(ctx context.Context, query string, items []ProductDTO) error
	Invalidate(ctx context.Context) error
}

type redisStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Counter(ctx context.Context, name string) (int64, error)
	Bump(ctx context.Context, name string) (int64, error)
	ProductSearchKey(version int64, query string) string
}

// RedisSearchCache keys entries by catalog version, so bumping the version
// counter orphans every cached result and TTL reclaims them.
type RedisSearchCache struct {
	store redisStore
	ttl   time.Duration
}

// NewRedisSearchCache builds a cache over the shared redis client.
func NewRedisSearchCache(store *redis.Client, ttl time.Duration) *RedisSearchCache {
	return newRedisSearchCache(store, ttl)
}

func newRedisSearchCache(store redisStore, ttl time.Duration) *RedisSearchCache {
	return &RedisSearchCache{store: store, ttl: ttl}
}

func (c *RedisSearchCache) Get(ctx context.Context, query string) ([]ProductDTO, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return nil, false, err
	}
	raw, err := c.store.Get(ctx, c.store.ProductSearchKey(version, query))
	if err != nil {
		if redis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var items []ProductDTO
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, false, nil
	}
	return items, true, nil
}

func (c *RedisSearchCache) Set(ctx context.Context, query string, items []ProductDTO) error {
	version, err := c.version(ctx)
	if err != nil {
		return err
	}
	if items == nil {
		items = []ProductDTO{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.store.ProductSearchKey(version, query), payload, c.ttl)
}

func (c *RedisSearchCache) Invalidate(ctx context.Context) error {
	_, err := c.store.Bump(ctx, catalogVersionCounter)
	return err
}

func (c *RedisSearchCache) version(ctx context.Context) (int64, error) {
	return c.store.Counter(ctx, catalogVersionCounter)
}
