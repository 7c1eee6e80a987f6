// Package cache provides a Redis read-through cache for product documents.
// Writes always go to PostgreSQL first; cache entries are invalidated on every
// mutation so a stale document is bounded by the TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yogeshdgrg/BR-Dashboard/internal/domain"
)

const keyPrefix = "product:"

// ProductCache caches product documents in Redis.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewProductCache creates a new Redis-backed product cache.
func NewProductCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get retrieves a cached product. Returns (nil, nil) on a cache miss; cache
// infrastructure errors are logged and reported as misses so reads fall
// through to the database.
func (c *ProductCache) Get(ctx context.Context, id string) (*domain.Product, error) {
	data, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		c.logger.WarnContext(ctx, "product cache get failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
		return nil, nil
	}

	var p domain.Product
	if err := json.Unmarshal(data, &p); err != nil {
		// Corrupt entry; drop it and treat as miss.
		_ = c.client.Del(ctx, keyPrefix+id).Err()
		return nil, nil
	}

	return &p, nil
}

// Set stores a product with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, p *domain.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	if err := c.client.Set(ctx, keyPrefix+p.ID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}

	return nil
}

// Invalidate removes a product from the cache.
func (c *ProductCache) Invalidate(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del product: %w", err)
	}
	return nil
}
