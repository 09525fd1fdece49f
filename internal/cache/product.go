package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/catalog/internal/domain"
)

const keyPrefix = "catalog:product:"

// ProductCache stores product details in Redis keyed by product id.
type ProductCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewProductCache creates a Redis-backed product cache.
func NewProductCache(client redis.Cmdable, ttl time.Duration) *ProductCache {
	return &ProductCache{
		client: client,
		ttl:    ttl,
	}
}

func key(id string) string {
	return keyPrefix + id
}

// Get returns the cached detail for id. ok is false on a miss.
func (c *ProductCache) Get(ctx context.Context, id string) (detail *domain.ProductDetail, ok bool, err error) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get product: %w", err)
	}

	var d domain.ProductDetail
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached product: %w", err)
	}
	return &d, true, nil
}

// Set caches detail with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, detail *domain.ProductDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	if err := c.client.Set(ctx, key(detail.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set product: %w", err)
	}
	return nil
}

// Delete drops the entry for id. Deleting a missing key is not an error.
func (c *ProductCache) Delete(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("redis del product: %w", err)
	}
	return nil
}
