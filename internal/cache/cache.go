// Package cache memoizes expensive read models (dashboard, product search,
// inventory valuation) in Redis, or in process memory when Redis is disabled.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Well-known key prefixes and their lifetimes
const (
	PrefixDashboard = "dashboard:"
	PrefixSearch    = "product_search:"
	PrefixInventory = "inventory_summary:"

	DashboardTTL = 300 * time.Second
	SearchTTL    = 60 * time.Second
	InventoryTTL = 600 * time.Second
)

// Cache stores JSON-encoded values under string keys
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// Remember returns the cached value for key, or calls load and caches its result.
// Cache failures never fail the call; the loader result is returned instead.
func Remember[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if c != nil {
		if raw, ok, err := c.Get(ctx, key); err == nil && ok {
			var cached T
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached, nil
			}
		}
	}

	value, err := load()
	if err != nil {
		return value, err
	}

	if c != nil {
		if raw, err := json.Marshal(value); err == nil {
			_ = c.Set(ctx, key, raw, ttl)
		}
	}
	return value, nil
}

// InvalidateStock drops every read model derived from stock or sales
func InvalidateStock(ctx context.Context, c Cache) error {
	if c == nil {
		return nil
	}
	for _, prefix := range []string{PrefixDashboard, PrefixSearch, PrefixInventory} {
		if err := c.DeletePrefix(ctx, prefix); err != nil {
			return fmt.Errorf("failed to invalidate %s: %w", prefix, err)
		}
	}
	return nil
}
