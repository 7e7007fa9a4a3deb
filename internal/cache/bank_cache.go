package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const bankListKey = "distinct"

// bankCacheEntry is the stored form of the bank list.
type bankCacheEntry struct {
	Banks    []string  `json:"banks"`
	CachedAt time.Time `json:"cached_at"`
}

// BankCache caches the distinct bank name list served by GET /banks.
type BankCache struct {
	store jsonStore
}

// NewBankCache creates a Redis-backed bank list cache.
func NewBankCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *BankCache {
	return &BankCache{store: newJSONStore(client, ttl, "bank_cache:", logger)}
}

// Get returns the cached bank list.
func (c *BankCache) Get(ctx context.Context) ([]string, bool) {
	var entry bankCacheEntry
	if !c.store.get(ctx, bankListKey, &entry) {
		return nil, false
	}
	return entry.Banks, true
}

// Set stores the bank list.
func (c *BankCache) Set(ctx context.Context, banks []string) error {
	return c.store.set(ctx, bankListKey, bankCacheEntry{Banks: banks, CachedAt: time.Now().UTC()})
}

// Invalidate drops the list after rates are written or deleted.
func (c *BankCache) Invalidate(ctx context.Context) error {
	return c.store.del(ctx, bankListKey)
}

// GetOrLoad returns the cached list or loads, caches and returns a fresh one.
// A failed cache write is logged and does not fail the call.
func (c *BankCache) GetOrLoad(ctx context.Context, load func(context.Context) ([]string, error)) ([]string, error) {
	if banks, ok := c.Get(ctx); ok {
		return banks, nil
	}

	banks, err := load(ctx)
	if err != nil {
		return nil, err
	}

	if err := c.Set(ctx, banks); err != nil {
		c.store.logger.WithError(err).Warn("Failed to cache bank list")
	}
	return banks, nil
}

// GetStats returns current cache statistics.
func (c *BankCache) GetStats() Stats {
	return c.store.stats.snapshot()
}
