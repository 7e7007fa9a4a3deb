// Package cache keeps read-mostly lookups in Redis with hit/miss accounting.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Stats tracks cache performance counters.
type Stats struct {
	Hits          int64 `json:"hits"`
	Misses        int64 `json:"misses"`
	Sets          int64 `json:"sets"`
	Invalidations int64 `json:"invalidations"`
}

type counters struct {
	mu    sync.RWMutex
	stats Stats
}

func (c *counters) add(fn func(*Stats)) {
	c.mu.Lock()
	fn(&c.stats)
	c.mu.Unlock()
}

func (c *counters) snapshot() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns hits as a percentage of lookups.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// jsonStore is the shared get/set/delete logic for JSON values under a key prefix.
type jsonStore struct {
	redis  *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger
	stats  *counters
}

func newJSONStore(client *redis.Client, ttl time.Duration, prefix string, logger *logrus.Logger) jsonStore {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return jsonStore{redis: client, ttl: ttl, prefix: prefix, logger: logger, stats: &counters{}}
}

func (s jsonStore) get(ctx context.Context, key string, dest interface{}) bool {
	data, err := s.redis.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.WithError(err).WithField("key", s.prefix+key).Warn("Redis error reading cache")
		}
		s.stats.add(func(st *Stats) { st.Misses++ })
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		s.logger.WithError(err).WithField("key", s.prefix+key).Warn("Discarding undecodable cache entry")
		s.stats.add(func(st *Stats) { st.Misses++ })
		return false
	}

	s.stats.add(func(st *Stats) { st.Hits++ })
	return true
}

func (s jsonStore) set(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := s.redis.Set(ctx, s.prefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	s.stats.add(func(st *Stats) { st.Sets++ })
	return nil
}

func (s jsonStore) del(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	s.stats.add(func(st *Stats) { st.Invalidations++ })
	return nil
}
