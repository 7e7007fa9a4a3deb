package cache

import (
	"context"
	"time"

	"github.com/irfndi/fdtrend-go/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// UserCache caches profile lookups by user id. Password hashes are never stored.
type UserCache struct {
	store jsonStore
}

func NewUserCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *UserCache {
	return &UserCache{store: newJSONStore(client, ttl, "user_cache:", logger)}
}

func (c *UserCache) Get(ctx context.Context, userID string) (*models.UserResponse, bool) {
	var user models.UserResponse
	if !c.store.get(ctx, userID, &user) {
		return nil, false
	}
	return &user, true
}

func (c *UserCache) Set(ctx context.Context, user models.UserResponse) error {
	return c.store.set(ctx, user.ID, user)
}

func (c *UserCache) Invalidate(ctx context.Context, userID string) error {
	return c.store.del(ctx, userID)
}

func (c *UserCache) GetStats() Stats {
	return c.store.stats.snapshot()
}
