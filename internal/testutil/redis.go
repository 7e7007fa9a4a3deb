// Package testutil holds helpers shared by package tests.
package testutil

import (
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/irfndi/fdtrend-go/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// NewMiniRedis starts an in-memory Redis and a client bound to it. Both are closed when the test ends.
func NewMiniRedis(t testing.TB) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	s, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})

	t.Cleanup(func() {
		_ = client.Close()
		s.Close()
	})

	return s, client
}

// RedisConfigFor returns a config.RedisConfig pointing at s.
func RedisConfigFor(t testing.TB, s *miniredis.Miniredis) config.RedisConfig {
	t.Helper()

	port, err := strconv.Atoi(s.Port())
	require.NoError(t, err)

	return config.RedisConfig{Host: s.Host(), Port: port, CacheTTL: "1m"}
}
