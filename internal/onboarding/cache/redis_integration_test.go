//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"heirloom/internal/onboarding/cache"
	"heirloom/internal/onboarding/models"
	"heirloom/internal/platform/redis"
	"heirloom/pkg/testutil/containers"
)

func newRedisCache(t *testing.T, ttl time.Duration) *cache.StatusCache {
	t.Helper()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(context.Background()))
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return cache.New(&redis.Client{Client: rc.Client}, ttl, log)
}

func TestStatusCacheRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	c := newRedisCache(t, time.Minute)
	ctx := context.Background()
	userID := uuid.NewString()

	_, ok := c.Get(ctx, userID)
	require.False(t, ok, "cold cache must miss")

	status := &models.StatusResponse{CurrentStep: "signature"}
	c.Set(ctx, userID, status)

	got, ok := c.Get(ctx, userID)
	require.True(t, ok)
	require.Equal(t, "signature", got.CurrentStep)

	c.Invalidate(ctx, userID)
	_, ok = c.Get(ctx, userID)
	require.False(t, ok, "invalidated entry must miss")
}

func TestStatusCacheExpiry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	c := newRedisCache(t, 100*time.Millisecond)
	ctx := context.Background()
	userID := uuid.NewString()

	c.Set(ctx, userID, &models.StatusResponse{CurrentStep: "personal_info"})
	require.Eventually(t, func() bool {
		_, ok := c.Get(ctx, userID)
		return !ok
	}, 2*time.Second, 50*time.Millisecond, "entry must expire with its TTL")
}
