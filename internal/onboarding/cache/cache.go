package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"heirloom/internal/onboarding/models"
	"heirloom/internal/platform/redis"
)

// StatusCache memoizes the orchestrator's status view in Redis. Failures
// degrade to a miss; the cache is never authoritative.
type StatusCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New returns nil when the client is nil (Redis not configured), so callers
// can wire the cache unconditionally.
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatusCache {
	if client == nil {
		return nil
	}
	return &StatusCache{client: client, ttl: ttl, logger: logger}
}

func key(userID string) string {
	return "onboarding:status:" + userID
}

// Get returns the cached view and whether it was present.
func (c *StatusCache) Get(ctx context.Context, userID string) (*models.StatusResponse, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, key(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var status models.StatusResponse
	if err := json.Unmarshal(raw, &status); err != nil {
		c.logger.WarnContext(ctx, "corrupt status cache entry", "user_id", userID, "error", err)
		return nil, false
	}
	return &status, true
}

// Set stores the view with the configured TTL.
func (c *StatusCache) Set(ctx context.Context, userID string, status *models.StatusResponse) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(status)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(userID), raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to cache onboarding status", "user_id", userID, "error", err)
	}
}

// Invalidate drops the entry after a step save.
func (c *StatusCache) Invalidate(ctx context.Context, userID string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, key(userID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate onboarding status", "user_id", userID, "error", err)
	}
}
