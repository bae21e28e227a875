// Package cache provides the optional Redis-backed stats cache. The dashboard
// header polls stats aggressively; a short TTL keeps that cheap without the
// staleness ever being user-visible.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"consentdesk/internal/consent"
	platformredis "consentdesk/internal/platform/redis"
)

const statsKey = "consentdesk:stats"

type RedisStatsCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisStatsCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *RedisStatsCache {
	return &RedisStatsCache{client: client, ttl: ttl, logger: logger}
}

func (c *RedisStatsCache) GetStats(ctx context.Context) (consent.Stats, bool) {
	raw, err := c.client.Get(ctx, statsKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "stats cache read failed", "error", err.Error())
		}
		return consent.Stats{}, false
	}
	var stats consent.Stats
	if err := json.Unmarshal([]byte(raw), &stats); err != nil {
		return consent.Stats{}, false
	}
	return stats, true
}

func (c *RedisStatsCache) SetStats(ctx context.Context, stats consent.Stats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache write failed", "error", err.Error())
	}
}
