package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisRateLimitStore implements RateLimitStore on Redis so limits hold
// across multiple API instances. It uses a fixed window counter: INCR on a
// per-key counter, with the window TTL set on first increment.
//
// The store fails open: if Redis is unreachable the request is allowed and a
// metric is incremented, because dropping traffic on a cache outage is worse
// than briefly exceeding a limit.
type RedisRateLimitStore struct {
	client  redis.UniversalClient
	metrics *Metrics
}

// NewRedisRateLimitStore creates a Redis-backed rate limit store. A nil
// metrics disables error counting.
func NewRedisRateLimitStore(client redis.UniversalClient, metrics *Metrics) *RedisRateLimitStore {
	return &RedisRateLimitStore{client: client, metrics: metrics}
}

// Allow checks if a request from the given key should be allowed.
func (s *RedisRateLimitStore) Allow(ctx context.Context, key string, config RateLimitConfig) (bool, int) {
	redisKey := "ratelimit:" + key

	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	// NX keeps the original window end when the key already exists.
	pipe.ExpireNX(ctx, redisKey, config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("rate limit redis error, failing open", "key", key, "error", err)
		if s.metrics != nil {
			s.metrics.RateLimitRedisError()
		}
		return true, 0
	}

	if incr.Val() <= int64(config.RequestsPerWindow) {
		return true, 0
	}

	ttl, err := s.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		return false, int(config.WindowDuration.Seconds())
	}
	retryAfter := int(ttl.Round(time.Second).Seconds())
	if retryAfter <= 0 {
		retryAfter = 1
	}
	return false, retryAfter
}
