package geocode

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis. Cache errors fail open: a Redis
// outage degrades to uncached geocoding, never to a failed search.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a Redis-backed geocode cache.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached value for key, or ("", false) on miss or error.
func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	value, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("geocode cache read failed", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

// Set stores value under key with the given TTL, logging but otherwise
// ignoring failures.
func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Warn("geocode cache write failed", "key", key, "error", err)
	}
}

// InMemoryCache is a Cache for tests and single-process deployments.
type InMemoryCache struct {
	mu      sync.RWMutex
	entries map[string]inMemoryEntry
}

type inMemoryEntry struct {
	value     string
	expiresAt time.Time
}

// NewInMemoryCache creates an empty in-memory cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]inMemoryEntry)}
}

// Get returns the cached value for key, honoring expiry.
func (c *InMemoryCache) Get(_ context.Context, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.value, true
}

// Set stores value under key with the given TTL.
func (c *InMemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = inMemoryEntry{value: value, expiresAt: time.Now().Add(ttl)}
}
