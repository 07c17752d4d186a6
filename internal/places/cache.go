package places

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Cache is a short-TTL Redis cache for upstream search responses. A nil
// *Cache is valid and always misses, so an unconfigured Redis degrades to
// pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis at addr. Returns nil when addr is empty.
func NewCache(addr string, ttl time.Duration) *Cache {
	if addr == "" {
		return nil
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		ttl:    ttl,
	}
}

// Key builds the cache key for a normalized query and limit
func Key(query string, limit int) string {
	return fmt.Sprintf("places:%s:%d", strings.ToLower(strings.TrimSpace(query)), limit)
}

// Get returns the cached response for the key, or false on a miss. Redis
// errors count as misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Warn().Err(err).Msg("Places cache read failed")
		}
		return nil, false
	}

	return val, true
}

// Set stores a response under the key. Failures are logged, never surfaced.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Msg("Places cache write failed")
	}
}

// Close releases the Redis connection
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
