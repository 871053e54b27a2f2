// Package cache provides the optional Redis-backed alias cache used on the
// redirect hot path. Postgres stays authoritative; any cache failure is a
// miss.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const keyPrefix = "alias:"

// RedisCache caches alias -> long URL mappings.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, addr, password string, db int) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Info().Str("addr", addr).Msg("redirect cache connected")
	return &RedisCache{client: client}, nil
}

// Get returns the cached long URL for an alias; the second result reports a
// hit.
func (c *RedisCache) Get(ctx context.Context, alias string) (string, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+alias).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache get %s: %w", alias, err)
	}
	return val, true, nil
}

// Set caches the mapping for ttl.
func (c *RedisCache) Set(ctx context.Context, alias, longURL string, ttl time.Duration) error {
	if err := c.client.Set(ctx, keyPrefix+alias, longURL, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", alias, err)
	}
	return nil
}

// Delete drops the mapping for an alias.
func (c *RedisCache) Delete(ctx context.Context, alias string) error {
	if err := c.client.Del(ctx, keyPrefix+alias).Err(); err != nil {
		return fmt.Errorf("cache delete %s: %w", alias, err)
	}
	return nil
}

// Close releases the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
