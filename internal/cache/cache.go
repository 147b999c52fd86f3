// Package cache is a Redis-backed read-through cache for JSON values.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rosterd/rosterd/internal/logger"
)

const keyPrefix = "rosterd:"

type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	log    *logger.Logger
}

// New connects to Redis at addr and verifies the connection.
func New(ctx context.Context, addr string, ttl time.Duration) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	c := NewWithClient(client, ttl)
	c.log.Info(ctx, "connected to redis", map[string]interface{}{"addr": addr})
	return c, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client redis.UniversalClient, ttl time.Duration) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		log:    logger.Default().WithComponent("cache"),
	}
}

func (c *Cache) Close() error {
	return c.client.Close()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// GetJSON decodes the value at key into dst. Misses and errors both report
// false; errors are logged and otherwise treated as misses.
func (c *Cache) GetJSON(ctx context.Context, key string, dst any) bool {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug(ctx, "cache miss", map[string]interface{}{"key": key})
		return false
	}
	if err != nil {
		c.log.Warn(ctx, "cache get failed", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	if err := json.Unmarshal(val, dst); err != nil {
		c.log.Warn(ctx, "cache value undecodable", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	c.log.Debug(ctx, "cache hit", map[string]interface{}{"key": key})
	return true
}

func (c *Cache) SetJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache value: %w", err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		c.log.Warn(ctx, "cache set failed", map[string]interface{}{"key": key, "error": err.Error()})
		return err
	}
	return nil
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := c.client.Del(ctx, full...).Err(); err != nil {
		c.log.Warn(ctx, "cache delete failed", map[string]interface{}{"keys": keys, "error": err.Error()})
		return err
	}
	return nil
}
