package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Redis is a Redis-backed implementation of Cache. Values are stored as
// JSON. Note that the reconciliation contract stays single-process: a
// shared Redis speeds up restarts but provides no cross-process
// coordination.
type Redis[V any] struct {
	client *redis.Client
	prefix string
}

func NewRedis[V any](addr, password string, db int, prefix string) *Redis[V] {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Redis[V]{client: client, prefix: prefix}
}

func (c *Redis[V]) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Redis[V]) Close() error {
	return c.client.Close()
}

func (c *Redis[V]) Get(ctx context.Context, key string) (V, bool, error) {
	var zero V
	val, err := c.client.Get(ctx, c.prefix+key).Result()
	if err == redis.Nil {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, err
	}

	var value V
	if err := json.Unmarshal([]byte(val), &value); err != nil {
		return zero, false, err
	}
	return value, true, nil
}

func (c *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.prefix+key, payload, ttl).Err()
}

func (c *Redis[V]) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, c.prefix+key).Err()
}
