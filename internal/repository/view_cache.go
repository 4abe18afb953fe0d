package repository

import (
	"context"
	"encoding/json"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// viewCache is a JSON-backed Redis cache for immutable read views. A TTL of 0
// stores keys without expiry.
type viewCache[T any] struct {
	client goredis.UniversalClient
	ttl    time.Duration
	logger *zap.Logger
}

func newViewCache[T any](client goredis.UniversalClient, ttl time.Duration, logger *zap.Logger) *viewCache[T] {
	return &viewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get retrieves and unmarshals a value. Any miss or decode error reads as a
// plain miss.
func (c *viewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return nil, false
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, false
	}
	return &v, true
}

// Set stores value under key. A failed cache write is logged, never surfaced.
func (c *viewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}
