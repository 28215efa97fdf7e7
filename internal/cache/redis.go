package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Backend is an optional persistent layer consulted before a transform and
// populated after one succeeds, so a restarted process does not re-pay
// extraction cost for URLs it has already resolved. The in-process Cache
// remains the source of truth for single-flight and LRU; a Backend only
// warms it.
type Backend interface {
	Get(ctx context.Context, canonicalURL string) (yaml string, ok bool, err error)
	Set(ctx context.Context, canonicalURL, yaml string, ttl time.Duration) error
}

// RedisBackend stores resolved YAML in Redis, keyed under a fixed prefix.
// Selected via CACHE_BACKEND=redis (read by internal/config, attached in
// cmd/harveyagent); grounded on
// goadesign-goa-ai's registry.Service, which holds a *redis.Client behind a
// small domain-shaped interface rather than exposing the client directly.
type RedisBackend struct {
	client *redis.Client
	prefix string
}

// NewRedisBackend wraps an existing *redis.Client. The caller owns the
// client's lifecycle (construction from REDIS_ADDR, Close on shutdown).
func NewRedisBackend(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client, prefix: "harvey:pricing:"}
}

func (r *RedisBackend) Get(ctx context.Context, canonicalURL string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+canonicalURL).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) Set(ctx context.Context, canonicalURL, yaml string, ttl time.Duration) error {
	return r.client.Set(ctx, r.prefix+canonicalURL, yaml, ttl).Err()
}

// WithBackend attaches a persistent Backend to c. Resolve consults it only
// when the in-process entry is empty, and writes through to it after every
// successful transform.
func (c *Cache) WithBackend(b Backend) *Cache {
	c.backend = b
	return c
}
