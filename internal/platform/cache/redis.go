package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	// DialTimeout bounds connection establishment; reads and writes are
	// bounded by the per-operation context instead.
	DialTimeout time.Duration
}

// RedisBackend implements Backend on Redis strings with SET EX.
type RedisBackend struct {
	client redis.UniversalClient
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(client redis.UniversalClient) *RedisBackend {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &RedisBackend{client: client}
}

// defaultDialTimeout applies when RedisOptions leaves DialTimeout zero.
const defaultDialTimeout = 2 * time.Second

// NewRedisClient creates a client for opts without touching the network.
// go-redis connects lazily and reconnects on its own, so a client built
// while Redis is down starts serving once Redis comes back.
func NewRedisClient(opts RedisOptions) *redis.Client {
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = defaultDialTimeout
	}

	return redis.NewClient(&redis.Options{
		Addr:                  opts.Addr,
		Password:              opts.Password,
		DB:                    opts.DB,
		DialTimeout:           dialTimeout,
		ContextTimeoutEnabled: true,
	})
}

// PingRedis checks that client can reach its server within timeout.
func PingRedis(ctx context.Context, client redis.UniversalClient, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}
	return nil
}

var _ Backend = (*RedisBackend)(nil)

// Get implements Backend.
func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return value, nil
}

// Set implements Backend.
func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete implements Backend.
func (b *RedisBackend) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := b.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
