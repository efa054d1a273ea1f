package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errs "github.com/matzehuels/chaosgame/pkg/errors"
)

// RedisCache stores entries in Redis so several server instances share
// generated points and artifacts.
type RedisCache struct {
	client    *redis.Client
	namespace string
}

// RedisOptions configure [NewRedisCache].
type RedisOptions struct {
	Addr     string
	Password string
	DB       int

	// Namespace is the key prefix that Clear removes. It should match the
	// prefix of the ScopedKeyer used with this cache.
	Namespace string

	// DialAttempts and DialDelay control the initial ping. Defaults 3 and 200ms.
	DialAttempts int
	DialDelay    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING,
// retrying with backoff. It returns an error wrapping ErrUnavailable when
// the server cannot be reached.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	if opts.DialAttempts <= 0 {
		opts.DialAttempts = 3
	}
	if opts.DialDelay <= 0 {
		opts.DialDelay = 200 * time.Millisecond
	}
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	err := RetryWithBackoff(ctx, opts.DialAttempts, opts.DialDelay, func() error {
		return Retryable(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", ErrUnavailable, opts.Addr, err)
	}
	return NewRedisCacheFromClient(client, opts.Namespace), nil
}

// NewRedisCacheFromClient wraps an existing client.
func NewRedisCacheFromClient(client *redis.Client, namespace string) *RedisCache {
	return &RedisCache{client: client, namespace: namespace}
}

// Get implements Cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// Set implements Cache.
func (c *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete implements Cache.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// Clear deletes every key under the namespace. Without a namespace it
// refuses to touch the database.
func (c *RedisCache) Clear(ctx context.Context) (int, error) {
	if c.namespace == "" {
		return 0, errs.New(errs.ErrCodeUnsupported, "redis cache: refusing to clear without a namespace")
	}
	removed := 0
	iter := c.client.Scan(ctx, 0, c.namespace+"*", 500).Iterator()
	batch := make([]string, 0, 500)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.client.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return removed, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, err
	}
	return removed, flush()
}

// Close implements Cache.
func (c *RedisCache) Close() error { return c.client.Close() }

var (
	_ Cache   = (*RedisCache)(nil)
	_ Clearer = (*RedisCache)(nil)
)
