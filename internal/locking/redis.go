package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when the lock stays held by another process past the retry budget.
var ErrNotObtained = errors.New("locking: lock not obtained")

const (
	defaultLockTTL   = 10 * time.Second
	defaultKeyPrefix = "meal-roster:lock:"
)

// RedisOptions tunes a RedisLocker.
type RedisOptions struct {
	// TTL bounds how long a crashed holder can block others.
	TTL          time.Duration
	RetryBackoff time.Duration
	MaxRetries   int
	KeyPrefix    string
}

// RedisLocker serializes keys across processes sharing one Redis.
type RedisLocker struct {
	client *redislock.Client
	opts   RedisOptions
	logger *slog.Logger
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// NewRedisLocker wraps client. Zero option fields take defaults.
func NewRedisLocker(client redislock.RedisClient, opts RedisOptions, logger *slog.Logger) *RedisLocker {
	if opts.TTL <= 0 {
		opts.TTL = defaultLockTTL
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 50 * time.Millisecond
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 100
	}
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = defaultKeyPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{client: redislock.New(client), opts: opts, logger: logger}
}

// Lock obtains the Redis lock for key, retrying with a linear backoff.
func (r *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lockKey := r.opts.KeyPrefix + key
	lock, err := r.client.Obtain(ctx, lockKey, r.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.opts.RetryBackoff), r.opts.MaxRetries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", key, err)
	}

	return func() {
		// Released on a fresh context so a cancelled request still frees the key.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := lock.Release(releaseCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			r.logger.Warn("failed to release redis lock", "key", lockKey, "error", err)
		}
	}, nil
}
