package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/mansion-engine/pkg/storage"
)

// keyPrefix keeps game keys apart from anything else sharing the database
const keyPrefix = "mansion:"

// RedisStore implements storage.Store on Redis
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStore implements Store interface
var _ storage.Store = (*RedisStore)(nil)

// NewRedisStore parses a redis:// URL and creates a client. It does not
// wait for the server; see WaitForConnection.
func NewRedisStore(redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return &RedisStore{
		client: redis.NewClient(opt),
		logger: logger,
	}, nil
}

// Client exposes the underlying connection so the event broadcaster can
// share it
func (r *RedisStore) Client() *redis.Client {
	return r.client
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStore) WaitForConnection(ctx context.Context, maxRetries int, retryDelay time.Duration) error {
	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		r.logger.Error("Redis GET failed", "key", key, "error", err)
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, keyPrefix+key, value, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", key, "error", err)
		return fmt.Errorf("redis set failed: %w", err)
	}
	r.logger.Debug("Redis SET successful", "key", key)
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		r.logger.Error("Redis DEL failed", "key", key, "error", err)
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
