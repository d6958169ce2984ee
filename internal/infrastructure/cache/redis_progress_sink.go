package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appsync "github.com/pancake-sync/backend/internal/application/sync"
)

// Default key layout and lock lifetime of the progress sink
const (
	defaultKeyPrefix = "sync:"
	progressTTL      = 24 * time.Hour

	// lockTTL bounds how long a crashed process can hold a family lock
	lockTTL = 6 * time.Hour
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisProgressSink publishes live run progress and holds the per-family
// run locks in Redis. This is suitable for distributed deployments where
// multiple instances must not run the same family concurrently.
type RedisProgressSink struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisProgressSink creates a new Redis-backed progress sink
func NewRedisProgressSink(cfg RedisConfig) (*RedisProgressSink, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisProgressSink{
		client:    client,
		keyPrefix: defaultKeyPrefix,
	}, nil
}

// NewRedisProgressSinkWithClient creates a sink with an existing Redis
// client. This is useful for testing or when sharing a client across
// components.
func NewRedisProgressSinkWithClient(client *redis.Client, keyPrefix string) *RedisProgressSink {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisProgressSink{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// AcquireRunLock takes the per-family run lock. Uses SETNX so acquisition
// is atomic across instances; ok is false when another run holds it.
func (s *RedisProgressSink) AcquireRunLock(ctx context.Context, family string) (bool, error) {
	key := s.keyPrefix + "lock:" + family

	ok, err := s.client.SetNX(ctx, key, "1", lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return ok, nil
}

// ReleaseRunLock releases the per-family run lock
func (s *RedisProgressSink) ReleaseRunLock(ctx context.Context, family string) error {
	key := s.keyPrefix + "lock:" + family

	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release run lock: %w", err)
	}
	return nil
}

// PublishProgress publishes the current counters of a run so dashboards
// can watch an in-flight sync without hitting the primary store
func (s *RedisProgressSink) PublishProgress(ctx context.Context, family string, created, updated, failed, errors int) error {
	key := s.keyPrefix + "progress:" + family

	err := s.client.HSet(ctx, key, map[string]interface{}{
		"created":    created,
		"updated":    updated,
		"failed":     failed,
		"errors":     errors,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish progress: %w", err)
	}
	return s.client.Expire(ctx, key, progressTTL).Err()
}

// ReadProgress reads the last published counters of a family; missing keys
// return an empty map
func (s *RedisProgressSink) ReadProgress(ctx context.Context, family string) (map[string]string, error) {
	key := s.keyPrefix + "progress:" + family

	values, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read progress: %w", err)
	}
	return values, nil
}

// Close closes the Redis client
func (s *RedisProgressSink) Close() error {
	return s.client.Close()
}

// Ensure RedisProgressSink implements ProgressSink
var _ appsync.ProgressSink = (*RedisProgressSink)(nil)
