package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/finbeat/marketdata/internal/apperrors"
	cacheport "github.com/finbeat/marketdata/internal/core/ports/cache"
	"github.com/redis/go-redis/v9"
)

// RedisStore is the shared ephemeral tier. Keys carry their TTL in Redis
// itself, so expiry needs no janitor here.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore connects to Redis and pings it before handing the store out.
func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

// Close shuts down the Redis client.
func (r *RedisStore) Close() error {
	return r.rdb.Close()
}

// Read returns the payload for key, or apperrors.ErrNotFound on a miss.
func (r *RedisStore) Read(ctx context.Context, key string) ([]byte, error) {
	payload, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return payload, nil
}

// Write stores payload under key for at most ttl.
func (r *RedisStore) Write(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := r.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes one entry; deleting an absent key is not an error.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// DeleteByPrefix removes every entry under prefix using SCAN, never KEYS, so
// large keyspaces don't block the server.
func (r *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	iter := r.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return deleted, fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	return deleted, nil
}

// CountByPrefix reports the number of live entries under prefix.
func (r *RedisStore) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	iter := r.rdb.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	return count, nil
}

// Health checks the Redis connection.
func (r *RedisStore) Health(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

var _ cacheport.Store = (*RedisStore)(nil)
