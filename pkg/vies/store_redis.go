package vies

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares answers between instances through Redis.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore stores answers under prefix+key.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) (bool, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("redis get: %w", err)
	}

	switch val {
	case "1":
		return true, true, nil
	case "0":
		return false, true, nil
	default:
		return false, false, fmt.Errorf("redis get: unexpected cached value %q", val)
	}
}

func (s *RedisStore) Set(ctx context.Context, key string, valid bool, ttl time.Duration) error {
	val := "0"
	if valid {
		val = "1"
	}
	if err := s.client.Set(ctx, s.prefix+key, val, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
