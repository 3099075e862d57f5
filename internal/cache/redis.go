package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "acquisition:cache:"

// RedisStore backs the cache with Redis so multiple harvester processes
// share one pool of cached responses. Expiry uses native Redis TTLs.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{client: rdb}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}
	return e.Payload, true, nil
}

func (s *RedisStore) Set(ctx context.Context, e Entry) error {
	if e.CachedAt.IsZero() {
		e.CachedAt = time.Now()
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", e.Key, err)
	}

	ttl := e.TTL
	if ttl < 0 {
		ttl = 0 // no expiry
	}
	if err := s.client.Set(ctx, redisKeyPrefix+e.Key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", e.Key, err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, provider string) (int, error) {
	match := redisKeyPrefix + "*"
	if provider != "" {
		match = redisKeyPrefix + provider + ":*"
	}

	removed := 0
	iter := s.client.Scan(ctx, 0, match, 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return removed, fmt.Errorf("redis del: %w", err)
		}
		removed++
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("redis scan: %w", err)
	}
	return removed, nil
}
