package limiter

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisLimiterPrefix = "acquisition:ratelimit:"

// RedisLimiter spaces requests across processes sharing one provider
// quota. A SetNX key per provider holds the slot for one interval; callers
// that lose the race sleep out the remaining TTL with jitter and retry.
type RedisLimiter struct {
	client *redis.Client

	mu        sync.Mutex
	intervals map[string]time.Duration
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{
		client:    rdb,
		intervals: make(map[string]time.Duration),
	}
}

func (rl *RedisLimiter) SetInterval(provider string, interval time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if interval <= 0 {
		delete(rl.intervals, provider)
		return
	}
	rl.intervals[provider] = interval
}

func (rl *RedisLimiter) Acquire(ctx context.Context, provider string) error {
	rl.mu.Lock()
	delay := rl.intervals[provider]
	rl.mu.Unlock()

	if delay <= 0 {
		return nil
	}
	if delay < 100*time.Millisecond {
		delay = 100 * time.Millisecond
	}

	key := redisLimiterPrefix + provider
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			success, err := rl.client.SetNX(ctx, key, 1, delay).Result()
			if err != nil {
				return err
			}
			if success {
				return nil
			}

			ttl, err := rl.client.TTL(ctx, key).Result()
			if err != nil {
				return err
			}

			if ttl <= 0 {
				time.Sleep(1 * time.Second)
			} else {
				jitter := time.Duration(rand.Int63n(int64(ttl/10) + 1))
				time.Sleep(ttl + jitter)
			}
		}
	}
}
