package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisLimiter counts actions in a fixed window shared across instances.
// INCR + EXPIRE never undercounts: a lost EXPIRE only makes the window
// stricter, never looser.
type RedisLimiter struct {
	Rdb    *redis.Client
	Prefix string
	Max    int
	Window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{Rdb: rdb, Prefix: prefix, Max: max, Window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.Prefix + key
	n, err := l.Rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, err
	}
	if n == 1 {
		// First hit in this window owns the expiry.
		if err := l.Rdb.Expire(ctx, k, l.Window).Err(); err != nil {
			return false, err
		}
	}
	return n <= int64(l.Max), nil
}
