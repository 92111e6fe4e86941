package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedisLimiter(t *testing.T, max int, window time.Duration) (*RedisLimiter, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisLimiter(rdb, "rl:", max, window), mr
}

func TestRedisLimiter_FixedWindow(t *testing.T) {
	l, _ := setupRedisLimiter(t, 2, time.Minute)
	ctx := context.Background()

	ok, err := l.Allow(ctx, "invite:create:actor-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "invite:create:actor-1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "invite:create:actor-1")
	assert.False(t, ok)

	// other keys are untouched
	ok, _ = l.Allow(ctx, "invite:create:actor-2")
	assert.True(t, ok)
}

func TestRedisLimiter_WindowExpiry(t *testing.T) {
	l, mr := setupRedisLimiter(t, 1, time.Minute)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	mr.FastForward(time.Minute + time.Second)

	ok, err := l.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiter_BackendDownSurfacesError(t *testing.T) {
	l, mr := setupRedisLimiter(t, 1, time.Minute)
	mr.Close()

	_, err := l.Allow(context.Background(), "k")
	assert.Error(t, err)
}
