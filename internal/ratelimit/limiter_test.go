package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiter_AllowsUpToMax(t *testing.T) {
	l := NewMemoryLimiter(3, time.Hour, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := l.Allow(ctx, "actor-1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}
	ok, err := l.Allow(ctx, "actor-1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Hour, time.Hour)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "actor-1")
	assert.True(t, ok)
	ok, _ = l.Allow(ctx, "actor-1")
	assert.False(t, ok)

	ok, _ = l.Allow(ctx, "actor-2")
	assert.True(t, ok)
}

func TestMemoryLimiter_RefillsOverTime(t *testing.T) {
	// 10 per second refills fast enough to observe in a test
	l := NewMemoryLimiter(1, 100*time.Millisecond, time.Hour)
	ctx := context.Background()

	ok, _ := l.Allow(ctx, "k")
	require.True(t, ok)
	ok, _ = l.Allow(ctx, "k")
	require.False(t, ok)

	time.Sleep(150 * time.Millisecond)
	ok, _ = l.Allow(ctx, "k")
	assert.True(t, ok)
}
