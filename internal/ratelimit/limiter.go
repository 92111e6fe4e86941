// Package ratelimit bounds the rate of security-sensitive actions per key
// (inviting actor, client IP). Two backends: in-process token buckets for
// single-instance deployments and Redis fixed windows for multi-instance ones.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter reports whether one more action is allowed for the given key.
// The check is cheap and runs before any hashing or store lookup so a
// limited caller learns nothing from response timing.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Each key has its own bucket + lastSeen for cleanup.
type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryLimiter keeps a token bucket per key in process memory.
type MemoryLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket

	limit rate.Limit
	burst int
	ttl   time.Duration
}

// NewMemoryLimiter allows max actions per rolling window. Idle keys are
// dropped after ttl to keep the map bounded.
func NewMemoryLimiter(max int, window, ttl time.Duration) *MemoryLimiter {
	if max < 1 {
		max = 1
	}
	l := &MemoryLimiter{
		buckets: make(map[string]*bucket),
		limit:   rate.Limit(float64(max) / window.Seconds()),
		burst:   max,
		ttl:     ttl,
	}
	go l.cleanup()
	return l
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return l.get(key).Allow(), nil
}

func (l *MemoryLimiter) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[key]; ok {
		b.lastSeen = time.Now()
		return b.limiter
	}
	lim := rate.NewLimiter(l.limit, l.burst)
	l.buckets[key] = &bucket{limiter: lim, lastSeen: time.Now()}
	return lim
}

func (l *MemoryLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		for key, b := range l.buckets {
			if time.Since(b.lastSeen) > l.ttl {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
