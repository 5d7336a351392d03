package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRateLimiter_Shared(t *testing.T) {
	_, client := newMiniRedis(t)
	ctx := context.Background()

	t.Run("allows requests within limit", func(t *testing.T) {
		limiter := NewRateLimiter(client, 3, 10*time.Second)
		key := "ratelimit:inbound:5511900000001"

		for i := 0; i < 3; i++ {
			allowed, _ := limiter.Allow(ctx, key)
			assert.True(t, allowed, "request %d should be allowed", i+1)
		}

		allowed, resetAt := limiter.Allow(ctx, key)
		assert.False(t, allowed)
		assert.True(t, resetAt.After(time.Now().Add(-time.Second)))
	})

	t.Run("different keys are independent", func(t *testing.T) {
		limiter := NewRateLimiter(client, 1, 10*time.Second)

		allowed, _ := limiter.Allow(ctx, "ratelimit:inbound:a")
		assert.True(t, allowed)
		allowed, _ = limiter.Allow(ctx, "ratelimit:inbound:a")
		assert.False(t, allowed)

		allowed, _ = limiter.Allow(ctx, "ratelimit:inbound:b")
		assert.True(t, allowed)
	})

	t.Run("window is shared across limiter instances", func(t *testing.T) {
		first := NewRateLimiter(client, 1, 10*time.Second)
		second := NewRateLimiter(client, 1, 10*time.Second)

		allowed, _ := first.Allow(ctx, "ratelimit:inbound:shared")
		assert.True(t, allowed)
		allowed, _ = second.Allow(ctx, "ratelimit:inbound:shared")
		assert.False(t, allowed)
	})
}

func TestRateLimiter_FallsBackToLocalWindow(t *testing.T) {
	mr, client := newMiniRedis(t)
	mr.Close()

	limiter := NewRateLimiter(client, 2, time.Minute)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, resetAt := limiter.Allow(ctx, "k")
	assert.False(t, allowed)
	assert.True(t, resetAt.After(time.Now()))
}

func TestRateLimiter_WithoutClient(t *testing.T) {
	limiter := NewRateLimiter(nil, 1, time.Minute)
	ctx := context.Background()

	allowed, _ := limiter.Allow(ctx, "k")
	assert.True(t, allowed)
	allowed, _ = limiter.Allow(ctx, "k")
	assert.False(t, allowed)
}

func TestRateLimiter_Disabled(t *testing.T) {
	limiter := NewRateLimiter(nil, 0, time.Minute)
	for i := 0; i < 100; i++ {
		allowed, _ := limiter.Allow(context.Background(), "k")
		require.True(t, allowed)
	}
}

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestLocalWindow(t *testing.T) {
	t.Run("slides past old requests", func(t *testing.T) {
		clock := &stepClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		lw := newLocalWindow(time.Minute, clock.Now)

		allowed, _ := lw.check("k", 2)
		assert.True(t, allowed)
		clock.Advance(30 * time.Second)
		allowed, _ = lw.check("k", 2)
		assert.True(t, allowed)

		allowed, resetAt := lw.check("k", 2)
		assert.False(t, allowed)
		assert.Equal(t, time.Date(2024, 1, 1, 12, 1, 0, 0, time.UTC), resetAt)

		clock.Advance(31 * time.Second)
		allowed, _ = lw.check("k", 2)
		assert.True(t, allowed)
	})

	t.Run("evicts idle entries", func(t *testing.T) {
		clock := &stepClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
		lw := newLocalWindow(time.Minute, clock.Now)

		for i := 0; i < 5; i++ {
			lw.check(fmt.Sprintf("k%d", i), 1)
		}
		assert.Equal(t, 5, lw.size())

		clock.Advance(localEntryTTL + time.Second)
		lw.check("fresh", 1)
		assert.Equal(t, 1, lw.size())
	})
}
