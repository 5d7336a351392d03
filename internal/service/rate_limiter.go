package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitScript is a Lua script for sliding window rate limiting
var rateLimitScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

local windowStart = now - window

redis.call('ZREMRANGEBYSCORE', key, '-inf', windowStart)

local count = redis.call('ZCARD', key)

if count >= limit then
    local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
    local resetAt = 0
    if #oldest >= 2 then
        resetAt = tonumber(oldest[2]) + window
    else
        resetAt = now + window
    end
    return {0, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

local resetAt = now + window
return {1, resetAt}
`)

// RateLimiter counts requests per key over a sliding window. With a Redis
// client the window is shared across instances; without one, or while Redis
// is failing, a process-local window is used instead.
type RateLimiter struct {
	client *redis.Client
	local  *localWindow
	limit  int
	window time.Duration
}

// NewRateLimiter creates a limiter allowing limit requests per window. A
// non-positive limit disables limiting. client may be nil.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		local:  newLocalWindow(window, time.Now),
		limit:  limit,
		window: window,
	}
}

// Allow records one request for key and reports whether it is within the limit.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (allowed bool, resetAt time.Time) {
	if rl.limit <= 0 {
		return true, time.Time{}
	}

	if rl.client == nil {
		return rl.local.check(key, rl.limit)
	}

	allowed, resetAt, err := rl.checkShared(ctx, key)
	if err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Msg("shared rate limit check failed, using local window")
		return rl.local.check(key, rl.limit)
	}
	return allowed, resetAt
}

func (rl *RateLimiter) checkShared(ctx context.Context, key string) (bool, time.Time, error) {
	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{key},
		time.Now().Unix(),
		int64(rl.window.Seconds()),
		rl.limit,
	).Int64Slice()
	if err != nil {
		return false, time.Time{}, err
	}

	if len(result) != 2 {
		log.Warn().Str("key", key).Int("len", len(result)).Msg("unexpected rate limit result")
		return true, time.Now().Add(rl.window), nil
	}

	return result[0] == 1, time.Unix(result[1], 0), nil
}
