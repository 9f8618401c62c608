package service

import (
	"context"
	"fmt"
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
    return {0, limit - count, resetAt}
end

redis.call('ZADD', key, now, now .. '-' .. math.random())
redis.call('EXPIRE', key, window + 10)

return {1, limit - count - 1, now + window}
`)

type RateLimitResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// RateLimiter is a Redis sliding-window limiter shared by all server instances.
type RateLimiter struct {
	client   *redis.Client
	failOpen bool
}

// NewRateLimiter denies requests when Redis is unreachable unless failOpen is set.
func NewRateLimiter(client *redis.Client, failOpen bool) *RateLimiter {
	return &RateLimiter{client: client, failOpen: failOpen}
}

func (rl *RateLimiter) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) RateLimitResult {
	now := time.Now().Unix()
	fullKey := fmt.Sprintf("ratelimit:%s", key)

	result, err := rateLimitScript.Run(
		ctx,
		rl.client,
		[]string{fullKey},
		now,
		int64(window.Seconds()),
		limit,
	).Int64Slice()

	if err == nil && len(result) != 3 {
		err = fmt.Errorf("unexpected rate limit result length %d", len(result))
	}
	if err != nil {
		log.Warn().
			Err(err).
			Str("key", key).
			Bool("failOpen", rl.failOpen).
			Msg("rate limit check failed")
		return RateLimitResult{Allowed: rl.failOpen, Remaining: 0, ResetAt: time.Now().Add(window)}
	}

	remaining := int(result[1])
	if remaining < 0 {
		remaining = 0
	}
	return RateLimitResult{
		Allowed:   result[0] == 1,
		Remaining: remaining,
		ResetAt:   time.Unix(result[2], 0),
	}
}
