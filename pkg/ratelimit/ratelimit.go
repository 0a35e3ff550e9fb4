// Package ratelimit throttles public endpoints per client with a Redis-backed GCRA limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
)

// RateLimiter decides whether a request identified by key may proceed.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// Limit Rate requests per Period, absorbing bursts up to Burst. A zero Rate is unlimited.
type Limit struct {
	Rate   int
	Period time.Duration
	Burst  int
}

// PerMinute is rate requests per minute with the given burst (defaults to rate).
func PerMinute(rate, burst int) Limit {
	if burst <= 0 {
		burst = rate
	}
	return Limit{Rate: rate, Period: time.Minute, Burst: burst}
}

func (l Limit) Unlimited() bool {
	return l.Rate <= 0
}

// Key scopes a client identifier to one throttled endpoint, e.g. ratelimit:submit:10.0.0.7.
func Key(scope, client string) string {
	return "ratelimit:" + scope + ":" + client
}

// Result outcome of one check
type Result struct {
	Allowed    bool
	Remaining  int
	ResetAfter time.Duration
	RetryAfter time.Duration
}

// RetryAfterSeconds RetryAfter rounded up to whole seconds for the Retry-After header.
func (r *Result) RetryAfterSeconds() int64 {
	if r.RetryAfter <= 0 {
		return 0
	}
	return int64((r.RetryAfter + time.Second - 1) / time.Second)
}

// RedisRateLimiter GCRA limiter backed by redis_rate
type RedisRateLimiter struct {
	limiter *redis_rate.Limiter
}

func NewRedisRateLimiter(rdb *redis.Client) *RedisRateLimiter {
	return &RedisRateLimiter{limiter: redis_rate.NewLimiter(rdb)}
}

func (r *RedisRateLimiter) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	if limit.Unlimited() {
		return &Result{Allowed: true, Remaining: -1}, nil
	}
	res, err := r.limiter.Allow(ctx, key, redis_rate.Limit{
		Rate:   limit.Rate,
		Period: limit.Period,
		Burst:  limit.Burst,
	})
	if err != nil {
		return nil, fmt.Errorf("check rate limit for %s: %w", key, err)
	}
	return &Result{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		ResetAfter: res.ResetAfter,
		RetryAfter: res.RetryAfter,
	}, nil
}
