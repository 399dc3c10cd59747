// Package ratelimiter paces calls to rate-limited upstream APIs.
package ratelimiter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Waiter blocks until the next call is allowed.
type Waiter interface {
	Wait(ctx context.Context) error
}

// RateLimiter allows up to limit calls per interval, spread evenly, with a burst of limit.
type RateLimiter struct {
	limiter *rate.Limiter
	limit   int
}

var _ Waiter = (*RateLimiter)(nil)

// NewRateLimiter creates a RateLimiter. A non-positive limit disables limiting.
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	if limit <= 0 || interval <= 0 {
		return &RateLimiter{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	every := rate.Every(interval / time.Duration(limit))
	return &RateLimiter{limiter: rate.NewLimiter(every, limit), limit: limit}
}

// Wait blocks until a call is allowed or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	if rl.limiter.Tokens() < 1 && rl.limit > 0 {
		slog.Debug("rate limit reached, waiting", "limit", rl.limit)
	}
	if err := rl.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}
