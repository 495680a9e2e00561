// internal/pkg/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter caps completion attempts per network origin. It lives in the
// transport layer on purpose: the completion engine itself is idempotent
// (retries observe AlreadyCompleted), which is what makes limiting and
// client retries safe to combine.
type Limiter struct {
	client *redis.Client
}

func NewLimiter(client *redis.Client) *Limiter {
	return &Limiter{client: client}
}

// CheckCompletionAttempt counts an attempt from ip and reports whether it is
// still within maxAttempts per window. The counter key expires with the
// window, so idle origins cost nothing.
func (r *Limiter) CheckCompletionAttempt(ctx context.Context, ip string, maxAttempts int64, window time.Duration) (bool, int64, error) {
	key := fmt.Sprintf("ratelimit:complete:%s", ip)

	count, err := r.client.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("failed to increment completion attempt: %w", err)
	}

	// Set expiration on first attempt
	if count == 1 {
		r.client.Expire(ctx, key, window)
	}

	remaining := maxAttempts - count
	if remaining < 0 {
		remaining = 0
	}

	return count <= maxAttempts, remaining, nil
}

// ResetCompletionAttempts clears the counter for an origin.
func (r *Limiter) ResetCompletionAttempts(ctx context.Context, ip string) error {
	key := fmt.Sprintf("ratelimit:complete:%s", ip)
	return r.client.Del(ctx, key).Err()
}
