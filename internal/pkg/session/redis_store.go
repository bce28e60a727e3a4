// internal/pkg/session/redis_store.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter is a fixed-window request counter shared by every API instance.
type RateLimiter struct {
	client *redis.Client
}

func NewRateLimiter(client *redis.Client) *RateLimiter {
	return &RateLimiter{client: client}
}

// CheckAPIRateLimit counts a request for key and reports whether it fits in the
// window along with the requests left.
func (r *RateLimiter) CheckAPIRateLimit(ctx context.Context, key string, maxRequests int64, window time.Duration) (bool, int64, error) {
	redisKey := fmt.Sprintf("ratelimit:api:%s", key)

	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to increment API rate limit: %w", err)
	}

	count := incr.Val()
	remaining := maxRequests - count
	if remaining < 0 {
		remaining = 0
	}
	return count <= maxRequests, remaining, nil
}

