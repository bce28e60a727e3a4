// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"context"
	"strconv"
	"time"

	"tiffin-promotions/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type APIRateLimiter interface {
	CheckAPIRateLimit(ctx context.Context, key string, maxRequests int64, window time.Duration) (bool, int64, error)
}

// RateLimitMiddleware limits each caller to maxRequests per window. Placed after
// Auth() it keys on the token subject, otherwise on the client IP. Limiter
// failures let the request through.
func RateLimitMiddleware(limiter APIRateLimiter, maxRequests int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if subject, ok := GetSubject(c); ok {
			key = "sub:" + subject
		}

		allowed, remaining, err := limiter.CheckAPIRateLimit(c.Request.Context(), key, maxRequests, window)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err), zap.String("key", key))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(maxRequests, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !allowed {
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			logger.Warn("rate limit exceeded",
				zap.String("key", key),
				zap.String("path", c.Request.URL.Path),
				zap.String("correlation_id", GetCorrelationID(c)),
			)
			response.TooManyRequests(c, "too many requests, please try again later")
			return
		}

		c.Next()
	}
}
