// internal/middleware/correlation.go
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CorrelationIDHeader = "X-Correlation-ID"
	correlationIDKey    = "correlation_id"
)

type contextKey string

const correlationIDContextKey contextKey = "correlation_id"

// CorrelationIDMiddleware reuses the caller's X-Correlation-ID or mints a new one,
// echoes it on the response and stores it on both the gin and request contexts.
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(CorrelationIDHeader)
		if correlationID == "" {
			correlationID = uuid.New().String()
		}

		c.Set(correlationIDKey, correlationID)
		c.Header(CorrelationIDHeader, correlationID)
		c.Request = c.Request.WithContext(WithCorrelationID(c.Request.Context(), correlationID))

		c.Next()
	}
}

// GetCorrelationID retrieves the correlation ID from the Gin context
func GetCorrelationID(c *gin.Context) string {
	return c.GetString(correlationIDKey)
}

func WithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDContextKey, correlationID)
}

func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDContextKey).(string)
	return id
}

// LoggerFromContext tags logger with the request's correlation id, if any.
func LoggerFromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := CorrelationIDFromContext(ctx); id != "" {
		return logger.With(zap.String("correlation_id", id))
	}
	return logger
}
