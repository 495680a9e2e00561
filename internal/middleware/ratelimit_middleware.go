// internal/middleware/ratelimit_middleware.go
package middleware

import (
	"strconv"
	"time"

	"signroom-service/internal/pkg/ratelimit"
	"signroom-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CompletionRateLimit caps signature-completion attempts per client IP. A
// limiter outage fails open: completion itself is protected by the engine's
// conditional transition, the limiter only dampens abuse.
func CompletionRateLimit(limiter *ratelimit.Limiter, maxAttempts int64, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.CheckCompletionAttempt(c.Request.Context(), c.ClientIP(), maxAttempts, window)
		if err != nil {
			logger.Warn("rate limiter unavailable, allowing request",
				zap.String("client_ip", c.ClientIP()),
				zap.Error(err),
			)
			c.Next()
			return
		}
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if !allowed {
			logger.Info("completion attempt rate limited",
				zap.String("client_ip", c.ClientIP()),
			)
			response.TooManyRequests(c, "too many completion attempts, try again later")
			return
		}
		c.Next()
	}
}
