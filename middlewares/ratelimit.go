package middlewares

import (
	"log/slog"
	"net/http"

	"speaksea/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware rejects callers over their per-IP quota. Limiter
// errors let the request through.
func RateLimitMiddleware(limiter ratelimit.Limiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			logger.Warn("rate limiter unavailable", "error", err)
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
