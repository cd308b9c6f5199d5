package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/flowtrade/portal/internal/ratelimit"
)

// RateLimitConfig configures RateLimitMiddleware.
type RateLimitConfig struct {
	Window time.Duration
	Limit  int
	// Now defaults to time.Now.
	Now func() time.Time
}

// RateLimitMiddleware enforces a fixed-window request budget per client IP.
//
// Every response carries X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// (unix seconds). A rejected request gets 429 Too Many Requests with a Retry-After header.
// If the limiter itself fails the request is let through and the failure is logged, so a
// Redis outage degrades to no rate limiting instead of a portal outage.
func RateLimitMiddleware(limiter ratelimit.Limiter, cfg RateLimitConfig, logger *slog.Logger) gin.HandlerFunc {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return func(c *gin.Context) {
		at := now()
		clientIP := c.ClientIP()

		decision, err := limiter.Admit(c.Request.Context(), clientIP, cfg.Window, cfg.Limit, at)
		if err != nil {
			logger.Error("rate limiter unavailable, admitting request",
				slog.Any("error", err),
				slog.String("path", c.FullPath()))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Admitted {
			retryAfter := int(decision.RetryAfter(at).Seconds())

			logger.Debug("rate limit exceeded",
				slog.String("client_ip", clientIP),
				slog.Int("retry_after", retryAfter))

			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   "rate_limit_exceeded",
				"message": "Too many requests. Please retry after the specified delay.",
			})
			return
		}

		c.Next()
	}
}
