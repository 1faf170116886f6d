package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// RateLimit throttles requests per client IP using limiterInstance. It's
// wired onto /q/* and /forecast/* per RATE_LIMIT_RPS, since those are the
// endpoints expensive enough (report assembly, binary-search simulation)
// to be worth protecting from a runaway client.
func RateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		logger := GetLoggerFromContext(c)

		limitCtx, err := limiterInstance.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Error("rate limiter backend error", "ip", ip, "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			return
		}

		if limitCtx.Reached {
			logger.Warn("rate limit exceeded", "ip", ip, "limit", limitCtx.Limit, "remaining", limitCtx.Remaining)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, try again later"})
			return
		}

		c.Next()
	}
}
