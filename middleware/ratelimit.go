package middleware

import (
	"math"
	"net/http"
	"strconv"

	"bugtrack/logger"
	"bugtrack/metrics"
	"bugtrack/ratelimit"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimit rejects a client IP with 429 once it exceeds the limiter's
// budget. scope labels the metric and namespaces the key.
func RateLimit(limiter ratelimit.Limiter, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := limiter.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			// Fail open; a broken limiter must not lock everyone out.
			logger.FromContext(c).Error("rate limiter failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			metrics.RateLimited.WithLabelValues(scope).Inc()
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests, please try again later",
			})
			return
		}

		c.Next()
	}
}
