package middleware

import (
	"time"

	"bugtrack/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestID tags the request with an id (reusing a client supplied
// X-Request-ID) and stores a child logger carrying it.
func RequestID(base *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(logger.RequestIDKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Request.Header.Set(logger.RequestIDKey, requestID)
		c.Header(logger.RequestIDKey, requestID)
		c.Set(logger.RequestIDCtxKey, requestID)
		c.Set(logger.ContextKey, base.With(zap.String("request_id", requestID)))

		c.Next()
	}
}

// AccessLog writes one line per request once the handler chain returns.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log := logger.FromContext(c)
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		}
		if userID := UserID(c); userID != "" {
			fields = append(fields, zap.String("user_id", userID))
		}

		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		if c.Writer.Status() >= 500 {
			log.Error("HTTP request failed", fields...)
			return
		}
		log.Info("HTTP request completed", fields...)
	}
}
