package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hupe1980/kmeanslab"
	"github.com/hupe1980/kmeanslab/internal/resource"
)

const requestIDKey = "request_id"

// requestID propagates a client-supplied X-Request-ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog(logger *kmeanslab.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := logger.WithRequestID(c.GetString(requestIDKey))
		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if status >= http.StatusInternalServerError {
			l.ErrorContext(c.Request.Context(), "request failed", attrs...)
			return
		}
		l.DebugContext(c.Request.Context(), "request", attrs...)
	}
}

func rateLimit(limits *resource.Controller) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limits.AllowRequest() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
