package middleware

import (
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id in and out of a request.
const RequestIDHeader = "X-Request-Id"

// RequestID tags every request with a stable id and logs the request line
// when it finishes. An incoming id is kept as-is so a client's retries
// correlate across attempts.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set("request_id", rid)
		c.Writer.Header().Set(RequestIDHeader, rid)

		start := time.Now()
		c.Next()

		log.Printf("%s %s status=%d latency=%s rid=%s",
			c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start), rid)
	}
}
