package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserIDHeader identifies the calling user for session tracking.
const UserIDHeader = "X-User-ID"

// RequestObserver receives the outcome of each served request.
type RequestObserver interface {
	Observe(latency time.Duration, failed bool)
}

// UserToucher marks a user as active.
type UserToucher interface {
	Touch(userID string)
}

// RequestLogger logs each request through zerolog.
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		event := logger.Debug()
		if status >= http.StatusInternalServerError {
			event = logger.Warn()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request served")
	}
}

// RequestStats feeds request latency and 5xx outcomes to observer.
func RequestStats(observer RequestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		observer.Observe(time.Since(start), c.Writer.Status() >= http.StatusInternalServerError)
	}
}

// SessionTracking marks the caller named by the X-User-ID header as active.
func SessionTracking(tracker UserToucher) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracker.Touch(c.GetHeader(UserIDHeader))
		c.Next()
	}
}
