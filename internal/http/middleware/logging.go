// Package middleware contains shared Gin middleware used by the HTTP layer:
// correlation ids, a PII-redacting access logger, panic recovery, Prometheus
// instrumentation, security headers, per-client rate limiting, and
// Idempotency-Key replay for form submissions.
//
// Recommended order: RequestID, Logger, Recovery. That way panics and
// errors are logged with the correlation id attached.
package middleware

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey      = "requestID"
	requestIDHeader   = "X-Request-ID"
	loggerKey         = "logger"
	maxQueryLogLength = 2048
)

// RequestID reuses an incoming X-Request-ID or generates a UUID, echoes it on
// the response, and stores it in the Gin context.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	v, _ := c.Get(requestIDKey)
	return asString(v)
}

// LoggerOptions configures Logger.
type LoggerOptions struct {
	// MaskHeaders lists extra header names logged as "[REDACTED]".
	MaskHeaders []string
}

// Logger emits one structured access log line per request with query strings
// and header values scrubbed by Redact. It also attaches a request-scoped
// logger both to the Gin context (see LoggerFrom) and to the request's
// context.Context so services can log through zerolog.Ctx.
//
// Level follows the outcome: error for 5xx or recorded gin errors, warn for
// 4xx, info otherwise.
func Logger(opts LoggerOptions) gin.HandlerFunc {
	renderHeaders := headerMasker(opts.MaskHeaders)

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		l := log.With().
			Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("remote_ip", c.ClientIP()).
			Logger()
		c.Set(loggerKey, &l)
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		query := Redact(truncate(c.Request.URL.RawQuery, maxQueryLogLength))
		headers := renderHeaders(c.Request.Header)

		c.Next()

		status := c.Writer.Status()
		var ev *zerolog.Event
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", Redact(c.Errors.String()))
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		default:
			ev = l.Info()
		}
		ev.
			Str("query", query).
			Int("status", status).
			Int64("bytes_in", c.Request.ContentLength).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", headers).
			Msg("http_request")
	}
}

// Recovery turns a panic into a logged stack trace and, if nothing has been
// written yet, a JSON 500 in the standard error envelope.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Bytes("stack", debug.Stack()).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			c.Header(requestIDHeader, GetRequestID(c))
			abortJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger, or a copy of the global
// logger when Logger is not installed.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}

// truncate caps s at max bytes; max <= 0 disables the cap.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
