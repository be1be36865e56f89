package middleware

import (
	"bytes"
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the request header carrying a client-chosen key
// for a form submission. A browser that retries a POST after a network
// blip sends the same key and gets the first response back.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotentReplay marks a response served from the replay store.
const HeaderIdempotentReplay = "Idempotent-Replayed"

const ctxKeyIdemKey = "idem.key"

// ReplayStore persists responses by (scope, key). Lookup returns an error
// for a miss as well as for a failure; both let the request through.
type ReplayStore interface {
	Lookup(ctx context.Context, scope, key string, now time.Time) (status int, body []byte, err error)
	Save(ctx context.Context, scope, key string, status int, body []byte, ttl time.Duration) error
}

// IdempotencyOptions configures Idempotency.
type IdempotencyOptions struct {
	MaxLen  int            // default 200
	Pattern *regexp.Regexp // default ^[A-Za-z0-9._~\-:]+$
	TTL     time.Duration  // default 24h
	MaxBody int            // responses larger than this are not stored; default 64KiB
}

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the validated key for this request, if any.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// Idempotency validates the Idempotency-Key header and, when a store is
// configured, replays the first stored response for the same key on the same
// route from the same client. Fresh responses below 500 are stored after the
// handler runs; 5xx responses are not, so a retry after a storage failure
// gets another attempt.
func Idempotency(opts IdempotencyOptions, rs ReplayStore) gin.HandlerFunc {
	if opts.MaxLen <= 0 {
		opts.MaxLen = 200
	}
	if opts.Pattern == nil {
		opts.Pattern = defaultKeyPattern
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	if opts.MaxBody <= 0 {
		opts.MaxBody = 64 << 10
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > opts.MaxLen || !opts.Pattern.MatchString(key) {
			abortJSON(c, http.StatusBadRequest, "bad_idempotency_key", "invalid Idempotency-Key")
			return
		}
		c.Set(ctxKeyIdemKey, key)
		if rs == nil {
			c.Next()
			return
		}

		scope := c.Request.Method + " " + c.FullPath() + "|" + c.ClientIP()
		ctx := c.Request.Context()

		if status, body, err := rs.Lookup(ctx, scope, key, time.Now().UTC()); err == nil {
			c.Header(HeaderIdempotentReplay, "true")
			c.Data(status, "application/json; charset=utf-8", body)
			c.Abort()
			return
		}

		cw := &captureWriter{ResponseWriter: c.Writer, limit: opts.MaxBody}
		c.Writer = cw
		c.Next()
		c.Writer = cw.ResponseWriter

		status := cw.Status()
		if status >= 500 || status == http.StatusTooManyRequests || cw.overflow {
			return
		}
		if err := rs.Save(context.WithoutCancel(ctx), scope, key, status, cw.buf.Bytes(), opts.TTL); err != nil {
			LoggerFrom(c).Debug().Err(err).Msg("idempotency save skipped")
		}
	}
}

// captureWriter tees the response body into buf up to limit bytes.
type captureWriter struct {
	gin.ResponseWriter
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *captureWriter) capture(n int, write func()) {
	if w.overflow {
		return
	}
	if w.buf.Len()+n > w.limit {
		w.overflow = true
		w.buf.Reset()
		return
	}
	write()
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.capture(len(b), func() { w.buf.Write(b) })
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.capture(len(s), func() { w.buf.WriteString(s) })
	return w.ResponseWriter.WriteString(s)
}
