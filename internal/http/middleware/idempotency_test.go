package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

type memReplay struct {
	mu      sync.Mutex
	entries map[string]struct {
		status int
		body   []byte
	}
	saves   int
	lookErr error
}

func newMemReplay() *memReplay {
	return &memReplay{entries: map[string]struct {
		status int
		body   []byte
	}{}}
}

func (m *memReplay) Lookup(_ context.Context, scope, key string, _ time.Time) (int, []byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookErr != nil {
		return 0, nil, m.lookErr
	}
	e, ok := m.entries[scope+"#"+key]
	if !ok {
		return 0, nil, errors.New("miss")
	}
	return e.status, e.body, nil
}

func (m *memReplay) Save(_ context.Context, scope, key string, status int, body []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.entries[scope+"#"+key] = struct {
		status int
		body   []byte
	}{status, append([]byte(nil), body...)}
	return nil
}

func idemRouter(rs ReplayStore, opts IdempotencyOptions, handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/newsletter", Idempotency(opts, rs), handler)
	return r
}

func post(r http.Handler, key, ip string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/newsletter", strings.NewReader(`{}`))
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	req.RemoteAddr = ip + ":1"
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeader_Passthrough(t *testing.T) {
	rs := newMemReplay()
	calls := 0
	r := idemRouter(rs, IdempotencyOptions{}, func(c *gin.Context) {
		calls++
		if _, ok := GetIdempotencyKey(c); ok {
			t.Fatalf("key should be absent")
		}
		c.JSON(http.StatusOK, gin.H{"n": calls})
	})
	post(r, "", "1.1.1.1")
	post(r, "", "1.1.1.1")
	if calls != 2 || rs.saves != 0 {
		t.Fatalf("calls=%d saves=%d", calls, rs.saves)
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	r := idemRouter(newMemReplay(), IdempotencyOptions{MaxLen: 5}, func(c *gin.Context) { c.Status(http.StatusOK) })
	for _, key := range []string{"toolongkey", "bad key"} {
		w := post(r, key, "1.1.1.1")
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "bad_idempotency_key") {
			t.Fatalf("key %q: got %d %s", key, w.Code, w.Body.String())
		}
	}
}

func TestIdempotency_ReplaysFirstResponse(t *testing.T) {
	rs := newMemReplay()
	calls := 0
	r := idemRouter(rs, IdempotencyOptions{}, func(c *gin.Context) {
		calls++
		if k, ok := GetIdempotencyKey(c); !ok || k != "abc-1" {
			t.Fatalf("key not stashed: %q", k)
		}
		c.JSON(http.StatusConflict, gin.H{"success": false, "n": calls})
	})

	first := post(r, "abc-1", "1.1.1.1")
	second := post(r, "abc-1", "1.1.1.1")
	if calls != 1 {
		t.Fatalf("handler ran %d times", calls)
	}
	if second.Code != first.Code || second.Body.String() != first.Body.String() {
		t.Fatalf("replay mismatch: %d %q vs %d %q", second.Code, second.Body.String(), first.Code, first.Body.String())
	}
	if second.Header().Get(HeaderIdempotentReplay) != "true" || first.Header().Get(HeaderIdempotentReplay) != "" {
		t.Fatalf("replay header mismatch")
	}

	if post(r, "abc-1", "2.2.2.2"); calls != 2 {
		t.Fatalf("another client with the same key should not replay")
	}
}

func TestIdempotency_DoesNotStoreServerErrorsOrOversize(t *testing.T) {
	rs := newMemReplay()
	r := idemRouter(rs, IdempotencyOptions{MaxBody: 8}, func(c *gin.Context) {
		if c.GetHeader("X-Fail") != "" {
			c.JSON(http.StatusInternalServerError, gin.H{"e": 1})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "this body is longer than eight bytes"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/newsletter", nil)
	req.Header.Set(HeaderIdempotencyKey, "k1")
	req.Header.Set("X-Fail", "1")
	r.ServeHTTP(w, req)

	post(r, "k2", "1.1.1.1")
	if rs.saves != 0 {
		t.Fatalf("expected no saves, got %d", rs.saves)
	}
}

func TestIdempotency_NilStoreAndLookupErrorPassThrough(t *testing.T) {
	calls := 0
	h := func(c *gin.Context) { calls++; c.Status(http.StatusOK) }

	post(idemRouter(nil, IdempotencyOptions{}, h), "k", "1.1.1.1")
	rs := newMemReplay()
	rs.lookErr = errors.New("redis down")
	post(idemRouter(rs, IdempotencyOptions{}, h), "k", "1.1.1.1")
	if calls != 2 {
		t.Fatalf("handler should run on nil store and lookup error, calls=%d", calls)
	}
}
