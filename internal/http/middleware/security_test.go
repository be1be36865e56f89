package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveSecurity(opt SecurityOptions, pre gin.HandlerFunc, req *http.Request) http.Header {
	r := gin.New()
	if pre != nil {
		r.Use(pre)
	}
	r.Use(SecurityHeaders(opt))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := serveSecurity(SecurityOptions{}, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))

	if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %#v", h)
	}
	for _, k := range []string{"Permissions-Policy", "Cache-Control", "Strict-Transport-Security", "Access-Control-Expose-Headers"} {
		if h.Get(k) != "" {
			t.Fatalf("unexpected %s: %q", k, h.Get(k))
		}
	}
}

func TestSecurityHeaders_ExposeRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		existing, want string
	}{
		{"", "X-Request-ID"},
		{"Foo", "Foo, X-Request-ID"},
		{"X-Request-ID, Foo", "X-Request-ID, Foo"},
	}
	for _, tc := range cases {
		pre := func(c *gin.Context) {
			c.Header(requestIDHeader, "rid")
			if tc.existing != "" {
				c.Header("Access-Control-Expose-Headers", tc.existing)
			}
			c.Next()
		}
		h := serveSecurity(SecurityOptions{}, pre, httptest.NewRequest(http.MethodGet, "/ok", nil))
		if got := h.Get("Access-Control-Expose-Headers"); got != tc.want {
			t.Fatalf("existing %q: got %q want %q", tc.existing, got, tc.want)
		}
	}
}

func TestSecurityHeaders_PolicyNoStoreAndHSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	opt := SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour, NoStore: true, EnablePolicy: true}

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.TLS = &tls.ConnectionState{}
	h := serveSecurity(opt, nil, req)
	if h.Get("Strict-Transport-Security") != "max-age=3600; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", h.Get("Strict-Transport-Security"))
	}
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("no-store headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}

	plain := serveSecurity(opt, nil, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if plain.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS must not be sent over plain HTTP")
	}

	proxied := httptest.NewRequest(http.MethodGet, "/ok", nil)
	proxied.Header.Set("X-Forwarded-Proto", "HTTPS")
	def := serveSecurity(SecurityOptions{EnableHSTS: true}, nil, proxied)
	if def.Get("Strict-Transport-Security") != "max-age=15552000; includeSubDomains; preload" {
		t.Fatalf("default HSTS = %q", def.Get("Strict-Transport-Security"))
	}
}
