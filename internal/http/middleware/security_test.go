package middleware

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestSecurityHeaders_Baseline_And_ExposeHeader(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("baseline headers + add expose when X-Request-ID present", func(t *testing.T) {
		r := gin.New()
		// pre-middleware sets the request-id header (like RequestID would)
		r.Use(func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-123")
			c.Next()
		})
		r.Use(SecurityHeaders(SecurityOptions{}))
		r.GET("/ok", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		r.ServeHTTP(w, req)

		h := w.Header()
		if h.Get("X-Content-Type-Options") != "nosniff" ||
			h.Get("X-Frame-Options") != "DENY" ||
			h.Get("Referrer-Policy") != "no-referrer" {
			t.Fatalf("baseline headers missing: %#v", h)
		}
		if h.Get("Permissions-Policy") != "" || h.Get("Cache-Control") != "" {
			t.Fatalf("unexpected optional headers: %#v", h)
		}
		if h.Get("Strict-Transport-Security") != "" {
			t.Fatalf("unexpected HSTS: %#v", h)
		}
		if h.Get("Access-Control-Expose-Headers") != "X-Request-ID" {
			t.Fatalf("expected expose header, got %q", h.Get("Access-Control-Expose-Headers"))
		}
	})

	t.Run("append X-Request-ID to existing expose header", func(t *testing.T) {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Header("X-Request-ID", "rid-abc")
			c.Header("Access-Control-Expose-Headers", "Foo")
			c.Next()
		})
		r.Use(SecurityHeaders(SecurityOptions{}))
		r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		r.ServeHTTP(w, req)

		got := w.Header().Get("Access-Control-Expose-Headers")
		if !strings.Contains(got, "Foo") || !strings.Contains(got, "X-Request-ID") {
			t.Fatalf("expose header not appended: %q", got)
		}
	})
}

func TestSecurityHeaders_OptionalHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(SecurityOptions{NoStore: true, EnablePolicy: true}))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	r.ServeHTTP(w, req)

	h := w.Header()
	if h.Get("Cache-Control") != "no-store" || h.Get("Pragma") != "no-cache" || h.Get("Expires") != "0" {
		t.Fatalf("cache headers missing: %#v", h)
	}
	if h.Get("Permissions-Policy") == "" || h.Get("X-Permitted-Cross-Domain-Policies") != "none" {
		t.Fatalf("policy headers missing: %#v", h)
	}
}

func TestSecurityHeaders_HSTS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRig := func(opt SecurityOptions) *gin.Engine {
		r := gin.New()
		r.Use(SecurityHeaders(opt))
		r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}

	t.Run("not emitted on plain http", func(t *testing.T) {
		r := newRig(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		r.ServeHTTP(w, req)
		if w.Header().Get("Strict-Transport-Security") != "" {
			t.Fatalf("HSTS on http request")
		}
	})

	t.Run("emitted for TLS request", func(t *testing.T) {
		r := newRig(SecurityOptions{EnableHSTS: true, HSTSMaxAge: time.Hour})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "https://example.com/ok", nil)
		req.TLS = &tls.ConnectionState{}
		r.ServeHTTP(w, req)
		want := "max-age=" + strconv.Itoa(3600)
		if got := w.Header().Get("Strict-Transport-Security"); !strings.HasPrefix(got, want) {
			t.Fatalf("HSTS = %q, want prefix %q", got, want)
		}
	})

	t.Run("emitted behind proxy via X-Forwarded-Proto", func(t *testing.T) {
		r := newRig(SecurityOptions{EnableHSTS: true}) // zero max-age falls back to 180d
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ok", nil)
		req.Header.Set("X-Forwarded-Proto", "HTTPS")
		r.ServeHTTP(w, req)
		got := w.Header().Get("Strict-Transport-Security")
		want := "max-age=" + strconv.Itoa(int((180*24*time.Hour).Seconds()))
		if !strings.HasPrefix(got, want) {
			t.Fatalf("HSTS = %q, want prefix %q", got, want)
		}
		if !strings.Contains(got, "includeSubDomains") || !strings.Contains(got, "preload") {
			t.Fatalf("HSTS directives missing: %q", got)
		}
	})
}
