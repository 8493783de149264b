package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := w.Header().Get("X-Request-ID"); got == "" {
		t.Fatal("expected a generated request id")
	}
}

func TestRequestID_PropagatesIncoming(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("requestID")) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	r.ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") != "rid-123" || w.Body.String() != "rid-123" {
		t.Fatalf("rid not propagated: header=%q body=%q", w.Header().Get("X-Request-ID"), w.Body.String())
	}
}

func TestRecovery_PanicBecomesJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaput") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status %d", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body is not JSON: %s", w.Body.String())
	}
	if body["code"] != "internal_error" || body["request_id"] == "" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestRedactQuery(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"page=2&page_size=10", "page=2&page_size=10"},
		{"token=secret&page=1", "token=[REDACTED]&page=1"},
		{"API_KEY=abc", "API_KEY=[REDACTED]"},
		{"api_secret=s&token=t", "api_secret=[REDACTED]&token=[REDACTED]"},
	}
	for _, tc := range cases {
		if got := redactQuery(tc.in); got != tc.want {
			t.Fatalf("redactQuery(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(SecurityOptions{NoStore: true}))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	h := w.Header()
	if h.Get("X-Content-Type-Options") != "nosniff" ||
		h.Get("X-Frame-Options") != "DENY" ||
		h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("baseline headers missing: %v", h)
	}
	if h.Get("Cache-Control") != "no-store" {
		t.Fatalf("NoStore not applied: %v", h)
	}
	// HSTS must not appear on plain HTTP.
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatal("HSTS emitted without TLS")
	}
}
