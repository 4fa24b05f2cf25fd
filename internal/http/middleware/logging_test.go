package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs redirects the global logger for the duration of a test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func lastLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &m); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	return m
}

func TestRequestID_GeneratesAndPropagates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected generated request id")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc" {
		t.Fatalf("expected propagated id, got %q", got)
	}
}

func TestIdentity_HeaderFallbackAndUpstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var seen string
	r := gin.New()
	r.Use(Identity("anon"))
	r.GET("/", func(c *gin.Context) { seen = UserID(c) })

	cases := map[string]string{"": "anon", "  u-7 ": "u-7", strings.Repeat("x", 80): strings.Repeat("x", 64)}
	for hdr, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if hdr != "" {
			req.Header.Set(HeaderUserID, hdr)
		}
		r.ServeHTTP(httptest.NewRecorder(), req)
		if seen != want {
			t.Errorf("header %q: got %q, want %q", hdr, seen, want)
		}
	}

	up := gin.New()
	up.Use(func(c *gin.Context) { c.Set(UserIDKey, "from-auth"); c.Next() }, Identity("anon"))
	up.GET("/", func(c *gin.Context) { seen = UserID(c) })
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderUserID, "spoofed")
	up.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "from-auth" {
		t.Fatalf("upstream identity must win, got %q", seen)
	}
}

func TestLogger_RedactsAndLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogs(t)

	r := gin.New()
	r.Use(RequestID(), Identity(""), Logger(LogOptions{MaskHeaders: []string{"X-API-Key"}, LogHeaders: true}))
	r.GET("/vote", func(c *gin.Context) {
		if log.Ctx(c.Request.Context()).GetLevel() == zerolog.Disabled {
			t.Errorf("request context should carry the scoped logger")
		}
		c.Status(http.StatusBadRequest)
	})

	req := httptest.NewRequest(http.MethodGet, "/vote?email=jane@example.com&chatId=123e4567-e89b-12d3-a456-426614174000", nil)
	req.Header.Set("Authorization", "Bearer secret")
	req.Header.Set("X-API-Key", "k")
	r.ServeHTTP(httptest.NewRecorder(), req)

	m := lastLine(t, buf)
	if m["level"] != "warn" || m["message"] != "http_request" {
		t.Fatalf("unexpected level/message: %v", m)
	}
	q, _ := m["query"].(string)
	if strings.Contains(q, "jane@example.com") || strings.Contains(q, "123e4567") {
		t.Fatalf("query not redacted: %q", q)
	}
	hdrs, _ := m["headers"].(map[string]any)
	if hdrs["Authorization"] != "[REDACTED]" || hdrs["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("headers not masked: %v", hdrs)
	}
	if m["path"] != "/vote" || m["request_id"] == "" {
		t.Fatalf("missing request fields: %v", m)
	}
}

func TestRecovery_ReturnsJSON500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	captureLogs(t)

	r := gin.New()
	r.Use(RequestID(), Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var body map[string]string
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body["code"] != "internal_error" || body["request_id"] == "" {
		t.Fatalf("unexpected body: %v", body)
	}
}

func TestLoggerFrom_FallbackNeverNil(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if LoggerFrom(c) == nil {
		t.Fatalf("expected fallback logger")
	}
}

func TestTruncate(t *testing.T) {
	if truncate("abc", 0) != "abc" || truncate("abc", 5) != "abc" || truncate("abcdef", 3) != "abc…" {
		t.Fatalf("truncate mismatch")
	}
}
