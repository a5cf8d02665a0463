package limiter

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func TestMiddlewareRejectsOverBurst(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 2)
	t.Cleanup(l.Stop)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "192.0.2.10:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}

	want := []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("request %d: status %d, want %d (all: %v)", i, codes[i], want[i], codes)
		}
	}

	other := httptest.NewRequest(http.MethodGet, "/ws", nil)
	other.RemoteAddr = "192.0.2.11:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Errorf("a different address should have its own bucket, got %d", rec.Code)
	}
}

func TestMiddlewareLogsRejectionWithRequestLogger(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 1)
	t.Cleanup(l.Stop)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for range 2 {
		req := httptest.NewRequest(http.MethodGet, "/ws", nil)
		req.RemoteAddr = "192.0.2.20:5555"
		req = req.WithContext(logger.WithContext(req.Context()))
		h.ServeHTTP(httptest.NewRecorder(), req)
	}

	out := buf.String()
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("want exactly one log line, got %q", out)
	}
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"path":"/ws"`) {
		t.Errorf("log line %q should be a warning naming the path", out)
	}
}

func TestSweepDropsFullBuckets(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	t.Cleanup(l.Stop)

	l.GetLimiter("a").Allow()
	l.GetLimiter("b")

	removed, remaining := l.sweep(time.Now())
	if removed != 1 || remaining != 1 {
		t.Fatalf("sweep removed %d, remaining %d; want 1 and 1", removed, remaining)
	}

	removed, remaining = l.sweep(time.Now().Add(time.Hour))
	if removed != 1 || remaining != 0 {
		t.Fatalf("later sweep removed %d, remaining %d; want 1 and 0", removed, remaining)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	req.RemoteAddr = "198.51.100.1:9000"
	if got := ClientIP(req); got != "198.51.100.1" {
		t.Errorf("got %q", got)
	}

	req.RemoteAddr = "198.51.100.2"
	if got := ClientIP(req); got != "198.51.100.2" {
		t.Errorf("bare address: got %q", got)
	}

	req.RemoteAddr = ""
	if got := ClientIP(req); got != "unknown_ip" {
		t.Errorf("empty address: got %q", got)
	}
}
