package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jaimani/ai-travel-demo/internal/config"
)

func newTestLimiter(rps float64, burst int) *RateLimiter {
	return NewRateLimiter(config.Rate{RequestsPerSecond: rps, Burst: burst})
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func hit(h http.Handler, remoteAddr, email string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	req.RemoteAddr = remoteAddr
	if email != "" {
		req.Header.Set(HeaderUserEmail, email)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterAllowsBurst(t *testing.T) {
	h := newTestLimiter(1, 10).Handler(okHandler())

	for i := range 10 {
		if rec := hit(h, "192.168.1.1:1234", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimiterRejectsOverLimit(t *testing.T) {
	h := newTestLimiter(1, 3).Handler(okHandler())

	for range 3 {
		hit(h, "192.168.1.1:1234", "")
	}
	rec := hit(h, "192.168.1.1:1234", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Errorf("Retry-After = %q, want 1", rec.Header().Get("Retry-After"))
	}
	if rec.Body.String() != `{"detail":"rate limit exceeded"}` {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestRateLimiterKeysByIdentity(t *testing.T) {
	h := Identity(newTestLimiter(1, 1).Handler(okHandler()))

	if rec := hit(h, "10.0.0.1:1", "a@example.com"); rec.Code != http.StatusOK {
		t.Fatalf("first request: %d", rec.Code)
	}
	// Same user from another address shares the bucket.
	if rec := hit(h, "10.0.0.2:1", "a@example.com"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("same identity: expected 429, got %d", rec.Code)
	}
	// Another user on the first address has its own bucket.
	if rec := hit(h, "10.0.0.1:1", "b@example.com"); rec.Code != http.StatusOK {
		t.Errorf("other identity: expected 200, got %d", rec.Code)
	}
	// Anonymous callers are keyed by IP.
	if rec := hit(h, "10.0.0.1:1", ""); rec.Code != http.StatusOK {
		t.Errorf("anonymous: expected 200, got %d", rec.Code)
	}
}

func TestRateLimiterRefills(t *testing.T) {
	rl := newTestLimiter(2, 1)
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if _, _, ok := rl.allow("k"); !ok {
		t.Fatal("first request rejected")
	}
	if _, wait, ok := rl.allow("k"); ok || wait <= 0 {
		t.Fatalf("second request: ok=%v wait=%v", ok, wait)
	}
	now = now.Add(600 * time.Millisecond)
	if _, _, ok := rl.allow("k"); !ok {
		t.Fatal("request after refill rejected")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := newTestLimiter(1, 5)
	now := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	rl.allow("old")
	now = now.Add(20 * time.Minute)
	rl.allow("fresh")

	rl.cleanup(10 * time.Minute)
	if rl.Len() != 1 {
		t.Fatalf("callers = %d, want 1", rl.Len())
	}
}
