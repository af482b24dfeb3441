package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type steppedClock struct{ t time.Time }

func (c *steppedClock) now() time.Time { return c.t }

func newTestLimiter() (*RateLimiter, *steppedClock) {
	clock := &steppedClock{t: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter()
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterAllow(t *testing.T) {
	rl, _ := newTestLimiter()

	for i := 0; i < 5; i++ {
		ok, _ := rl.Allow("key", 5, time.Minute)
		require.True(t, ok, "request %d should be allowed", i+1)
	}

	ok, reset := rl.Allow("key", 5, time.Minute)
	assert.False(t, ok, "6th request should be denied")
	assert.Equal(t, time.Minute, reset)
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter()

	for i := 0; i < 3; i++ {
		rl.Allow("key", 3, 10*time.Second)
	}
	clock.t = clock.t.Add(4 * time.Second)
	ok, reset := rl.Allow("key", 3, 10*time.Second)
	assert.False(t, ok, "should be blocked within window")
	assert.Equal(t, 6*time.Second, reset)

	clock.t = clock.t.Add(6 * time.Second)
	ok, _ = rl.Allow("key", 3, 10*time.Second)
	assert.True(t, ok, "should be allowed once the window resets")
}

func TestRateLimiterSeparateKeys(t *testing.T) {
	rl, _ := newTestLimiter()

	rl.Allow("a", 1, time.Minute)
	ok, _ := rl.Allow("a", 1, time.Minute)
	assert.False(t, ok)

	ok, _ = rl.Allow("b", 1, time.Minute)
	assert.True(t, ok, "other keys keep their own budget")
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter()

	rl.Allow("short", 5, time.Second)
	rl.Allow("long", 5, time.Hour)

	clock.t = clock.t.Add(2 * time.Second)
	assert.Equal(t, 1, rl.Cleanup())

	rl.mu.Lock()
	defer rl.mu.Unlock()
	assert.NotContains(t, rl.windows, "short")
	assert.Contains(t, rl.windows, "long")
}

func TestRateLimiterRunStopsWithContext(t *testing.T) {
	rl := NewRateLimiter()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		rl.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, _ := newTestLimiter()
	policy := Policy{Name: "import", Limit: 2, Window: time.Minute}
	handler := RateLimit(rl, policy, RealIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/api/backup/import", nil)
		req.RemoteAddr = "192.168.1.20:4000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}

	req := httptest.NewRequest("POST", "/api/backup/import", nil)
	req.RemoteAddr = "192.168.1.20:4000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())

	// A different policy on the same client has its own budget.
	other := RateLimit(rl, Policy{Name: "push-test", Limit: 1, Window: time.Minute}, RealIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	req = httptest.NewRequest("POST", "/api/push/test", nil)
	req.RemoteAddr = "192.168.1.20:4000"
	rec = httptest.NewRecorder()
	other.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		want       string
	}{
		{"X-Real-IP", map[string]string{"X-Real-IP": "1.2.3.4", "X-Forwarded-For": "5.6.7.8"}, "9.9.9.9:1234", "1.2.3.4"},
		{"X-Forwarded-For single", map[string]string{"X-Forwarded-For": "5.6.7.8"}, "9.9.9.9:1234", "5.6.7.8"},
		{"X-Forwarded-For chain", map[string]string{"X-Forwarded-For": "5.6.7.8, 10.0.0.1"}, "9.9.9.9:1234", "5.6.7.8"},
		{"RemoteAddr", nil, "9.9.9.9:1234", "9.9.9.9"},
		{"RemoteAddr without port", nil, "9.9.9.9", "9.9.9.9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, RealIP(req))
		})
	}
}
