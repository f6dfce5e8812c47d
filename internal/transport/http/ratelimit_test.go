package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIPLimiterPerClient(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewIPLimiter(Limits{PerSecond: 1, Burst: 2}, nil)
	limiter.now = func() time.Time { return at }

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"), "buckets are per ip")

	at = at.Add(time.Second)
	assert.True(t, limiter.Allow("10.0.0.1"), "a token refills after a second")
}

func TestIPLimiterSweepsIdleClients(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	limiter := NewIPLimiter(Limits{PerSecond: 1, Burst: 1}, nil)
	limiter.now = func() time.Time { return at }

	limiter.Allow("10.0.0.1")
	at = at.Add(11 * time.Minute)
	limiter.Allow("10.0.0.2")

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.clients, "10.0.0.1")
	assert.Contains(t, limiter.clients, "10.0.0.2")
}

func TestMiddlewareRejectsWith429(t *testing.T) {
	limiter := NewIPLimiter(Limits{PerSecond: 0.001, Burst: 1}, nil)
	handler := limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/options", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate limit exceeded")
}

func TestUnlimitedWhenRateUnset(t *testing.T) {
	limiter := NewIPLimiter(Limits{}, nil)
	for i := 0; i < 100; i++ {
		assert.True(t, limiter.Allow("10.0.0.1"))
	}
}
