package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusCreated)
}

func doRequest(h http.HandlerFunc, ip string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/locations/mobile-check-in", nil)
	req.RemoteAddr = ip + ":52100"
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 2)
	limiter.now = func() time.Time { return now }
	h := limiter.Wrap(okHandler)

	assert.Equal(t, http.StatusCreated, doRequest(h, "10.0.0.1").Code)
	assert.Equal(t, http.StatusCreated, doRequest(h, "10.0.0.1").Code)

	rec := doRequest(h, "10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, rec.Body.String())

	// other clients have their own bucket
	assert.Equal(t, http.StatusCreated, doRequest(h, "10.0.0.2").Code)

	now = now.Add(time.Second)
	assert.Equal(t, http.StatusCreated, doRequest(h, "10.0.0.1").Code)
}

func TestRateLimiter_Disabled(t *testing.T) {
	h := NewRateLimiter(0, 1).Wrap(okHandler)
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusCreated, doRequest(h, "10.0.0.1").Code)
	}

	var nilLimiter *RateLimiter
	assert.Equal(t, http.StatusCreated, doRequest(nilLimiter.Wrap(okHandler), "10.0.0.1").Code)
}

func TestRateLimiter_SweepsIdleClients(t *testing.T) {
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, 1)
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))
	assert.Len(t, limiter.clients, 2)

	now = now.Add(idleLimiterTTL + time.Minute)
	require.True(t, limiter.allow("10.0.0.3"))
	assert.Len(t, limiter.clients, 1)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:4000"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.4")
	assert.Equal(t, "198.51.100.4", clientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIP(req))
}
