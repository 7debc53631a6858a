package admin

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T, rps float64, burst int) *RateLimitMiddleware {
	t.Helper()
	rl := NewRateLimitMiddleware(rps, burst, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(rl.Stop)
	return rl
}

func hit(h http.Handler, remoteAddr string) int {
	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimit_EnforcesBurst(t *testing.T) {
	t.Parallel()

	rl := newTestLimiter(t, 0.001, 2)
	h := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:1111"))
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	t.Parallel()

	rl := newTestLimiter(t, 0.001, 1)
	h := rl.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.1:1111"))
	assert.Equal(t, http.StatusTooManyRequests, hit(h, "10.0.0.1:2222"), "same IP, different port")
	assert.Equal(t, http.StatusOK, hit(h, "10.0.0.2:1111"), "distinct IP gets its own bucket")
}

func TestRateLimit_SweepEvictsStaleLimiters(t *testing.T) {
	t.Parallel()

	rl := newTestLimiter(t, 1, 1)
	now := time.Now()
	rl.nowFunc = func() time.Time { return now }

	require.True(t, rl.allow("10.0.0.1"))
	require.Len(t, rl.limiters, 1)

	rl.nowFunc = func() time.Time { return now.Add(staleLimiterTTL + time.Minute) }
	rl.sweep()
	assert.Empty(t, rl.limiters)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:9999"
	assert.Equal(t, "192.0.2.7", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
