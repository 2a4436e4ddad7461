package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/cache/rediscache"
	"github.com/alicebob/miniredis/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NotEmpty(t, seen)
	require.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, "abc", seen)

	rec = httptest.NewRecorder()
	RequestID(false)(okHandler()).ServeHTTP(rec, req)
	require.NotEqual(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestSlogRequestLogger_PassesThrough(t *testing.T) {
	rec := httptest.NewRecorder()
	SlogRequestLogger(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimit_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := rediscache.NewRateLimiter(rediscache.NewClient(mr.Addr()))
	now := time.Date(2024, 1, 1, 10, 0, 5, 0, time.UTC)
	h := RateLimit(rl, "lookup", 2, func() time.Time { return now })(okHandler())

	do := func(addr string) int {
		req := httptest.NewRequest(http.MethodPost, "/lookup", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusNoContent, do("10.0.0.1:5000"))
	require.Equal(t, http.StatusNoContent, do("10.0.0.1:5001"))
	require.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:5002"))
	require.Equal(t, http.StatusNoContent, do("10.0.0.2:5000"))

	// новое окно
	now = now.Add(time.Minute)
	require.Equal(t, http.StatusNoContent, do("10.0.0.1:5003"))
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	return false, 0, errors.New("connection refused")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	h := RateLimit(brokenLimiter{}, "lookup", 1, nil)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
