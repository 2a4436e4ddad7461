package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error)
}

// RateLimit allows perMinute requests per client IP in fixed one-minute
// windows shared by every replica. If the limiter is unavailable the request
// goes through.
func RateLimit(l Limiter, scope string, perMinute int, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		if l == nil || perMinute <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := now()
			window := t.Unix() / 60
			key := fmt.Sprintf("rl:%s:%s:%d", scope, clientIP(r), window)

			ok, _, err := l.Allow(r.Context(), key, int64(perMinute), time.Minute)
			if err != nil {
				slog.Warn("rate limiter unavailable", "scope", scope, "error", err.Error())
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				retry := 60 - t.Unix()%60
				w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":"rate_limited","message":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
