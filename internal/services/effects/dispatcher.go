// Package effects runs advisory side effects (activity log writes, notifications)
// after the primary write has succeeded. Failures are retried a bounded number of
// times, logged and then dropped; they never reach the caller.
package effects

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

type Dispatcher struct {
	attempts int
	backoff  time.Duration

	total  atomic.Int64
	failed atomic.Int64
}

func New() *Dispatcher {
	return &Dispatcher{attempts: 3, backoff: 50 * time.Millisecond}
}

func (d *Dispatcher) WithRetry(attempts int, backoff time.Duration) *Dispatcher {
	if attempts > 0 {
		d.attempts = attempts
	}
	if backoff >= 0 {
		d.backoff = backoff
	}
	return d
}

// Run executes fn until it succeeds or the attempts are exhausted.
// attrs are extra slog key/value pairs for the failure log line.
func (d *Dispatcher) Run(ctx context.Context, name string, fn func(ctx context.Context) error, attrs ...any) bool {
	d.total.Add(1)

	var err error
	for i := 0; i < d.attempts; i++ {
		if i > 0 && d.backoff > 0 {
			select {
			case <-ctx.Done():
				i = d.attempts
				continue
			case <-time.After(d.backoff * time.Duration(i)):
			}
		}
		if err = fn(ctx); err == nil {
			return true
		}
	}

	d.failed.Add(1)
	args := append([]any{"effect", name, "attempts", d.attempts, "error", err.Error()}, attrs...)
	slog.Warn("side effect failed", args...)
	return false
}

type Stats struct {
	Total  int64 `json:"total"`
	Failed int64 `json:"failed"`
}

func (d *Dispatcher) Stats() Stats {
	return Stats{Total: d.total.Load(), Failed: d.failed.Load()}
}
