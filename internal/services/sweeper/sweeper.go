package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const DefaultLockKey = "lock:callbacks:purge"

type Purger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

// Sweeper periodically purges soft-deleted callbacks whose grace period ran out.
// With a Locker set only one replica sweeps per cycle.
type Sweeper struct {
	purger Purger
	locker Locker

	interval time.Duration
	lockKey  string

	triggerCh chan struct{}

	startedAtUnixNano   int64
	lastCycleUnixNano   atomic.Int64
	lastTriggerUnixNano atomic.Int64
	totalCycles         atomic.Int64
	totalSkipped        atomic.Int64
	totalPurged         atomic.Int64
	totalErrors         atomic.Int64
	lastErrorMu         sync.Mutex
	lastError           string
}

func New(purger Purger, locker Locker) *Sweeper {
	return &Sweeper{
		purger:            purger,
		locker:            locker,
		interval:          5 * time.Minute,
		lockKey:           DefaultLockKey,
		triggerCh:         make(chan struct{}, 1),
		startedAtUnixNano: time.Now().UTC().UnixNano(),
	}
}

func (s *Sweeper) WithInterval(d time.Duration) *Sweeper {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Sweeper) WithLockKey(key string) *Sweeper {
	if key != "" {
		s.lockKey = key
	}
	return s
}

// Trigger forces an immediate sweep (best-effort, non-blocking).
func (s *Sweeper) Trigger() {
	s.lastTriggerUnixNano.Store(time.Now().UTC().UnixNano())
	select {
	case s.triggerCh <- struct{}{}:
	default:
	}
}

type Stats struct {
	StartedAt     time.Time  `json:"startedAt"`
	LastCycleAt   *time.Time `json:"lastCycleAt,omitempty"`
	LastTriggerAt *time.Time `json:"lastTriggerAt,omitempty"`
	TotalCycles   int64      `json:"totalCycles"`
	TotalSkipped  int64      `json:"totalSkipped"`
	TotalPurged   int64      `json:"totalPurged"`
	TotalErrors   int64      `json:"totalErrors"`
	LastError     string     `json:"lastError,omitempty"`
}

func (s *Sweeper) Stats() Stats {
	st := Stats{
		StartedAt:    time.Unix(0, s.startedAtUnixNano).UTC(),
		TotalCycles:  s.totalCycles.Load(),
		TotalSkipped: s.totalSkipped.Load(),
		TotalPurged:  s.totalPurged.Load(),
		TotalErrors:  s.totalErrors.Load(),
	}
	if n := s.lastCycleUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastCycleAt = &t
	}
	if n := s.lastTriggerUnixNano.Load(); n > 0 {
		t := time.Unix(0, n).UTC()
		st.LastTriggerAt = &t
	}
	s.lastErrorMu.Lock()
	st.LastError = s.lastError
	s.lastErrorMu.Unlock()
	return st
}

func (s *Sweeper) Run(ctx context.Context) error {
	t := time.NewTicker(s.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.runOnce(ctx)
		case <-s.triggerCh:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	s.lastCycleUnixNano.Store(time.Now().UTC().UnixNano())
	s.totalCycles.Add(1)

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, s.lockKey, s.interval)
		if err != nil {
			s.fail("acquire purge lock", err)
			return
		}
		if !ok {
			s.totalSkipped.Add(1)
			slog.Debug("purge skipped, lock held elsewhere", "lock", s.lockKey)
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("release purge lock", "lock", s.lockKey, "error", err.Error())
			}
		}()
	}

	n, err := s.purger.PurgeExpired(ctx)
	if err != nil {
		s.fail("purge expired callbacks", err)
		return
	}
	s.totalPurged.Add(n)
}

func (s *Sweeper) fail(msg string, err error) {
	s.totalErrors.Add(1)
	s.lastErrorMu.Lock()
	s.lastError = err.Error()
	s.lastErrorMu.Unlock()
	slog.Error(msg, "error", err.Error())
}
