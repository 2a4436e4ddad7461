package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakePurger struct {
	calls atomic.Int64
	n     int64
	err   error
}

func (p *fakePurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	return p.n, p.err
}

type fakeLocker struct {
	ok       bool
	err      error
	released int
	ttl      time.Duration
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.ttl = ttl
	if l.err != nil || !l.ok {
		return nil, false, l.err
	}
	return func(context.Context) error {
		l.released++
		return nil
	}, true, nil
}

func TestSweeper_runOnce_PurgesUnderLock(t *testing.T) {
	p := &fakePurger{n: 3}
	l := &fakeLocker{ok: true}
	s := New(p, l).WithInterval(time.Minute)

	s.runOnce(context.Background())

	require.Equal(t, int64(1), p.calls.Load())
	require.Equal(t, 1, l.released)
	require.Equal(t, time.Minute, l.ttl)
	st := s.Stats()
	require.Equal(t, int64(3), st.TotalPurged)
	require.Equal(t, int64(1), st.TotalCycles)
	require.NotNil(t, st.LastCycleAt)
}

func TestSweeper_runOnce_SkipsWhenLockHeld(t *testing.T) {
	p := &fakePurger{}
	s := New(p, &fakeLocker{ok: false})

	s.runOnce(context.Background())

	require.Zero(t, p.calls.Load())
	require.Equal(t, int64(1), s.Stats().TotalSkipped)
}

func TestSweeper_runOnce_RecordsErrors(t *testing.T) {
	s := New(&fakePurger{err: errors.New("db down")}, nil)
	s.runOnce(context.Background())
	st := s.Stats()
	require.Equal(t, int64(1), st.TotalErrors)
	require.Equal(t, "db down", st.LastError)

	s = New(&fakePurger{}, &fakeLocker{err: errors.New("redis down")})
	s.runOnce(context.Background())
	require.Equal(t, "redis down", s.Stats().LastError)
}

func TestSweeper_Run_TriggerAndStop(t *testing.T) {
	p := &fakePurger{}
	s := New(p, nil).WithInterval(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	s.Trigger()
	require.Eventually(t, func() bool { return p.calls.Load() >= 1 }, time.Second, 5*time.Millisecond)
	require.NotNil(t, s.Stats().LastTriggerAt)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
