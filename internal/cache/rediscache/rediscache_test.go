package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestPing(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewClient(mr.Addr())
	require.NoError(t, Ping(context.Background(), c))

	mr.Close()
	require.Error(t, Ping(context.Background(), c))
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(NewClient(mr.Addr()))

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)

	// окно истекло, счётчик сбрасывается
	mr.FastForward(time.Minute + time.Second)
	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}

func TestLocker_AcquireRelease(t *testing.T) {
	mr := miniredis.RunT(t)
	l := NewLocker(NewClient(mr.Addr()))
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.Acquire(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, release(ctx))
	require.False(t, mr.Exists("lock:test"))

	_, ok, err = l.Acquire(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLocker_ReleaseDoesNotStealForeignLock(t *testing.T) {
	mr := miniredis.RunT(t)
	l := NewLocker(NewClient(mr.Addr()))
	ctx := context.Background()

	release, ok, err := l.Acquire(ctx, "lock:test", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	// lease expired and another replica took the lock
	mr.FastForward(2 * time.Second)
	_, ok, err = l.Acquire(ctx, "lock:test", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, release(ctx))
	require.True(t, mr.Exists("lock:test"))
}
