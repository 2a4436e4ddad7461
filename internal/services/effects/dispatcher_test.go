package effects

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDispatcher_RetriesThenSucceeds(t *testing.T) {
	d := New().WithRetry(3, 0)

	calls := 0
	ok := d.Run(context.Background(), "test", func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.True(t, ok)
	require.Equal(t, 3, calls)
	require.Equal(t, Stats{Total: 1, Failed: 0}, d.Stats())
}

func TestDispatcher_GivesUpWithoutPanicking(t *testing.T) {
	d := New().WithRetry(2, 0)

	calls := 0
	ok := d.Run(context.Background(), "test", func(ctx context.Context) error {
		calls++
		return errors.New("down")
	}, "task_id", int64(1))
	require.False(t, ok)
	require.Equal(t, 2, calls)
	require.Equal(t, int64(1), d.Stats().Failed)
}

func TestDispatcher_StopsOnCancelledContext(t *testing.T) {
	d := New().WithRetry(5, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	ok := d.Run(ctx, "test", func(ctx context.Context) error {
		calls++
		return errors.New("down")
	})
	require.False(t, ok)
	require.Equal(t, 1, calls)
}
