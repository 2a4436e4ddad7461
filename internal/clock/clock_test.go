package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixed(t *testing.T) {
	start := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewFixed(start)
	require.Equal(t, start, c.Now())

	c.Advance(90 * time.Minute)
	require.Equal(t, start.Add(90*time.Minute), c.Now())

	c.Set(start)
	require.Equal(t, start, c.Now())
}

func TestReal_IsUTC(t *testing.T) {
	require.Equal(t, time.UTC, Real{}.Now().Location())
}
