package activity

import (
	"context"
	"testing"
	"time"

	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
	"github.com/BearBump/WorkshopBox/internal/storage/memstore"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRecorder_RecordAndRecent(t *testing.T) {
	st := memstore.New()
	clk := clock.NewFixed(time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC))
	fx := effects.New().WithRetry(1, 0)
	rec := New(st, fx, clk)
	ctx := context.Background()

	rec.Record(ctx, Entry{UserID: 3, Type: models.ActivityJobCreated, Description: "Job created", EntityType: models.EntityJob, EntityID: 10})
	clk.Advance(time.Minute)
	rec.Record(ctx, Entry{UserID: 3, Type: models.ActivityJobStarted, Description: "Work started", EntityType: models.EntityJob, EntityID: 10})

	recent, err := rec.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, models.ActivityJobStarted, recent[0].ActivityType)
	require.Equal(t, clk.Now(), recent[0].Timestamp)
}

func TestRecorder_FailureIsSwallowed(t *testing.T) {
	st := memstore.New()
	st.FailActivities = errors.New("disk full")
	fx := effects.New().WithRetry(2, 0)
	rec := New(st, fx, clock.Real{})

	require.NotPanics(t, func() {
		rec.Record(context.Background(), Entry{Type: models.ActivityTaskCompleted})
	})
	require.EqualValues(t, 1, fx.Stats().Failed)
}
