package activity

import (
	"context"

	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
)

type Repository interface {
	AddActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, limit int) ([]*models.Activity, error)
}

type Entry struct {
	UserID      int64
	Type        models.ActivityType
	Description string
	EntityType  string
	EntityID    int64
}

// Recorder appends activity log entries on a best-effort basis.
type Recorder struct {
	repo  Repository
	fx    *effects.Dispatcher
	clock clock.Clock
}

func New(repo Repository, fx *effects.Dispatcher, clk clock.Clock) *Recorder {
	return &Recorder{repo: repo, fx: fx, clock: clk}
}

func (r *Recorder) Record(ctx context.Context, e Entry) {
	a := &models.Activity{
		UserID:       e.UserID,
		ActivityType: e.Type,
		Description:  e.Description,
		EntityType:   e.EntityType,
		EntityID:     e.EntityID,
		Timestamp:    r.clock.Now(),
	}
	r.fx.Run(ctx, "activity", func(ctx context.Context) error {
		return r.repo.AddActivity(ctx, a)
	}, "activity_type", string(e.Type), "entity_type", e.EntityType, "entity_id", e.EntityID)
}

func (r *Recorder) Recent(ctx context.Context, limit int) ([]*models.Activity, error) {
	return r.repo.ListActivities(ctx, limit)
}
