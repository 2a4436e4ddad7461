package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/metrics"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateJob(ctx context.Context, j *models.Job) (*models.Job, error)
	GetJob(ctx context.Context, id int64) (*models.Job, error)
	ListJobs(ctx context.Context, f models.JobFilter) ([]*models.Job, error)
	// SetJobStatus writes the new status only if the job is still in status from.
	SetJobStatus(ctx context.Context, id int64, from, to models.JobStatus, completedAt *time.Time, now time.Time) (*models.Job, error)
	UpdateJob(ctx context.Context, id int64, p models.JobPatch, now time.Time) (*models.Job, error)
	AddJobUpdate(ctx context.Context, u *models.JobUpdate) (*models.JobUpdate, error)
	ListJobUpdates(ctx context.Context, jobID int64, publicOnly bool) ([]*models.JobUpdate, error)
	AddService(ctx context.Context, s *models.Service) (*models.Service, error)
	ListServices(ctx context.Context, jobID int64) ([]*models.Service, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

// Note is an optional update note written together with a status change.
type Note struct {
	Text   string
	Public bool
}

type ServiceInput struct {
	Name        string
	Description string
	Hours       *float64
	Price       decimal.Decimal
}

type Service struct {
	repo     Repository
	activity ActivityRecorder
	fx       *effects.Dispatcher
	clock    clock.Clock

	systemUserID int64
}

func New(repo Repository, rec ActivityRecorder, fx *effects.Dispatcher, clk clock.Clock, systemUserID int64) *Service {
	return &Service{repo: repo, activity: rec, fx: fx, clock: clk, systemUserID: systemUserID}
}

func (s *Service) CreateJob(ctx context.Context, in models.JobCreateInput, actor *int64) (*models.Job, error) {
	f := apperr.Fields{}
	if in.CustomerID <= 0 {
		f.Add("customerId", "is required")
	}
	f.Require("description", in.Description)
	if in.EstimatedHours != nil && *in.EstimatedHours < 0 {
		f.Add("estimatedHours", "must not be negative")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	job, err := s.repo.CreateJob(ctx, &models.Job{
		JobID:          newJobRef(now),
		CustomerID:     in.CustomerID,
		EquipmentID:    in.EquipmentID,
		AssignedTo:     in.AssignedTo,
		Description:    strings.TrimSpace(in.Description),
		Status:         models.JobStatusWaitingAssessment,
		EstimatedHours: in.EstimatedHours,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		UserID:      s.actorFor(actor, job),
		Type:        models.ActivityJobCreated,
		Description: fmt.Sprintf("Job %s created", job.JobID),
		EntityType:  models.EntityJob,
		EntityID:    job.ID,
	})
	return job, nil
}

func (s *Service) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	return s.repo.GetJob(ctx, id)
}

func (s *Service) ListJobs(ctx context.Context, f models.JobFilter) ([]*models.Job, error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, apperr.Validation(map[string]string{"status": "unknown job status"})
	}
	return s.repo.ListJobs(ctx, f)
}

func (s *Service) UpdateJob(ctx context.Context, id int64, p models.JobPatch) (*models.Job, error) {
	f := apperr.Fields{}
	if p.Description != nil {
		f.Require("description", *p.Description)
	}
	if p.EstimatedHours != nil && *p.EstimatedHours < 0 {
		f.Add("estimatedHours", "must not be negative")
	}
	if p.ActualHours != nil && *p.ActualHours < 0 {
		f.Add("actualHours", "must not be negative")
	}
	if p.ClearAssignee && p.AssignedTo != nil {
		f.Add("assignedTo", "cannot assign and unassign at once")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	return s.repo.UpdateJob(ctx, id, p, s.clock.Now())
}

// TransitionJob moves a job to newStatus. Any status may follow any other;
// only the enum value is validated. completedAt is stamped on entering
// completed and cleared on leaving it. Activity entries and the optional note
// are advisory and never fail the transition.
func (s *Service) TransitionJob(ctx context.Context, jobID int64, newStatus models.JobStatus, actor *int64, note *Note) (*models.Job, error) {
	if !newStatus.IsValid() {
		return nil, apperr.Validation(map[string]string{"status": "unknown job status"})
	}

	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	prev := job.Status
	user := s.actorFor(actor, job)

	if prev != newStatus {
		now := s.clock.Now()
		var completedAt *time.Time
		if newStatus == models.JobStatusCompleted {
			completedAt = &now
		}

		job, err = s.repo.SetJobStatus(ctx, jobID, prev, newStatus, completedAt, now)
		if err != nil {
			return nil, err
		}
		metrics.ObserveTransition(models.EntityJob, string(newStatus))
		slog.Info("job status changed", "job_id", job.ID, "from", string(prev), "to", string(newStatus), "actor", user)

		s.recordTransition(ctx, job, user)
	}

	if note != nil && strings.TrimSpace(note.Text) != "" {
		upd := &models.JobUpdate{
			JobID:     job.ID,
			Note:      strings.TrimSpace(note.Text),
			IsPublic:  note.Public,
			CreatedBy: &user,
			CreatedAt: s.clock.Now(),
		}
		s.fx.Run(ctx, "job_update_note", func(ctx context.Context) error {
			_, err := s.repo.AddJobUpdate(ctx, upd)
			return err
		}, "job_id", job.ID)
	}

	return job, nil
}

func (s *Service) recordTransition(ctx context.Context, job *models.Job, user int64) {
	var (
		typ  models.ActivityType
		desc string
	)
	switch job.Status {
	case models.JobStatusCompleted:
		typ, desc = models.ActivityJobCompleted, fmt.Sprintf("Job %s marked as completed", job.JobID)
	case models.JobStatusInProgress:
		typ, desc = models.ActivityJobStarted, fmt.Sprintf("Work started on job %s", job.JobID)
	case models.JobStatusPartsOrdered:
		typ, desc = models.ActivityJobReceived, fmt.Sprintf("Parts ordered for job %s", job.JobID)
	case models.JobStatusWaitingAssessment, models.JobStatusReadyForPickup, models.JobStatusCancelled:
		// not logged
		return
	default:
		return
	}
	s.activity.Record(ctx, activity.Entry{
		UserID:      user,
		Type:        typ,
		Description: desc,
		EntityType:  models.EntityJob,
		EntityID:    job.ID,
	})
}

func (s *Service) AddJobUpdate(ctx context.Context, jobID int64, note Note, actor *int64) (*models.JobUpdate, error) {
	if strings.TrimSpace(note.Text) == "" {
		return nil, apperr.Validation(map[string]string{"note": "is required"})
	}
	job, err := s.repo.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	user := s.actorFor(actor, job)
	return s.repo.AddJobUpdate(ctx, &models.JobUpdate{
		JobID:     job.ID,
		Note:      strings.TrimSpace(note.Text),
		IsPublic:  note.Public,
		CreatedBy: &user,
		CreatedAt: s.clock.Now(),
	})
}

func (s *Service) ListJobUpdates(ctx context.Context, jobID int64, publicOnly bool) ([]*models.JobUpdate, error) {
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.repo.ListJobUpdates(ctx, jobID, publicOnly)
}

func (s *Service) AddService(ctx context.Context, jobID int64, in ServiceInput) (*models.Service, error) {
	f := apperr.Fields{}
	f.Require("name", in.Name)
	if in.Price.IsNegative() {
		f.Add("price", "must not be negative")
	}
	if in.Hours != nil && *in.Hours < 0 {
		f.Add("hours", "must not be negative")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.repo.AddService(ctx, &models.Service{
		JobID:       jobID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Hours:       in.Hours,
		Price:       in.Price,
		CreatedAt:   s.clock.Now(),
	})
}

func (s *Service) ListServices(ctx context.Context, jobID int64) ([]*models.Service, error) {
	if _, err := s.repo.GetJob(ctx, jobID); err != nil {
		return nil, err
	}
	return s.repo.ListServices(ctx, jobID)
}

// actorFor picks who a change is attributed to: the explicit actor, then the
// job's assignee, then the configured system user.
func (s *Service) actorFor(actor *int64, job *models.Job) int64 {
	if actor != nil && *actor > 0 {
		return *actor
	}
	if job != nil && job.AssignedTo != nil {
		return *job.AssignedTo
	}
	return s.systemUserID
}

func newJobRef(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("JOB-%s-%s", now.Format("20060102"), suffix)
}
