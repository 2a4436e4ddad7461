package callbacks

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
)

const companionTaskDue = 24 * time.Hour

type Repository interface {
	FindCustomerByName(ctx context.Context, name string) (*models.Customer, error)
	// CreateCallbackWithTask stores the callback and its companion task in one
	// transaction and links them through RelatedTaskID.
	CreateCallbackWithTask(ctx context.Context, cb *models.CallbackRequest, task *models.Task) (*models.CallbackRequest, *models.Task, error)
	GetCallback(ctx context.Context, id int64) (*models.CallbackRequest, error)
	ListCallbacks(ctx context.Context, f models.CallbackFilter) ([]*models.CallbackRequest, error)
	// CompleteCallback moves a pending callback to completed, completes the
	// related task if it is not completed yet and inserts the follow-up task.
	CompleteCallback(ctx context.Context, c models.CallbackCompletion) (*models.CallbackCompletionResult, error)
	SoftDeleteCallback(ctx context.Context, id int64, deletedAt, expiresAt time.Time) (*models.CallbackRequest, error)
	RestoreCallback(ctx context.Context, id int64) (*models.CallbackRequest, error)
	PurgeExpiredCallbacks(ctx context.Context, now time.Time) (int64, error)
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

// TaskHooks lets the task service react to tasks this service writes
// directly: companion and follow-up tasks, and the related task completed
// together with its callback.
type TaskHooks interface {
	AnnounceAssignment(ctx context.Context, t *models.Task)
	TaskCompleted(ctx context.Context, t *models.Task)
}

type FollowUp struct {
	Title   string
	DueDate *time.Time
}

type CompleteInput struct {
	Notes    *string
	FollowUp *FollowUp
}

type Service struct {
	repo      Repository
	activity  ActivityRecorder
	tasks     TaskHooks
	clock     clock.Clock

	systemUserID int64
}

func New(repo Repository, rec ActivityRecorder, tasks TaskHooks, clk clock.Clock, systemUserID int64) *Service {
	return &Service{repo: repo, activity: rec, tasks: tasks, clock: clk, systemUserID: systemUserID}
}

func (s *Service) CreateCallback(ctx context.Context, in models.CallbackCreateInput, actor *int64) (*models.CallbackRequest, error) {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	f := apperr.Fields{}
	f.Require("customerName", in.CustomerName)
	f.Require("phoneNumber", in.PhoneNumber)
	f.Require("subject", in.Subject)
	if !in.Priority.IsValid() {
		f.Add("priority", "must be one of low, medium, high, urgent")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	cb := &models.CallbackRequest{
		CustomerName: strings.TrimSpace(in.CustomerName),
		PhoneNumber:  strings.TrimSpace(in.PhoneNumber),
		Subject:      strings.TrimSpace(in.Subject),
		Details:      in.Details,
		Priority:     in.Priority,
		AssignedTo:   in.AssignedTo,
		Status:       models.CallbackStatusPending,
		RequestedAt:  now,
	}

	if c, err := s.repo.FindCustomerByName(ctx, cb.CustomerName); err == nil {
		cb.CustomerID = &c.ID
	} else if !apperr.IsNotFound(err) {
		slog.Warn("callback customer lookup failed", "customer_name", cb.CustomerName, "error", err.Error())
	}

	due := now.Add(companionTaskDue)
	relType := models.EntityCallback
	task := &models.Task{
		Title:             "Customer Callback Request: " + cb.Subject,
		Description:       companionDescription(cb),
		Priority:          cb.Priority,
		Status:            models.TaskStatusPending,
		AssignedTo:        cb.AssignedTo,
		DueDate:           &due,
		RelatedEntityType: &relType,
		CreatedAt:         now,
	}

	created, createdTask, err := s.repo.CreateCallbackWithTask(ctx, cb, task)
	if err != nil {
		return nil, err
	}
	slog.Info("callback logged", "callback_id", created.ID, "task_id", createdTask.ID)

	s.activity.Record(ctx, activity.Entry{
		UserID:      s.actorFor(actor, created),
		Type:        models.ActivityCallbackLogged,
		Description: fmt.Sprintf("Callback requested by %s: %s", created.CustomerName, created.Subject),
		EntityType:  models.EntityCallback,
		EntityID:    created.ID,
	})
	if s.tasks != nil {
		s.tasks.AnnounceAssignment(ctx, createdTask)
	}
	return created, nil
}

func companionDescription(cb *models.CallbackRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Call %s back on %s.", cb.CustomerName, cb.PhoneNumber)
	if d := strings.TrimSpace(cb.Details); d != "" {
		b.WriteString("\n\n")
		b.WriteString(d)
	}
	return b.String()
}

func (s *Service) GetCallback(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	return s.repo.GetCallback(ctx, id)
}

func (s *Service) ListCallbacks(ctx context.Context, f models.CallbackFilter) ([]*models.CallbackRequest, error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, apperr.Validation(map[string]string{"status": "unknown callback status"})
	}
	return s.repo.ListCallbacks(ctx, f)
}

// CompleteCallback marks a callback completed together with its related task.
// Completing an already completed callback returns it unchanged.
func (s *Service) CompleteCallback(ctx context.Context, id int64, in CompleteInput, actor *int64) (*models.CallbackRequest, error) {
	cb, err := s.repo.GetCallback(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cb.Status {
	case models.CallbackStatusCompleted:
		return cb, nil
	case models.CallbackStatusDeleted:
		return nil, apperr.InvalidState(models.EntityCallback, id, "callback %d is deleted", id)
	case models.CallbackStatusPending:
	default:
		return nil, apperr.InvalidState(models.EntityCallback, id, "callback %d has unknown status %q", id, cb.Status)
	}

	now := s.clock.Now()
	c := models.CallbackCompletion{ID: id, CompletedAt: now}
	if in.Notes != nil && strings.TrimSpace(*in.Notes) != "" {
		n := strings.TrimSpace(*in.Notes)
		c.Notes = &n
	}
	if in.FollowUp != nil {
		c.FollowUp = s.followUpTask(cb, in.FollowUp, now)
	}

	res, err := s.repo.CompleteCallback(ctx, c)
	if err != nil {
		return nil, err
	}
	updated := res.Callback
	metrics.ObserveTransition(models.EntityCallback, string(models.CallbackStatusCompleted))

	s.activity.Record(ctx, activity.Entry{
		UserID:      s.actorFor(actor, updated),
		Type:        models.ActivityCallbackCompleted,
		Description: fmt.Sprintf("Callback to %s completed", updated.CustomerName),
		EntityType:  models.EntityCallback,
		EntityID:    updated.ID,
	})
	if s.tasks != nil {
		if res.CompletedTask != nil {
			s.tasks.TaskCompleted(ctx, res.CompletedTask)
		}
		if res.FollowUp != nil {
			s.tasks.AnnounceAssignment(ctx, res.FollowUp)
		}
	}
	return updated, nil
}

func (s *Service) followUpTask(cb *models.CallbackRequest, fu *FollowUp, now time.Time) *models.Task {
	title := strings.TrimSpace(fu.Title)
	if title == "" {
		title = "Follow-up: " + cb.Subject
	}
	due := now.Add(companionTaskDue)
	if fu.DueDate != nil {
		due = *fu.DueDate
	}
	relType := models.EntityCallback
	relID := cb.ID
	return &models.Task{
		Title:             title,
		Description:       companionDescription(cb),
		Priority:          cb.Priority,
		Status:            models.TaskStatusPending,
		AssignedTo:        cb.AssignedTo,
		DueDate:           &due,
		RelatedEntityType: &relType,
		RelatedEntityID:   &relID,
		CreatedAt:         now,
	}
}

// SoftDelete hides a pending callback for DeleteGracePeriod before it can be purged.
func (s *Service) SoftDelete(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	cb, err := s.repo.GetCallback(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cb.Status {
	case models.CallbackStatusPending:
	case models.CallbackStatusCompleted, models.CallbackStatusDeleted:
		return nil, apperr.InvalidState(models.EntityCallback, id, "only pending callbacks can be deleted, callback %d is %s", id, cb.Status)
	default:
		return nil, apperr.InvalidState(models.EntityCallback, id, "callback %d has unknown status %q", id, cb.Status)
	}

	now := s.clock.Now()
	out, err := s.repo.SoftDeleteCallback(ctx, id, now, now.Add(models.DeleteGracePeriod))
	if err != nil {
		return nil, err
	}
	metrics.ObserveTransition(models.EntityCallback, string(models.CallbackStatusDeleted))
	return out, nil
}

func (s *Service) Restore(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	cb, err := s.repo.GetCallback(ctx, id)
	if err != nil {
		return nil, err
	}
	switch cb.Status {
	case models.CallbackStatusDeleted:
	case models.CallbackStatusPending, models.CallbackStatusCompleted:
		return nil, apperr.InvalidState(models.EntityCallback, id, "only deleted callbacks can be restored, callback %d is %s", id, cb.Status)
	default:
		return nil, apperr.InvalidState(models.EntityCallback, id, "callback %d has unknown status %q", id, cb.Status)
	}

	out, err := s.repo.RestoreCallback(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.ObserveTransition(models.EntityCallback, string(models.CallbackStatusPending))
	return out, nil
}

// PurgeExpired hard-deletes callbacks whose grace period has passed.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.PurgeExpiredCallbacks(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	metrics.ObservePurged(n)
	if n > 0 {
		slog.Info("expired callbacks purged", "count", n)
	}
	return n, nil
}

func (s *Service) actorFor(actor *int64, cb *models.CallbackRequest) int64 {
	if actor != nil && *actor > 0 {
		return *actor
	}
	if cb.AssignedTo != nil {
		return *cb.AssignedTo
	}
	return s.systemUserID
}
