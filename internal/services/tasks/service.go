package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/broker/messages"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/metrics"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
)

type Repository interface {
	CreateTask(ctx context.Context, t *models.Task) (*models.Task, error)
	GetTask(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, f models.TaskFilter) ([]*models.Task, error)
	// UpdateTask writes t only if the stored task is still in status expect.
	UpdateTask(ctx context.Context, t *models.Task, expect models.TaskStatus) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type Directory interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// Notifier delivers assignment notifications. Implementations may be slow or
// fail; callers go through the effects dispatcher.
type Notifier interface {
	NotifyAssignment(ctx context.Context, msg messages.TaskAssigned) error
}

type ActivityRecorder interface {
	Record(ctx context.Context, e activity.Entry)
}

type Service struct {
	repo     Repository
	users    Directory
	notifier Notifier
	activity ActivityRecorder
	fx       *effects.Dispatcher
	clock    clock.Clock

	systemUserID int64
}

func New(repo Repository, users Directory, notifier Notifier, rec ActivityRecorder, fx *effects.Dispatcher, clk clock.Clock, systemUserID int64) *Service {
	return &Service{
		repo: repo, users: users, notifier: notifier, activity: rec, fx: fx, clock: clk,
		systemUserID: systemUserID,
	}
}

func (s *Service) CreateTask(ctx context.Context, in models.TaskCreateInput) (*models.Task, error) {
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if in.Status == "" {
		in.Status = models.TaskStatusPending
	}

	f := apperr.Fields{}
	f.Require("title", in.Title)
	if !in.Priority.IsValid() {
		f.Add("priority", "must be one of low, medium, high, urgent")
	}
	if !in.Status.IsValid() {
		f.Add("status", "must be one of pending, in_progress, review, completed")
	}
	if (in.RelatedEntityType == nil) != (in.RelatedEntityID == nil) {
		f.Add("relatedEntityId", "relatedEntityType and relatedEntityId go together")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	t := &models.Task{
		Title:             strings.TrimSpace(in.Title),
		Description:       in.Description,
		Priority:          in.Priority,
		Status:            in.Status,
		AssignedTo:        in.AssignedTo,
		DueDate:           in.DueDate,
		RelatedEntityType: in.RelatedEntityType,
		RelatedEntityID:   in.RelatedEntityID,
		CreatedAt:         now,
	}
	if t.Status == models.TaskStatusCompleted {
		t.CompletedAt = &now
	}

	created, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return nil, err
	}
	if created.AssignedTo != nil {
		s.AnnounceAssignment(ctx, created)
	}
	return created, nil
}

func (s *Service) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return s.repo.GetTask(ctx, id)
}

func (s *Service) ListTasks(ctx context.Context, f models.TaskFilter) ([]*models.Task, error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, apperr.Validation(map[string]string{"status": "unknown task status"})
	}
	return s.repo.ListTasks(ctx, f)
}

func (s *Service) DeleteTask(ctx context.Context, id int64) error {
	return s.repo.DeleteTask(ctx, id)
}

// SetTaskStatus applies a status change. Completing an already completed
// task is a no-op and keeps the original completedAt.
func (s *Service) SetTaskStatus(ctx context.Context, id int64, status models.TaskStatus) (*models.Task, error) {
	if !status.IsValid() {
		return nil, apperr.Validation(map[string]string{"status": "must be one of pending, in_progress, review, completed"})
	}
	return s.UpdateTask(ctx, id, models.TaskPatch{Status: &status})
}

func (s *Service) UpdateTask(ctx context.Context, id int64, p models.TaskPatch) (*models.Task, error) {
	f := apperr.Fields{}
	if p.Title != nil {
		f.Require("title", *p.Title)
	}
	if p.Priority != nil && !p.Priority.IsValid() {
		f.Add("priority", "must be one of low, medium, high, urgent")
	}
	if p.Status != nil && !p.Status.IsValid() {
		f.Add("status", "must be one of pending, in_progress, review, completed")
	}
	if p.ClearAssignee && p.AssignedTo != nil {
		f.Add("assignedTo", "cannot assign and unassign at once")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	cur, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *cur
	changed := false
	if p.Title != nil && strings.TrimSpace(*p.Title) != cur.Title {
		next.Title = strings.TrimSpace(*p.Title)
		changed = true
	}
	if p.Description != nil && *p.Description != cur.Description {
		next.Description = *p.Description
		changed = true
	}
	if p.Priority != nil && *p.Priority != cur.Priority {
		next.Priority = *p.Priority
		changed = true
	}
	switch {
	case p.ClearAssignee && cur.AssignedTo != nil:
		next.AssignedTo = nil
		changed = true
	case p.AssignedTo != nil && !sameUser(cur.AssignedTo, p.AssignedTo):
		v := *p.AssignedTo
		next.AssignedTo = &v
		changed = true
	}
	switch {
	case p.ClearDueDate && cur.DueDate != nil:
		next.DueDate = nil
		changed = true
	case p.DueDate != nil && (cur.DueDate == nil || !cur.DueDate.Equal(*p.DueDate)):
		v := *p.DueDate
		next.DueDate = &v
		changed = true
	}

	statusChanged := false
	if p.Status != nil {
		next, statusChanged = applyStatus(next, *p.Status, s.clock.Now())
		changed = changed || statusChanged
	}
	if !changed {
		return cur, nil
	}

	updated, err := s.repo.UpdateTask(ctx, &next, cur.Status)
	if err != nil {
		return nil, err
	}

	if statusChanged {
		metrics.ObserveTransition(models.EntityTask, string(updated.Status))
		s.recordStatusChange(ctx, cur.Status, updated)
	}
	if updated.AssignedTo != nil && !sameUser(cur.AssignedTo, updated.AssignedTo) {
		s.AnnounceAssignment(ctx, updated)
	}
	return updated, nil
}

// applyStatus is the task state machine. completedAt is set only on entering
// completed and cleared whenever the task leaves it.
func applyStatus(t models.Task, to models.TaskStatus, now time.Time) (models.Task, bool) {
	if t.Status == to {
		return t, false
	}
	switch to {
	case models.TaskStatusCompleted:
		t.CompletedAt = &now
	case models.TaskStatusPending, models.TaskStatusInProgress, models.TaskStatusReview:
		t.CompletedAt = nil
	}
	t.Status = to
	return t, true
}

func (s *Service) recordStatusChange(ctx context.Context, from models.TaskStatus, t *models.Task) {
	user := s.systemUserID
	if t.AssignedTo != nil {
		user = *t.AssignedTo
	}
	switch {
	case t.Status == models.TaskStatusCompleted:
		s.activity.Record(ctx, activity.Entry{
			UserID:      user,
			Type:        models.ActivityTaskCompleted,
			Description: fmt.Sprintf("Task %q completed", t.Title),
			EntityType:  models.EntityTask,
			EntityID:    t.ID,
		})
	case from == models.TaskStatusCompleted:
		s.activity.Record(ctx, activity.Entry{
			UserID:      user,
			Type:        models.ActivityTaskReopened,
			Description: fmt.Sprintf("Task %q reopened", t.Title),
			EntityType:  models.EntityTask,
			EntityID:    t.ID,
		})
	}
}

// TaskCompleted records a completion written outside UpdateTask, such as a
// related task closed together with its callback.
func (s *Service) TaskCompleted(ctx context.Context, t *models.Task) {
	if t == nil || t.Status != models.TaskStatusCompleted {
		return
	}
	metrics.ObserveTransition(models.EntityTask, string(models.TaskStatusCompleted))
	s.recordStatusChange(ctx, models.TaskStatusPending, t)
}

// AnnounceAssignment notifies the task's assignee unless they opted out.
// It never fails: lookup and delivery problems are logged.
func (s *Service) AnnounceAssignment(ctx context.Context, t *models.Task) {
	if t == nil || t.AssignedTo == nil || s.notifier == nil {
		return
	}
	u, err := s.users.GetUser(ctx, *t.AssignedTo)
	if err != nil {
		slog.Warn("assignment notification skipped", "task_id", t.ID, "user_id", *t.AssignedTo, "error", err.Error())
		return
	}
	if !u.WantsAssignmentNotifications() || u.Email == "" {
		return
	}

	msg := messages.TaskAssigned{
		TaskID:      t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		AssigneeID:  u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		AssignedAt:  s.clock.Now(),
	}
	s.fx.Run(ctx, "notify_assignment", func(ctx context.Context) error {
		return s.notifier.NotifyAssignment(ctx, msg)
	}, "task_id", t.ID, "user_id", u.ID)
}

func sameUser(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
