package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
)

func cloneCallback(cb *models.CallbackRequest) *models.CallbackRequest {
	c := *cb
	c.CustomerID = clonePtr(cb.CustomerID)
	c.AssignedTo = clonePtr(cb.AssignedTo)
	c.RelatedTaskID = clonePtr(cb.RelatedTaskID)
	c.CompletedAt = clonePtr(cb.CompletedAt)
	c.Notes = clonePtr(cb.Notes)
	c.DeletedAt = clonePtr(cb.DeletedAt)
	c.DeleteExpiresAt = clonePtr(cb.DeleteExpiresAt)
	return &c
}

func (s *Store) CreateCallbackWithTask(ctx context.Context, cb *models.CallbackRequest, task *models.Task) (*models.CallbackRequest, *models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAssignee(cb.AssignedTo); err != nil {
		return nil, nil, err
	}

	c := cloneCallback(cb)
	c.ID = s.id()

	t := cloneTask(task)
	relType := models.EntityCallback
	relID := c.ID
	t.RelatedEntityType = &relType
	t.RelatedEntityID = &relID
	t = s.insertTask(t)

	c.RelatedTaskID = &t.ID
	s.callbacks[c.ID] = c
	return cloneCallback(c), cloneTask(t), nil
}

func (s *Store) GetCallback(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, ok := s.callbacks[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityCallback, id)
	}
	return cloneCallback(cb), nil
}

func (s *Store) ListCallbacks(ctx context.Context, f models.CallbackFilter) ([]*models.CallbackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.CallbackRequest, 0, len(s.callbacks))
	for _, cb := range s.callbacks {
		if f.Status != nil && cb.Status != *f.Status {
			continue
		}
		if f.AssignedTo != nil && (cb.AssignedTo == nil || *cb.AssignedTo != *f.AssignedTo) {
			continue
		}
		out = append(out, cloneCallback(cb))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].RequestedAt.Equal(out[b].RequestedAt) {
			return out[a].RequestedAt.After(out[b].RequestedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out, nil
}

// callbackIn returns the stored callback if it is in status want.
func (s *Store) callbackIn(id int64, want models.CallbackStatus) (*models.CallbackRequest, error) {
	cb, ok := s.callbacks[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityCallback, id)
	}
	if cb.Status != want {
		return nil, apperr.InvalidState(models.EntityCallback, id, "callback %d is %s, expected %s", id, cb.Status, want)
	}
	return cb, nil
}

func (s *Store) CompleteCallback(ctx context.Context, c models.CallbackCompletion) (*models.CallbackCompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, err := s.callbackIn(c.ID, models.CallbackStatusPending)
	if err != nil {
		return nil, err
	}
	if c.FollowUp != nil {
		if err := s.checkAssignee(c.FollowUp.AssignedTo); err != nil {
			return nil, err
		}
	}

	at := c.CompletedAt
	cb.Status = models.CallbackStatusCompleted
	cb.CompletedAt = &at
	if c.Notes != nil {
		cb.Notes = clonePtr(c.Notes)
	}
	res := &models.CallbackCompletionResult{}
	if cb.RelatedTaskID != nil {
		if t, ok := s.tasks[*cb.RelatedTaskID]; ok && t.Status != models.TaskStatusCompleted {
			t.Status = models.TaskStatusCompleted
			t.CompletedAt = &at
			res.CompletedTask = cloneTask(t)
		}
	}

	if c.FollowUp != nil {
		res.FollowUp = cloneTask(s.insertTask(c.FollowUp))
	}
	res.Callback = cloneCallback(cb)
	return res, nil
}

func (s *Store) SoftDeleteCallback(ctx context.Context, id int64, deletedAt, expiresAt time.Time) (*models.CallbackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, err := s.callbackIn(id, models.CallbackStatusPending)
	if err != nil {
		return nil, err
	}
	cb.Status = models.CallbackStatusDeleted
	cb.DeletedAt = &deletedAt
	cb.DeleteExpiresAt = &expiresAt
	return cloneCallback(cb), nil
}

func (s *Store) RestoreCallback(ctx context.Context, id int64) (*models.CallbackRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cb, err := s.callbackIn(id, models.CallbackStatusDeleted)
	if err != nil {
		return nil, err
	}
	cb.Status = models.CallbackStatusPending
	cb.DeletedAt = nil
	cb.DeleteExpiresAt = nil
	return cloneCallback(cb), nil
}

func (s *Store) PurgeExpiredCallbacks(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, cb := range s.callbacks {
		if cb.Status == models.CallbackStatusDeleted && cb.DeleteExpiresAt != nil && cb.DeleteExpiresAt.Before(now) {
			delete(s.callbacks, id)
			n++
		}
	}
	return n, nil
}
