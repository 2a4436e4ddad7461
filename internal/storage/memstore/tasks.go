package memstore

import (
	"context"
	"sort"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
)

func cloneTask(t *models.Task) *models.Task {
	c := *t
	c.AssignedTo = clonePtr(t.AssignedTo)
	c.DueDate = clonePtr(t.DueDate)
	c.RelatedEntityType = clonePtr(t.RelatedEntityType)
	c.RelatedEntityID = clonePtr(t.RelatedEntityID)
	c.CompletedAt = clonePtr(t.CompletedAt)
	return &c
}

func (s *Store) checkAssignee(id *int64) error {
	if id == nil {
		return nil
	}
	if _, ok := s.users[*id]; !ok {
		return apperr.Validation(map[string]string{"assignedTo": "unknown user"})
	}
	return nil
}

func (s *Store) insertTask(t *models.Task) *models.Task {
	c := cloneTask(t)
	c.ID = s.id()
	s.tasks[c.ID] = c
	return c
}

func (s *Store) CreateTask(ctx context.Context, t *models.Task) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkAssignee(t.AssignedTo); err != nil {
		return nil, err
	}
	return cloneTask(s.insertTask(t)), nil
}

func (s *Store) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityTask, id)
	}
	return cloneTask(t), nil
}

func (s *Store) ListTasks(ctx context.Context, f models.TaskFilter) ([]*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if f.AssignedTo != nil && (t.AssignedTo == nil || *t.AssignedTo != *f.AssignedTo) {
			continue
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.RelatedEntityType != nil && (t.RelatedEntityType == nil || *t.RelatedEntityType != *f.RelatedEntityType) {
			continue
		}
		if f.RelatedEntityID != nil && (t.RelatedEntityID == nil || *t.RelatedEntityID != *f.RelatedEntityID) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (s *Store) UpdateTask(ctx context.Context, t *models.Task, expect models.TaskStatus) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[t.ID]
	if !ok {
		return nil, apperr.NotFound(models.EntityTask, t.ID)
	}
	if cur.Status != expect {
		return nil, apperr.InvalidState(models.EntityTask, t.ID, "task %d changed concurrently, status is now %s", t.ID, cur.Status)
	}
	if err := s.checkAssignee(t.AssignedTo); err != nil {
		return nil, err
	}
	c := cloneTask(t)
	c.CreatedAt = cur.CreatedAt
	c.RelatedEntityType = clonePtr(cur.RelatedEntityType)
	c.RelatedEntityID = clonePtr(cur.RelatedEntityID)
	s.tasks[t.ID] = c
	return cloneTask(c), nil
}

func (s *Store) DeleteTask(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return apperr.NotFound(models.EntityTask, id)
	}
	delete(s.tasks, id)
	// related_task_id ON DELETE SET NULL
	for _, cb := range s.callbacks {
		if cb.RelatedTaskID != nil && *cb.RelatedTaskID == id {
			cb.RelatedTaskID = nil
		}
	}
	return nil
}
