package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
)

func cloneJob(j *models.Job) *models.Job {
	c := *j
	c.EquipmentID = clonePtr(j.EquipmentID)
	c.AssignedTo = clonePtr(j.AssignedTo)
	c.EstimatedHours = clonePtr(j.EstimatedHours)
	c.ActualHours = clonePtr(j.ActualHours)
	c.CompletedAt = clonePtr(j.CompletedAt)
	return &c
}

func (s *Store) CreateJob(ctx context.Context, j *models.Job) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := apperr.Fields{}
	if _, ok := s.customers[j.CustomerID]; !ok {
		f.Add("customerId", "unknown customer")
	}
	if j.EquipmentID != nil {
		if _, ok := s.equipment[*j.EquipmentID]; !ok {
			f.Add("equipmentId", "unknown equipment")
		}
	}
	if j.AssignedTo != nil {
		if _, ok := s.users[*j.AssignedTo]; !ok {
			f.Add("assignedTo", "unknown user")
		}
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	c := cloneJob(j)
	c.ID = s.id()
	s.jobs[c.ID] = c
	return cloneJob(c), nil
}

func (s *Store) GetJob(ctx context.Context, id int64) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityJob, id)
	}
	return cloneJob(j), nil
}

func (s *Store) GetJobByRef(ctx context.Context, ref string) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range s.jobs {
		if j.JobID == ref {
			return cloneJob(j), nil
		}
	}
	return nil, apperr.NotFound(models.EntityJob, ref)
}

func (s *Store) ListJobs(ctx context.Context, f models.JobFilter) ([]*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		if f.CustomerID != nil && j.CustomerID != *f.CustomerID {
			continue
		}
		if f.Status != nil && j.Status != *f.Status {
			continue
		}
		if f.AssignedTo != nil && (j.AssignedTo == nil || *j.AssignedTo != *f.AssignedTo) {
			continue
		}
		out = append(out, cloneJob(j))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (s *Store) SetJobStatus(ctx context.Context, id int64, from, to models.JobStatus, completedAt *time.Time, now time.Time) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityJob, id)
	}
	if j.Status != from {
		return nil, apperr.InvalidState(models.EntityJob, id, "job %d changed concurrently, status is now %s", id, j.Status)
	}
	j.Status = to
	j.CompletedAt = clonePtr(completedAt)
	j.UpdatedAt = now
	return cloneJob(j), nil
}

func (s *Store) UpdateJob(ctx context.Context, id int64, p models.JobPatch, now time.Time) (*models.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityJob, id)
	}
	if p.AssignedTo != nil {
		if _, ok := s.users[*p.AssignedTo]; !ok {
			return nil, apperr.Validation(map[string]string{"assignedTo": "unknown user"})
		}
		j.AssignedTo = clonePtr(p.AssignedTo)
	}
	if p.ClearAssignee {
		j.AssignedTo = nil
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.EstimatedHours != nil {
		j.EstimatedHours = clonePtr(p.EstimatedHours)
	}
	if p.ActualHours != nil {
		j.ActualHours = clonePtr(p.ActualHours)
	}
	if p.CustomerNotified != nil {
		j.CustomerNotified = *p.CustomerNotified
	}
	j.UpdatedAt = now
	return cloneJob(j), nil
}

func (s *Store) AddJobUpdate(ctx context.Context, u *models.JobUpdate) (*models.JobUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailJobUpdates != nil {
		return nil, s.FailJobUpdates
	}
	if _, ok := s.jobs[u.JobID]; !ok {
		return nil, apperr.NotFound(models.EntityJob, u.JobID)
	}
	c := *u
	c.CreatedBy = clonePtr(u.CreatedBy)
	c.ID = s.id()
	s.jobUpdates[c.ID] = &c
	out := c
	return &out, nil
}

// ListJobUpdates returns updates oldest first.
func (s *Store) ListJobUpdates(ctx context.Context, jobID int64, publicOnly bool) ([]*models.JobUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.JobUpdate
	for _, u := range s.jobUpdates {
		if u.JobID != jobID || (publicOnly && !u.IsPublic) {
			continue
		}
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (s *Store) AddService(ctx context.Context, sv *models.Service) (*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[sv.JobID]; !ok {
		return nil, apperr.NotFound(models.EntityJob, sv.JobID)
	}
	c := *sv
	c.Hours = clonePtr(sv.Hours)
	c.ID = s.id()
	s.services[c.ID] = &c
	out := c
	return &out, nil
}

func (s *Store) ListServices(ctx context.Context, jobID int64) ([]*models.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Service
	for _, sv := range s.services {
		if sv.JobID != jobID {
			continue
		}
		c := *sv
		out = append(out, &c)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}
