// Package memstore is an in-memory implementation of every service repository.
// It is a test double: it mirrors the Postgres store's observable behavior
// (not-found errors, conditional writes, foreign keys) and is never wired
// into a binary.
package memstore

import (
	"context"
	"sync"

	"github.com/BearBump/WorkshopBox/internal/models"
)

type Store struct {
	mu     sync.Mutex
	nextID int64

	users          map[int64]*models.User
	customers      map[int64]*models.Customer
	equipmentTypes map[int64]*models.EquipmentType
	equipment      map[int64]*models.Equipment
	jobs           map[int64]*models.Job
	jobUpdates     map[int64]*models.JobUpdate
	services       map[int64]*models.Service
	tasks          map[int64]*models.Task
	callbacks      map[int64]*models.CallbackRequest
	orders         map[int64]*models.Order
	activities     []*models.Activity

	// FailActivities makes AddActivity fail, for exercising best-effort paths.
	FailActivities error
	// FailJobUpdates makes AddJobUpdate fail.
	FailJobUpdates error
}

func New() *Store {
	return &Store{
		users:          map[int64]*models.User{},
		customers:      map[int64]*models.Customer{},
		equipmentTypes: map[int64]*models.EquipmentType{},
		equipment:      map[int64]*models.Equipment{},
		jobs:           map[int64]*models.Job{},
		jobUpdates:     map[int64]*models.JobUpdate{},
		services:       map[int64]*models.Service{},
		tasks:          map[int64]*models.Task{},
		callbacks:      map[int64]*models.CallbackRequest{},
		orders:         map[int64]*models.Order{},
	}
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
