package analytics

import (
	"context"

	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
)

type Repository interface {
	ListJobs(ctx context.Context, f models.JobFilter) ([]*models.Job, error)
	ListTasks(ctx context.Context, f models.TaskFilter) ([]*models.Task, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	ListEquipment(ctx context.Context, customerID *int64) ([]*models.Equipment, error)
	ListCallbacks(ctx context.Context, f models.CallbackFilter) ([]*models.CallbackRequest, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// Service loads the collections and hands them to the pure rollups.
// Nothing is cached; every call recomputes from the store.
type Service struct {
	repo  Repository
	clock clock.Clock
}

func New(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	jobs, err := s.repo.ListJobs(ctx, models.JobFilter{})
	if err != nil {
		return Summary{}, err
	}
	tasks, err := s.repo.ListTasks(ctx, models.TaskFilter{})
	if err != nil {
		return Summary{}, err
	}
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return Summary{}, err
	}
	equipment, err := s.repo.ListEquipment(ctx, nil)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(SummaryInput{Jobs: jobs, Tasks: tasks, Customers: customers, Equipment: equipment}, s.clock.Now()), nil
}

func (s *Service) CallbackSummary(ctx context.Context, r DateRange) (CallbackSummary, error) {
	callbacks, err := s.repo.ListCallbacks(ctx, models.CallbackFilter{})
	if err != nil {
		return CallbackSummary{}, err
	}
	staff, err := s.repo.ListUsers(ctx)
	if err != nil {
		return CallbackSummary{}, err
	}
	return SummarizeCallbacks(callbacks, staff, r, s.clock.Now()), nil
}
