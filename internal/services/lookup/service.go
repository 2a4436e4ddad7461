// Package lookup serves the read-only customer-facing status pages. A lookup
// succeeds only when the reference and the customer's email both match; any
// mismatch looks exactly like an unknown reference.
package lookup

import (
	"context"
	"strings"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
)

type Repository interface {
	GetJobByRef(ctx context.Context, ref string) (*models.Job, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListJobUpdates(ctx context.Context, jobID int64, publicOnly bool) ([]*models.JobUpdate, error)
	GetOrderByNumber(ctx context.Context, number string) (*models.Order, error)
}

type PublicUpdate struct {
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"createdAt"`
}

type JobStatus struct {
	JobID       string           `json:"jobId"`
	Status      models.JobStatus `json:"status"`
	Description string           `json:"description"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	Updates     []PublicUpdate   `json:"updates"`
}

type OrderStatus struct {
	OrderNumber string             `json:"orderNumber"`
	Status      models.OrderStatus `json:"status"`
	Supplier    string             `json:"supplier"`
	ItemCount   int                `json:"itemCount"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) LookupJob(ctx context.Context, ref, email string) (*JobStatus, error) {
	ref = strings.TrimSpace(ref)
	if err := validate("jobId", ref, email); err != nil {
		return nil, err
	}

	job, err := s.repo.GetJobByRef(ctx, ref)
	if err != nil {
		return nil, err
	}
	c, err := s.repo.GetCustomer(ctx, job.CustomerID)
	if err != nil {
		if apperr.IsNotFound(err) {
			return nil, apperr.NotFound(models.EntityJob, ref)
		}
		return nil, err
	}
	if !sameEmail(c.Email, email) {
		return nil, apperr.NotFound(models.EntityJob, ref)
	}

	updates, err := s.repo.ListJobUpdates(ctx, job.ID, true)
	if err != nil {
		return nil, err
	}
	out := &JobStatus{
		JobID:       job.JobID,
		Status:      job.Status,
		Description: job.Description,
		CreatedAt:   job.CreatedAt,
		CompletedAt: job.CompletedAt,
		Updates:     make([]PublicUpdate, 0, len(updates)),
	}
	for _, u := range updates {
		if !u.IsPublic {
			continue
		}
		out.Updates = append(out.Updates, PublicUpdate{Note: u.Note, CreatedAt: u.CreatedAt})
	}
	return out, nil
}

func (s *Service) LookupOrder(ctx context.Context, number, email string) (*OrderStatus, error) {
	number = strings.TrimSpace(number)
	if err := validate("orderNumber", number, email); err != nil {
		return nil, err
	}

	o, err := s.repo.GetOrderByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	contact := o.CustomerEmail
	if contact == "" && o.CustomerID != nil {
		c, err := s.repo.GetCustomer(ctx, *o.CustomerID)
		if err != nil && !apperr.IsNotFound(err) {
			return nil, err
		}
		if c != nil {
			contact = c.Email
		}
	}
	if !sameEmail(contact, email) {
		return nil, apperr.NotFound(models.EntityOrder, number)
	}

	return &OrderStatus{
		OrderNumber: o.OrderNumber,
		Status:      o.Status,
		Supplier:    o.Supplier,
		ItemCount:   len(o.Items),
		UpdatedAt:   o.UpdatedAt,
	}, nil
}

func validate(refField, ref, email string) error {
	f := apperr.Fields{}
	f.Require(refField, ref)
	f.Require("email", email)
	return f.Err()
}

func sameEmail(stored, given string) bool {
	stored = strings.TrimSpace(stored)
	return stored != "" && strings.EqualFold(stored, strings.TrimSpace(given))
}
