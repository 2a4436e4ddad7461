package customers

import (
	"context"
	"net/mail"
	"strings"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/models"
)

type Repository interface {
	CreateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	ListCustomers(ctx context.Context) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, c *models.Customer) (*models.Customer, error)

	CreateEquipmentType(ctx context.Context, name string) (*models.EquipmentType, error)
	ListEquipmentTypes(ctx context.Context) ([]*models.EquipmentType, error)
	CreateEquipment(ctx context.Context, e *models.Equipment) (*models.Equipment, error)
	GetEquipment(ctx context.Context, id int64) (*models.Equipment, error)
	ListEquipment(ctx context.Context, customerID *int64) ([]*models.Equipment, error)
}

type Service struct {
	repo  Repository
	clock clock.Clock
}

func New(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

func (s *Service) CreateCustomer(ctx context.Context, c models.Customer) (*models.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	c.ID = 0
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.CreatedAt = s.clock.Now()
	return s.repo.CreateCustomer(ctx, &c)
}

func (s *Service) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

func (s *Service) ListCustomers(ctx context.Context) ([]*models.Customer, error) {
	return s.repo.ListCustomers(ctx)
}

func (s *Service) UpdateCustomer(ctx context.Context, id int64, c models.Customer) (*models.Customer, error) {
	if err := validateCustomer(c); err != nil {
		return nil, err
	}
	cur, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	c.ID = cur.ID
	c.CreatedAt = cur.CreatedAt
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	return s.repo.UpdateCustomer(ctx, &c)
}

func validateCustomer(c models.Customer) error {
	f := apperr.Fields{}
	f.Require("name", c.Name)
	if e := strings.TrimSpace(c.Email); e != "" {
		if _, err := mail.ParseAddress(e); err != nil {
			f.Add("email", "is not a valid address")
		}
	}
	return f.Err()
}

func (s *Service) CreateEquipmentType(ctx context.Context, name string) (*models.EquipmentType, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.Validation(map[string]string{"name": "is required"})
	}
	return s.repo.CreateEquipmentType(ctx, strings.TrimSpace(name))
}

func (s *Service) ListEquipmentTypes(ctx context.Context) ([]*models.EquipmentType, error) {
	return s.repo.ListEquipmentTypes(ctx)
}

func (s *Service) CreateEquipment(ctx context.Context, e models.Equipment) (*models.Equipment, error) {
	f := apperr.Fields{}
	if e.CustomerID <= 0 {
		f.Add("customerId", "is required")
	}
	if strings.TrimSpace(e.Make) == "" && strings.TrimSpace(e.Model) == "" {
		f.Add("model", "make or model is required")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetCustomer(ctx, e.CustomerID); err != nil {
		return nil, err
	}
	e.ID = 0
	e.TypeName = ""
	e.CreatedAt = s.clock.Now()
	return s.repo.CreateEquipment(ctx, &e)
}

func (s *Service) GetEquipment(ctx context.Context, id int64) (*models.Equipment, error) {
	return s.repo.GetEquipment(ctx, id)
}

func (s *Service) ListEquipment(ctx context.Context, customerID *int64) ([]*models.Equipment, error) {
	return s.repo.ListEquipment(ctx, customerID)
}
