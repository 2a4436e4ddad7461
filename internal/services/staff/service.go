package staff

import (
	"context"
	"net/mail"
	"strings"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
)

type Repository interface {
	CreateUser(ctx context.Context, u *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	SetNotifyOnAssignment(ctx context.Context, id int64, enabled *bool) (*models.User, error)
}

type Service struct {
	repo Repository
}

func New(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateUser(ctx context.Context, u models.User) (*models.User, error) {
	f := apperr.Fields{}
	f.Require("username", u.Username)
	f.Require("fullName", u.FullName)
	if e := strings.TrimSpace(u.Email); e != "" {
		if _, err := mail.ParseAddress(e); err != nil {
			f.Add("email", "is not a valid address")
		}
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	if u.Role == "" {
		u.Role = "staff"
	}
	u.ID = 0
	u.Username = strings.TrimSpace(u.Username)
	u.Email = strings.TrimSpace(u.Email)
	return s.repo.CreateUser(ctx, &u)
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.ListUsers(ctx)
}

// SetNotifyOnAssignment stores the assignment notification preference.
// nil resets it to the default, which is enabled.
func (s *Service) SetNotifyOnAssignment(ctx context.Context, id int64, enabled *bool) (*models.User, error) {
	return s.repo.SetNotifyOnAssignment(ctx, id, enabled)
}
