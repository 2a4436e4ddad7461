package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/metrics"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error)
	SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus, actualCost *decimal.Decimal, now time.Time) (*models.Order, error)
}

type Service struct {
	repo  Repository
	clock clock.Clock
}

func New(repo Repository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

func (s *Service) CreateOrder(ctx context.Context, in models.OrderCreateInput) (*models.Order, error) {
	f := apperr.Fields{}
	f.Require("customerName", in.CustomerName)
	f.Require("supplier", in.Supplier)
	if negative(in.EstimatedCost) {
		f.Add("estimatedCost", "must not be negative")
	}
	if negative(in.Deposit) {
		f.Add("deposit", "must not be negative")
	}
	for i, it := range in.Items {
		if strings.TrimSpace(it.Name) == "" {
			f.Add(fmt.Sprintf("items[%d].name", i), "is required")
		}
		if it.Quantity <= 0 {
			f.Add(fmt.Sprintf("items[%d].quantity", i), "must be positive")
		}
		if negative(it.UnitPrice) || negative(it.PriceExVAT) || negative(it.PriceIncVAT) || negative(it.TotalPrice) {
			f.Add(fmt.Sprintf("items[%d].price", i), "must not be negative")
		}
	}
	if err := f.Err(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		it.ID = 0
		if it.TotalPrice == nil && it.UnitPrice != nil {
			total := it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
			it.TotalPrice = &total
		}
		items = append(items, it)
	}

	return s.repo.CreateOrder(ctx, &models.Order{
		OrderNumber:       newOrderNumber(now),
		CustomerID:        in.CustomerID,
		CustomerName:      strings.TrimSpace(in.CustomerName),
		CustomerEmail:     strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:     strings.TrimSpace(in.CustomerPhone),
		Supplier:          strings.TrimSpace(in.Supplier),
		SupplierReference: in.SupplierReference,
		Status:            models.OrderStatusNotOrdered,
		EstimatedCost:     in.EstimatedCost,
		Deposit:           in.Deposit,
		NotifyCustomer:    in.NotifyCustomer,
		NotifyOnArrival:   in.NotifyOnArrival,
		Notes:             in.Notes,
		CreatedAt:         now,
		UpdatedAt:         now,
		Items:             items,
	})
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

func (s *Service) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	if f.Status != nil && !f.Status.IsValid() {
		return nil, apperr.Validation(map[string]string{"status": "unknown order status"})
	}
	return s.repo.ListOrders(ctx, f)
}

// SetOrderStatus updates the order status. Orders have no workflow; any
// status may follow any other.
func (s *Service) SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus, actualCost *decimal.Decimal) (*models.Order, error) {
	f := apperr.Fields{}
	if !status.IsValid() {
		f.Add("status", "must be one of not_ordered, ordered, arrived, completed")
	}
	if negative(actualCost) {
		f.Add("actualCost", "must not be negative")
	}
	if err := f.Err(); err != nil {
		return nil, err
	}
	o, err := s.repo.SetOrderStatus(ctx, id, status, actualCost, s.clock.Now())
	if err != nil {
		return nil, err
	}
	metrics.ObserveTransition(models.EntityOrder, string(status))
	return o, nil
}

func negative(d *decimal.Decimal) bool {
	return d != nil && d.IsNegative()
}

func newOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), suffix)
}
