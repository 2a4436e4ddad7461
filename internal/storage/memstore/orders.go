package memstore

import (
	"context"
	"sort"
	"time"

	"github.com/BearBump/WorkshopBox/internal/apperr"
	"github.com/BearBump/WorkshopBox/internal/models"
	"github.com/shopspring/decimal"
)

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.CustomerID = clonePtr(o.CustomerID)
	c.EstimatedCost = clonePtr(o.EstimatedCost)
	c.ActualCost = clonePtr(o.ActualCost)
	c.Deposit = clonePtr(o.Deposit)
	c.Items = make([]models.OrderItem, len(o.Items))
	copy(c.Items, o.Items)
	return &c
}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o.CustomerID != nil {
		if _, ok := s.customers[*o.CustomerID]; !ok {
			return nil, apperr.Validation(map[string]string{"customerId": "unknown customer"})
		}
	}
	c := cloneOrder(o)
	c.ID = s.id()
	for i := range c.Items {
		c.Items[i].ID = s.id()
		c.Items[i].OrderID = c.ID
	}
	s.orders[c.ID] = c
	return cloneOrder(c), nil
}

func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityOrder, id)
	}
	return cloneOrder(o), nil
}

func (s *Store) GetOrderByNumber(ctx context.Context, number string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.OrderNumber == number {
			return cloneOrder(o), nil
		}
	}
	return nil, apperr.NotFound(models.EntityOrder, number)
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*models.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if f.CustomerID != nil && (o.CustomerID == nil || *o.CustomerID != *f.CustomerID) {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (s *Store) SetOrderStatus(ctx context.Context, id int64, status models.OrderStatus, actualCost *decimal.Decimal, now time.Time) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, apperr.NotFound(models.EntityOrder, id)
	}
	o.Status = status
	if actualCost != nil {
		o.ActualCost = clonePtr(actualCost)
	}
	o.UpdatedAt = now
	return cloneOrder(o), nil
}
