package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusNotOrdered OrderStatus = "not_ordered"
	OrderStatusOrdered    OrderStatus = "ordered"
	OrderStatusArrived    OrderStatus = "arrived"
	OrderStatusCompleted  OrderStatus = "completed"
)

func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusNotOrdered, OrderStatusOrdered, OrderStatusArrived, OrderStatusCompleted:
		return true
	}
	return false
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	return st, st.IsValid()
}

type Order struct {
	ID                int64            `json:"id"`
	OrderNumber       string           `json:"orderNumber"`
	CustomerID        *int64           `json:"customerId,omitempty"`
	CustomerName      string           `json:"customerName"`
	CustomerEmail     string           `json:"customerEmail"`
	CustomerPhone     string           `json:"customerPhone"`
	Supplier          string           `json:"supplier"`
	SupplierReference string           `json:"supplierReference"`
	Status            OrderStatus      `json:"status"`
	EstimatedCost     *decimal.Decimal `json:"estimatedCost,omitempty"`
	ActualCost        *decimal.Decimal `json:"actualCost,omitempty"`
	Deposit           *decimal.Decimal `json:"deposit,omitempty"`
	NotifyCustomer    bool             `json:"notifyCustomer"`
	NotifyOnArrival   bool             `json:"notifyOnArrival"`
	Notes             string           `json:"notes"`
	CreatedAt         time.Time        `json:"createdAt"`
	UpdatedAt         time.Time        `json:"updatedAt"`
	Items             []OrderItem      `json:"items"`
}

// DisplayTotal prefers the actual cost over the estimate.
func (o Order) DisplayTotal() *decimal.Decimal {
	if o.ActualCost != nil {
		return o.ActualCost
	}
	return o.EstimatedCost
}

type OrderItem struct {
	ID          int64            `json:"id"`
	OrderID     int64            `json:"orderId"`
	Name        string           `json:"name"`
	PartNumber  string           `json:"partNumber"`
	Quantity    int              `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unitPrice,omitempty"`
	PriceExVAT  *decimal.Decimal `json:"priceExVat,omitempty"`
	PriceIncVAT *decimal.Decimal `json:"priceIncVat,omitempty"`
	TotalPrice  *decimal.Decimal `json:"totalPrice,omitempty"`
}

// PriceLabel renders the item price the way staff see it on an order:
// both VAT variants together when both are known, otherwise whichever price exists.
func (it OrderItem) PriceLabel() string {
	switch {
	case it.PriceExVAT != nil && it.PriceIncVAT != nil:
		return it.PriceExVAT.StringFixed(2) + " ex VAT / " + it.PriceIncVAT.StringFixed(2) + " inc VAT"
	case it.PriceExVAT != nil:
		return it.PriceExVAT.StringFixed(2) + " ex VAT"
	case it.PriceIncVAT != nil:
		return it.PriceIncVAT.StringFixed(2) + " inc VAT"
	case it.UnitPrice != nil:
		return it.UnitPrice.StringFixed(2)
	}
	return ""
}

type OrderFilter struct {
	CustomerID *int64
	Status     *OrderStatus
}

type OrderCreateInput struct {
	CustomerID        *int64
	CustomerName      string
	CustomerEmail     string
	CustomerPhone     string
	Supplier          string
	SupplierReference string
	EstimatedCost     *decimal.Decimal
	Deposit           *decimal.Decimal
	NotifyCustomer    bool
	NotifyOnArrival   bool
	Notes             string
	Items             []OrderItem
}
