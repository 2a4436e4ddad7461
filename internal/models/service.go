package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Service is a labour line billed on a job.
type Service struct {
	ID          int64           `json:"id"`
	JobID       int64           `json:"jobId"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Hours       *float64        `json:"hours,omitempty"`
	Price       decimal.Decimal `json:"price"`
	CreatedAt   time.Time       `json:"createdAt"`
}
