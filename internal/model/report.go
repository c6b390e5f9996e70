package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderHours struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber string          `json:"order_number"`
	ClientName  string          `json:"client_name"`
	Status      OrderStatus     `json:"status"`
	SaleValue   decimal.Decimal `json:"sale_value"`
	TaskCount   int64           `json:"task_count"`
	Hours       float64         `json:"hours"`
	Workers     []WorkerHours   `gorm:"-" json:"workers"`
}

type WorkerHours struct {
	WorkerID uuid.UUID `json:"worker_id"`
	LogCount int64     `json:"log_count"`
	Hours    float64   `json:"hours"`
}

type HoursReport struct {
	PeriodStart time.Time     `json:"period_start"`
	PeriodEnd   time.Time     `json:"period_end"`
	TotalHours  float64       `json:"total_hours"`
	Orders      []OrderHours  `json:"orders"`
	Workers     []WorkerHours `json:"workers"`
}
