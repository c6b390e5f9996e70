package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice is an immutable billing snapshot. Order values are copied at
// creation and never re-read from the orders afterwards.
type Invoice struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID       *uuid.UUID      `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ClientName     string          `gorm:"size:255;not null" json:"client_name"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"not null" json:"end_date"`
	TotalValue     decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_value"`
	TotalTime      float64         `gorm:"not null" json:"total_time"`
	DocumentURL    string          `gorm:"type:text" json:"document_url,omitempty"`
	PublishPending bool            `gorm:"not null;default:false;index" json:"publish_pending"`
	CreatedBy      uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
	Orders         []InvoiceOrder  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"orders"`
	Extras         []InvoiceExtra  `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"extras"`
}

func (Invoice) TableName() string {
	return "invoices"
}

func (i *Invoice) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

type InvoiceOrder struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	InvoiceID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position       int             `gorm:"not null" json:"-"`
	ServiceOrderID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_invoice_orders_order" json:"id"`
	OrderNumber    string          `gorm:"size:32;not null" json:"order_number"`
	SaleValue      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"sale_value"`
	TotalHours     float64         `gorm:"not null" json:"total_hours"`
}

func (InvoiceOrder) TableName() string {
	return "invoice_orders"
}

func (o *InvoiceOrder) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type InvoiceExtra struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"-"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position    int             `gorm:"not null" json:"-"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Value       decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"value"`
}

func (InvoiceExtra) TableName() string {
	return "invoice_extras"
}

func (e *InvoiceExtra) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// InvoiceTotals returns Σ sale values + Σ extras and Σ hours.
func InvoiceTotals(orders []InvoiceOrder, extras []InvoiceExtra) (decimal.Decimal, float64) {
	value := decimal.Zero
	hours := 0.0
	for _, order := range orders {
		value = value.Add(order.SaleValue)
		hours += order.TotalHours
	}
	for _, extra := range extras {
		value = value.Add(extra.Value)
	}
	return value, hours
}
