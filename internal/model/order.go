package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusReceived             OrderStatus = "received"
	OrderStatusPending              OrderStatus = "pending"
	OrderStatusPlanning             OrderStatus = "planning"
	OrderStatusProduction           OrderStatus = "production"
	OrderStatusQualityControl       OrderStatus = "quality_control"
	OrderStatusReadyForShipment     OrderStatus = "ready_for_shipment"
	OrderStatusReadyForPickup       OrderStatus = "ready_for_pickup"
	OrderStatusInTransit            OrderStatus = "in_transit"
	OrderStatusAwaitingInstallation OrderStatus = "awaiting_installation"
	OrderStatusDelivered            OrderStatus = "delivered"
	OrderStatusInvoiced             OrderStatus = "invoiced"
	OrderStatusToInvoice            OrderStatus = "to_invoice"
	OrderStatusCompleted            OrderStatus = "completed"
	OrderStatusCancelled            OrderStatus = "cancelled"
	OrderStatusOnHold               OrderStatus = "on_hold"
	OrderStatusStopped              OrderStatus = "stopped"
)

var AllOrderStatuses = []OrderStatus{
	OrderStatusReceived,
	OrderStatusPending,
	OrderStatusPlanning,
	OrderStatusProduction,
	OrderStatusQualityControl,
	OrderStatusReadyForShipment,
	OrderStatusReadyForPickup,
	OrderStatusInTransit,
	OrderStatusAwaitingInstallation,
	OrderStatusDelivered,
	OrderStatusInvoiced,
	OrderStatusToInvoice,
	OrderStatusCompleted,
	OrderStatusCancelled,
	OrderStatusOnHold,
	OrderStatusStopped,
}

func (s OrderStatus) Valid() bool {
	for _, status := range AllOrderStatuses {
		if status == s {
			return true
		}
	}
	return false
}

// IsClosed reports the terminal states. Delivered orders can still be invoiced.
func (s OrderStatus) IsClosed() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusInvoiced, OrderStatusCompleted, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

func (u Urgency) Valid() bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

type ServiceOrder struct {
	ID                 uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber        string              `gorm:"size:32;not null;uniqueIndex:uq_service_orders_number" json:"order_number"`
	OpeningDate        time.Time           `gorm:"not null" json:"opening_date"`
	ClientID           *uuid.UUID          `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ClientName         string              `gorm:"size:255" json:"client_name"`
	ClientContact      string              `gorm:"size:255" json:"client_contact"`
	ClientAddress      string              `gorm:"type:text" json:"client_address"`
	ServiceDescription string              `gorm:"type:text" json:"service_description"`
	SaleValue          decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"sale_value"`
	Status             OrderStatus         `gorm:"size:32;not null;index" json:"status"`
	Urgency            Urgency             `gorm:"size:16;not null" json:"urgency"`
	AssignedWorkerID   *uuid.UUID          `gorm:"type:uuid" json:"assigned_worker_id,omitempty"`
	Deadline           *time.Time          `json:"deadline,omitempty"`
	ServiceStartDate   *time.Time          `json:"service_start_date,omitempty"`
	ServiceEndDate     *time.Time          `json:"service_end_date,omitempty"`
	InvoiceID          *uuid.UUID          `gorm:"type:uuid;index" json:"invoice_id,omitempty"`
	HeldFromStatus     *OrderStatus        `gorm:"size:32" json:"held_from_status,omitempty"`
	CreatedBy          uuid.UUID           `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (ServiceOrder) TableName() string {
	return "service_orders"
}

func (o *ServiceOrder) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// SaleValueOrZero returns the sale value, treating an unset value as zero.
func (o ServiceOrder) SaleValueOrZero() decimal.Decimal {
	if !o.SaleValue.Valid {
		return decimal.Zero
	}
	return o.SaleValue.Decimal
}

// BillingWindow is the span of work attributed to the order: service start
// (or opening date) through service end (or now).
func (o ServiceOrder) BillingWindow(now time.Time) (time.Time, time.Time) {
	start := o.OpeningDate
	if o.ServiceStartDate != nil {
		start = *o.ServiceStartDate
	}
	end := now
	if o.ServiceEndDate != nil {
		end = *o.ServiceEndDate
	}
	return start, end
}
