package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderCall is raised when an order is put on hold and stays open until a
// manager resolves it.
type OrderCall struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceOrderID uuid.UUID  `gorm:"type:uuid;not null;index" json:"service_order_id"`
	Reason         string     `gorm:"type:text;not null" json:"reason"`
	Resolved       bool       `gorm:"not null;default:false;index" json:"resolved"`
	OpenedBy       uuid.UUID  `gorm:"type:uuid;not null" json:"opened_by"`
	ResolvedBy     *uuid.UUID `gorm:"type:uuid" json:"resolved_by,omitempty"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (OrderCall) TableName() string {
	return "service_order_calls"
}

func (c *OrderCall) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
