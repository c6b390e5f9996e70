package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementType string

const (
	MovementIn  MovementType = "in"
	MovementOut MovementType = "out"
)

type InventoryItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Unit            string          `gorm:"size:16" json:"unit"`
	CurrentQuantity decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"current_quantity"`
	MinimumQuantity decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"minimum_quantity"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (InventoryItem) TableName() string {
	return "inventory_items"
}

func (i *InventoryItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (i InventoryItem) BelowMinimum() bool {
	return i.CurrentQuantity.LessThan(i.MinimumQuantity)
}

type InventoryMovement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ItemID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Type           MovementType    `gorm:"size:8;not null" json:"type"`
	Quantity       decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	ServiceOrderID *uuid.UUID      `gorm:"type:uuid;index" json:"service_order_id,omitempty"`
	TaskID         *uuid.UUID      `gorm:"type:uuid" json:"task_id,omitempty"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null" json:"user_id"`
	Notes          string          `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (InventoryMovement) TableName() string {
	return "inventory_movements"
}

func (m *InventoryMovement) BeforeCreate(_ *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type TaskProductUsage struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"task_id"`
	ItemID     uuid.UUID       `gorm:"type:uuid;not null" json:"item_id"`
	Quantity   decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	RecordedBy uuid.UUID       `gorm:"type:uuid;not null" json:"recorded_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (TaskProductUsage) TableName() string {
	return "task_product_usage"
}

func (u *TaskProductUsage) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
