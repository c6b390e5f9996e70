package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BudgetStatus string

const (
	BudgetStatusDraft    BudgetStatus = "draft"
	BudgetStatusSent     BudgetStatus = "sent"
	BudgetStatusApproved BudgetStatus = "approved"
	BudgetStatusRejected BudgetStatus = "rejected"
	BudgetStatusExpired  BudgetStatus = "expired"
)

type Budget struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetNumber  string          `gorm:"size:32;not null;uniqueIndex:uq_budgets_number" json:"budget_number"`
	ClientID      *uuid.UUID      `gorm:"type:uuid;index" json:"client_id,omitempty"`
	ClientName    string          `gorm:"size:255" json:"client_name"`
	ClientContact string          `gorm:"size:255" json:"client_contact"`
	ClientAddress string          `gorm:"type:text" json:"client_address"`
	Description   string          `gorm:"type:text" json:"description"`
	Status        BudgetStatus    `gorm:"size:16;not null;index" json:"status"`
	ValidUntil    *time.Time      `json:"valid_until,omitempty"`
	TotalValue    decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_value"`
	DocumentURL   string          `gorm:"type:text" json:"document_url,omitempty"`
	CreatedBy     uuid.UUID       `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []BudgetItem    `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"items"`
}

func (Budget) TableName() string {
	return "budgets"
}

func (b *Budget) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type BudgetItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Position    int             `gorm:"not null" json:"-"`
	ServiceName string          `gorm:"size:255;not null" json:"service_name"`
	Description string          `gorm:"type:text" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"unit_price"`
	TotalPrice  decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"total_price"`
}

func (BudgetItem) TableName() string {
	return "budget_items"
}

func (i *BudgetItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// LineTotal is rounded to cents so the stored line totals add up to the
// stored budget total.
func LineTotal(quantity, unitPrice decimal.Decimal) decimal.Decimal {
	return quantity.Mul(unitPrice).Round(2)
}

// BudgetTotal recomputes every line total in place and returns their sum.
func BudgetTotal(items []BudgetItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		items[i].TotalPrice = LineTotal(items[i].Quantity, items[i].UnitPrice)
		total = total.Add(items[i].TotalPrice)
	}
	return total
}
