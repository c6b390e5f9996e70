package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

type InvoiceFilter struct {
	ClientID *uuid.UUID
	Limit    int
	Offset   int
}

// CreateInvoice inserts the invoice with its order snapshots and extras.
func (r *Repository) CreateInvoice(ctx context.Context, invoice *model.Invoice) error {
	for i := range invoice.Orders {
		invoice.Orders[i].Position = i
	}
	for i := range invoice.Extras {
		invoice.Extras[i].Position = i
	}
	return r.db.WithContext(ctx).Create(invoice).Error
}

func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Orders", orderByPosition).
		Preload("Extras", orderByPosition).
		Where("id = ?", id).
		First(&invoice).Error
	if err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *Repository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, error) {
	query := r.db.WithContext(ctx).
		Preload("Orders", orderByPosition).
		Preload("Extras", orderByPosition)
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var invoices []model.Invoice
	if err := query.Order("created_at DESC").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListPendingPublication returns invoices whose document was never published.
func (r *Repository) ListPendingPublication(ctx context.Context, limit int) ([]model.Invoice, error) {
	var invoices []model.Invoice
	err := r.db.WithContext(ctx).
		Preload("Orders", orderByPosition).
		Preload("Extras", orderByPosition).
		Where("publish_pending = ?", true).
		Order("created_at ASC").
		Limit(limit).
		Find(&invoices).Error
	if err != nil {
		return nil, err
	}
	return invoices, nil
}

// SetInvoiceDocument records the published document and clears the pending
// marker. Financial columns are never touched.
func (r *Repository) SetInvoiceDocument(ctx context.Context, id uuid.UUID, url string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"document_url":    url,
			"publish_pending": false,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}
