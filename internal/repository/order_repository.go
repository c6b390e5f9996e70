package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/rms-service-orders/internal/model"
)

type OrderFilter struct {
	Status   *model.OrderStatus
	ClientID *uuid.UUID
	Search   string
	Limit    int
	Offset   int
}

func (r *Repository) CreateOrder(ctx context.Context, order *model.ServiceOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	var order model.ServiceOrder
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// LockOrder reads the order with a row lock held until the transaction ends.
func (r *Repository) LockOrder(ctx context.Context, id uuid.UUID) (*model.ServiceOrder, error) {
	var order model.ServiceOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListOrders(ctx context.Context, filter OrderFilter) ([]model.ServiceOrder, error) {
	query := r.db.WithContext(ctx).Model(&model.ServiceOrder{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(order_number) LIKE ? OR LOWER(client_name) LIKE ?", pattern, pattern)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var orders []model.ServiceOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateOrderFields writes the given columns. Status is never part of fields;
// use TransitionOrder for that.
func (r *Repository) UpdateOrderFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.ServiceOrder{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// TransitionOrder moves the order from one status to another only if it is
// still in the expected status. It reports whether the row was updated.
func (r *Repository) TransitionOrder(
	ctx context.Context,
	id uuid.UUID,
	from, to model.OrderStatus,
	extra map[string]interface{},
) (bool, error) {
	fields := map[string]interface{}{"status": to}
	for key, value := range extra {
		fields[key] = value
	}
	res := r.db.WithContext(ctx).
		Model(&model.ServiceOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListInvoiceCandidates returns the client's orders that were never invoiced
// and are in one of the given statuses, locked for the current transaction.
func (r *Repository) ListInvoiceCandidates(
	ctx context.Context,
	clientID uuid.UUID,
	statuses []model.OrderStatus,
) ([]model.ServiceOrder, error) {
	var orders []model.ServiceOrder
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("client_id = ? AND invoice_id IS NULL AND status IN ?", clientID, statuses).
		Order("opening_date ASC, order_number ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// MarkOrderInvoiced flips one order to invoiced unless another invoice got it
// first.
func (r *Repository) MarkOrderInvoiced(
	ctx context.Context,
	id uuid.UUID,
	from model.OrderStatus,
	invoiceID uuid.UUID,
) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ServiceOrder{}).
		Where("id = ? AND status = ? AND invoice_id IS NULL", id, from).
		Updates(map[string]interface{}{
			"status":     model.OrderStatusInvoiced,
			"invoice_id": invoiceID,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteOrder removes an uninvoiced order with its tasks, logs, usage rows
// and calls.
func (r *Repository) DeleteOrder(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&model.ServiceOrderTask{}).Select("id").Where("service_order_id = ?", id)
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&model.TaskTimeLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", taskIDs).Delete(&model.TaskProductUsage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("service_order_id = ?", id).Delete(&model.ServiceOrderTask{}).Error; err != nil {
			return err
		}
		if err := tx.Where("service_order_id = ?", id).Delete(&model.OrderCall{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ? AND invoice_id IS NULL", id).Delete(&model.ServiceOrder{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected == 1
		if !deleted {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return deleted, nil
}
