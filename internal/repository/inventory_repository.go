package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func (r *Repository) CreateInventoryItem(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) GetInventoryItem(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) ListInventoryItems(ctx context.Context) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// DecrementStock takes qty out of the item only when enough is on hand.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryItem{}).
		Where("id = ? AND current_quantity >= ?", id, qty).
		UpdateColumn("current_quantity", gorm.Expr("current_quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty decimal.Decimal) error {
	res := r.db.WithContext(ctx).
		Model(&model.InventoryItem{}).
		Where("id = ?", id).
		UpdateColumn("current_quantity", gorm.Expr("current_quantity + ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) CreateInventoryMovement(ctx context.Context, movement *model.InventoryMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *Repository) CreateTaskProductUsage(ctx context.Context, usage *model.TaskProductUsage) error {
	return r.db.WithContext(ctx).Create(usage).Error
}

func (r *Repository) ListTaskProductUsage(ctx context.Context, taskID uuid.UUID) ([]model.TaskProductUsage, error) {
	var usage []model.TaskProductUsage
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("created_at ASC").
		Find(&usage).Error
	if err != nil {
		return nil, err
	}
	return usage, nil
}
