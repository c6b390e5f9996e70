package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func (r *Repository) CreateBudget(ctx context.Context, budget *model.Budget) error {
	for i := range budget.Items {
		budget.Items[i].Position = i
	}
	return r.db.WithContext(ctx).Create(budget).Error
}

func (r *Repository) GetBudget(ctx context.Context, id uuid.UUID) (*model.Budget, error) {
	var budget model.Budget
	err := r.db.WithContext(ctx).
		Preload("Items", orderByPosition).
		Where("id = ?", id).
		First(&budget).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *Repository) ListBudgets(ctx context.Context, status *model.BudgetStatus) ([]model.Budget, error) {
	query := r.db.WithContext(ctx).Preload("Items", orderByPosition)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var budgets []model.Budget
	if err := query.Order("created_at DESC").Find(&budgets).Error; err != nil {
		return nil, err
	}
	return budgets, nil
}

// ReplaceBudgetItems swaps the item list of a draft budget and stores the new
// total. It reports false when the budget is no longer a draft.
func (r *Repository) ReplaceBudgetItems(
	ctx context.Context,
	budgetID uuid.UUID,
	items []model.BudgetItem,
	total decimal.Decimal,
) (bool, error) {
	updated := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&model.Budget{}).
			Where("id = ? AND status = ?", budgetID, model.BudgetStatusDraft).
			Update("total_value", total)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		if err := tx.Where("budget_id = ?", budgetID).Delete(&model.BudgetItem{}).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].ID = uuid.Nil
			items[i].BudgetID = budgetID
			items[i].Position = i
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		updated = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// TransitionBudget moves the budget from one status to another only if it is
// still in the expected status.
func (r *Repository) TransitionBudget(
	ctx context.Context,
	id uuid.UUID,
	from, to model.BudgetStatus,
	extra map[string]interface{},
) (bool, error) {
	fields := map[string]interface{}{"status": to}
	for key, value := range extra {
		fields[key] = value
	}
	res := r.db.WithContext(ctx).
		Model(&model.Budget{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ExpireBudgets marks sent budgets whose validity ended before now.
func (r *Repository) ExpireBudgets(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Budget{}).
		Where("status = ? AND valid_until IS NOT NULL AND valid_until < ?", model.BudgetStatusSent, now).
		Update("status", model.BudgetStatusExpired)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
