package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func (r *Repository) CreateOrderCall(ctx context.Context, call *model.OrderCall) error {
	return r.db.WithContext(ctx).Create(call).Error
}

func (r *Repository) ListOpenOrderCalls(ctx context.Context) ([]model.OrderCall, error) {
	var calls []model.OrderCall
	err := r.db.WithContext(ctx).
		Where("resolved = ?", false).
		Order("created_at ASC").
		Find(&calls).Error
	if err != nil {
		return nil, err
	}
	return calls, nil
}

// ResolveOrderCall closes an open call. It reports false when the call is
// missing or already resolved.
func (r *Repository) ResolveOrderCall(ctx context.Context, id, resolvedBy uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.OrderCall{}).
		Where("id = ? AND resolved = ?", id, false).
		Updates(map[string]interface{}{
			"resolved":    true,
			"resolved_by": resolvedBy,
			"resolved_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
