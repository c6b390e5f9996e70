package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

// NextSequence increments the named counter and returns the new value. Call
// it inside a transaction so the row lock is held until commit. Counters are
// seeded by the migrations; an unknown name yields gorm.ErrRecordNotFound.
func (r *Repository) NextSequence(ctx context.Context, name string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.Sequence{}).
		Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + 1"))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var seq model.Sequence
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, err
	}
	return seq.Value, nil
}
