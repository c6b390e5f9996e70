package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func (r *Repository) CreateTask(ctx context.Context, task *model.ServiceOrderTask) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *Repository) GetTask(ctx context.Context, id uuid.UUID) (*model.ServiceOrderTask, error) {
	var task model.ServiceOrderTask
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *Repository) ListTasksByOrder(ctx context.Context, orderID uuid.UUID) ([]model.ServiceOrderTask, error) {
	var tasks []model.ServiceOrderTask
	err := r.db.WithContext(ctx).
		Where("service_order_id = ?", orderID).
		Order("created_at ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *Repository) ListTasksForWorker(ctx context.Context, workerID uuid.UUID) ([]model.WorkerTask, error) {
	var tasks []model.WorkerTask
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			t.*,
			o.order_number,
			o.client_name,
			o.status AS order_status,
			o.urgency AS order_urgency
		FROM service_order_tasks t
		JOIN service_orders o ON o.id = t.service_order_id
		WHERE t.assigned_worker_id = ?
			AND t.status IN (?, ?)
		ORDER BY t.created_at ASC
	`, workerID, model.TaskStatusPending, model.TaskStatusInProgress).Scan(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *Repository) UpdateTaskFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.ServiceOrderTask{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateTaskStatus moves the task only if it is still in from.
func (r *Repository) UpdateTaskStatus(ctx context.Context, id uuid.UUID, from, to model.TaskStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.ServiceOrderTask{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteTask removes the task together with its time logs and usage rows.
func (r *Repository) DeleteTask(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskTimeLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id = ?", id).Delete(&model.TaskProductUsage{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&model.ServiceOrderTask{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
