package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func (r *Repository) CreateTimeLog(ctx context.Context, log *model.TaskTimeLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *Repository) GetTimeLog(ctx context.Context, id uuid.UUID) (*model.TaskTimeLog, error) {
	var log model.TaskTimeLog
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

// FindOpenTimeLog returns the open log of the pair, or nil when none exists.
func (r *Repository) FindOpenTimeLog(ctx context.Context, taskID, workerID uuid.UUID) (*model.TaskTimeLog, error) {
	var logs []model.TaskTimeLog
	err := r.db.WithContext(ctx).
		Where("task_id = ? AND worker_id = ? AND end_time IS NULL", taskID, workerID).
		Limit(1).
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return nil, nil
	}
	return &logs[0], nil
}

// CloseTimeLog stops an open log. It reports false when the log is missing or
// was already closed, so a repeated stop never counts twice.
func (r *Repository) CloseTimeLog(
	ctx context.Context,
	id uuid.UUID,
	end time.Time,
	hours float64,
	description *string,
) (bool, error) {
	fields := map[string]interface{}{
		"end_time":     end,
		"hours_worked": hours,
	}
	if description != nil {
		fields["description"] = *description
	}
	res := r.db.WithContext(ctx).
		Model(&model.TaskTimeLog{}).
		Where("id = ? AND end_time IS NULL", id).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SetHoursWorked overrides the credited hours of a closed log.
func (r *Repository) SetHoursWorked(ctx context.Context, id uuid.UUID, hours float64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&model.TaskTimeLog{}).
		Where("id = ? AND end_time IS NOT NULL", id).
		Update("hours_worked", hours)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) ListTimeLogsByTask(ctx context.Context, taskID uuid.UUID) ([]model.TaskTimeLog, error) {
	var logs []model.TaskTimeLog
	err := r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("start_time ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

// CountOpenTimeLogsForOrder counts running timers across all tasks of the order.
func (r *Repository) CountOpenTimeLogsForOrder(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.TaskTimeLog{}).
		Joins("JOIN service_order_tasks t ON t.id = task_time_logs.task_id").
		Where("t.service_order_id = ? AND task_time_logs.end_time IS NULL", orderID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListOpenTimeLogsForOrder returns the running timers across all tasks of the order.
func (r *Repository) ListOpenTimeLogsForOrder(ctx context.Context, orderID uuid.UUID) ([]model.TaskTimeLog, error) {
	var logs []model.TaskTimeLog
	err := r.db.WithContext(ctx).
		Joins("JOIN service_order_tasks t ON t.id = task_time_logs.task_id").
		Where("t.service_order_id = ? AND task_time_logs.end_time IS NULL", orderID).
		Order("task_time_logs.start_time ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

type orderTimeLogRow struct {
	model.TaskTimeLog
	ServiceOrderID uuid.UUID
}

// ListTimeLogsByOrders returns every log of the given orders keyed by order id.
func (r *Repository) ListTimeLogsByOrders(ctx context.Context, orderIDs []uuid.UUID) (map[uuid.UUID][]model.TaskTimeLog, error) {
	result := make(map[uuid.UUID][]model.TaskTimeLog, len(orderIDs))
	if len(orderIDs) == 0 {
		return result, nil
	}

	var rows []orderTimeLogRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT l.*, t.service_order_id
		FROM task_time_logs l
		JOIN service_order_tasks t ON t.id = l.task_id
		WHERE t.service_order_id IN ?
		ORDER BY l.start_time ASC
	`, orderIDs).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		result[row.ServiceOrderID] = append(result[row.ServiceOrderID], row.TaskTimeLog)
	}
	return result, nil
}
