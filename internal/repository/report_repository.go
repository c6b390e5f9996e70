package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/model"
)

// LoggedWork is one closed time log with the order it was booked against.
type LoggedWork struct {
	LogID          uuid.UUID
	TaskID         uuid.UUID
	WorkerID       uuid.UUID
	ServiceOrderID uuid.UUID
	StartTime      time.Time
	EndTime        time.Time
	HoursWorked    *float64
}

func (w LoggedWork) Hours() float64 {
	return model.TaskTimeLog{StartTime: w.StartTime, EndTime: &w.EndTime, HoursWorked: w.HoursWorked}.Hours(w.EndTime)
}

// ListLoggedWork returns closed logs that started within [from, to).
func (r *Repository) ListLoggedWork(ctx context.Context, from, to time.Time) ([]LoggedWork, error) {
	var rows []LoggedWork
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			l.id AS log_id,
			l.task_id,
			l.worker_id,
			t.service_order_id,
			l.start_time,
			l.end_time,
			l.hours_worked
		FROM task_time_logs l
		JOIN service_order_tasks t ON t.id = l.task_id
		WHERE l.end_time IS NOT NULL
			AND l.start_time >= ?
			AND l.start_time < ?
		ORDER BY l.start_time ASC
	`, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type orderSummaryRow struct {
	ID          uuid.UUID
	OrderNumber string
	ClientName  string
	Status      model.OrderStatus
	SaleValue   decimal.NullDecimal
	TaskCount   int64
}

// ListActiveOrders returns orders opened in [from, to) or with time logged in
// that window, with their task counts.
func (r *Repository) ListActiveOrders(ctx context.Context, from, to time.Time) ([]model.OrderHours, error) {
	var rows []orderSummaryRow
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			o.id,
			o.order_number,
			o.client_name,
			o.status,
			o.sale_value,
			(SELECT COUNT(*) FROM service_order_tasks t WHERE t.service_order_id = o.id) AS task_count
		FROM service_orders o
		WHERE (o.opening_date >= ? AND o.opening_date < ?)
			OR EXISTS (
				SELECT 1
				FROM task_time_logs l
				JOIN service_order_tasks t ON t.id = l.task_id
				WHERE t.service_order_id = o.id
					AND l.start_time >= ?
					AND l.start_time < ?
			)
		ORDER BY o.order_number ASC
	`, from, to, from, to).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make([]model.OrderHours, 0, len(rows))
	for _, row := range rows {
		sale := decimal.Zero
		if row.SaleValue.Valid {
			sale = row.SaleValue.Decimal
		}
		result = append(result, model.OrderHours{
			OrderID:     row.ID,
			OrderNumber: row.OrderNumber,
			ClientName:  row.ClientName,
			Status:      row.Status,
			SaleValue:   sale,
			TaskCount:   row.TaskCount,
		})
	}
	return result, nil
}
