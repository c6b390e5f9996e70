package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

// applyOrderTransition moves order through action inside tx. The update is
// conditional on the status read earlier, so a concurrent change surfaces as
// ErrConflict instead of being overwritten.
func applyOrderTransition(
	ctx context.Context,
	tx *repository.Repository,
	order *model.ServiceOrder,
	action OrderAction,
	extra map[string]interface{},
) error {
	next, err := NextOrderStatus(order.Status, action, order.HeldFromStatus)
	if err != nil {
		return err
	}
	ok, err := tx.TransitionOrder(ctx, order.ID, order.Status, next, extra)
	if err != nil {
		return storeErr("service order", err)
	}
	if !ok {
		return conflict("order %s changed status concurrently", order.OrderNumber)
	}
	order.Status = next
	return nil
}

// reevaluateOrder fires the automatic transitions after timers or task
// statuses changed: all tasks done with no running timer moves the order to
// quality control, otherwise no running timer moves production to stopped.
func reevaluateOrder(ctx context.Context, tx *repository.Repository, orderID uuid.UUID, now time.Time) (*model.ServiceOrder, error) {
	order, err := tx.LockOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("service order", err)
	}
	open, err := tx.CountOpenTimeLogsForOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("time logs", err)
	}
	if open > 0 {
		return order, nil
	}
	tasks, err := tx.ListTasksByOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("tasks", err)
	}

	if model.AllTasksCompleted(tasks) && CanApply(order.Status, OrderActionTasksCompleted) {
		extra := map[string]interface{}{}
		if order.ServiceEndDate == nil {
			extra["service_end_date"] = now
		}
		if err := applyOrderTransition(ctx, tx, order, OrderActionTasksCompleted, extra); err != nil {
			return nil, err
		}
		if order.ServiceEndDate == nil {
			order.ServiceEndDate = &now
		}
		return order, nil
	}
	if CanApply(order.Status, OrderActionTimersIdle) {
		if err := applyOrderTransition(ctx, tx, order, OrderActionTimersIdle, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}
