package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

// TimerService tracks work time per (task, worker) and drives the automatic
// order transitions that follow from it.
type TimerService struct {
	repo *repository.Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewTimerService(repo *repository.Repository, log zerolog.Logger) *TimerService {
	return &TimerService{repo: repo, log: log, now: utcNow}
}

type StartTimerInput struct {
	Principal model.Principal
	TaskID    uuid.UUID
	WorkerID  uuid.UUID
}

func (s *TimerService) StartTimer(ctx context.Context, input StartTimerInput) (*model.TaskTimeLog, error) {
	if err := Authorize(input.Principal, ActionTrackTime); err != nil {
		return nil, err
	}
	if input.TaskID == uuid.Nil {
		return nil, invalid("task_id is required")
	}
	workerID := input.WorkerID
	if workerID == uuid.Nil {
		workerID = input.Principal.UserID
	}
	if input.Principal.IsWorker() && workerID != input.Principal.UserID {
		return nil, denied("workers can only start their own timers")
	}

	var started *model.TaskTimeLog
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		task, err := tx.GetTask(ctx, input.TaskID)
		if err != nil {
			return storeErr("task", err)
		}
		if input.Principal.IsWorker() && !task.IsAssignedTo(input.Principal.UserID) {
			return denied("task is not assigned to you")
		}
		if task.Status == model.TaskStatusCompleted || task.Status == model.TaskStatusCancelled {
			return conflict("task is %s", task.Status)
		}

		order, err := tx.LockOrder(ctx, task.ServiceOrderID)
		if err != nil {
			return storeErr("service order", err)
		}
		if order.Status.IsClosed() || order.Status == model.OrderStatusOnHold {
			return conflict("order %s is %s", order.OrderNumber, order.Status)
		}

		open, err := tx.FindOpenTimeLog(ctx, task.ID, workerID)
		if err != nil {
			return storeErr("time log", err)
		}
		if open != nil {
			return conflict("a timer is already running for this task")
		}

		now := s.now()
		log := &model.TaskTimeLog{
			TaskID:    task.ID,
			WorkerID:  workerID,
			StartTime: now,
		}
		if err := tx.CreateTimeLog(ctx, log); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("a timer is already running for this task")
			}
			return storeErr("time log", err)
		}

		if task.Status == model.TaskStatusPending {
			if _, err := tx.UpdateTaskStatus(ctx, task.ID, model.TaskStatusPending, model.TaskStatusInProgress); err != nil {
				return storeErr("task", err)
			}
		}

		if CanApply(order.Status, OrderActionTimerStarted) {
			extra := map[string]interface{}{}
			if order.ServiceStartDate == nil {
				extra["service_start_date"] = now
			}
			if err := applyOrderTransition(ctx, tx, order, OrderActionTimerStarted, extra); err != nil {
				return err
			}
		} else if order.ServiceStartDate == nil {
			if err := tx.UpdateOrderFields(ctx, order.ID, map[string]interface{}{"service_start_date": now}); err != nil {
				return storeErr("service order", err)
			}
		}

		started = log
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("log_id", started.ID.String()).
		Str("task_id", started.TaskID.String()).
		Str("worker_id", started.WorkerID.String()).
		Msg("timer started")
	return started, nil
}

type StopTimerInput struct {
	Principal   model.Principal
	LogID       uuid.UUID
	Description *string
}

// StopTimer closes an open log and re-evaluates the owning order in the same
// transaction. Stopping a closed or missing log yields ErrNotFound.
func (s *TimerService) StopTimer(ctx context.Context, input StopTimerInput) (*model.TaskTimeLog, error) {
	if err := Authorize(input.Principal, ActionTrackTime); err != nil {
		return nil, err
	}
	if input.LogID == uuid.Nil {
		return nil, invalid("log_id is required")
	}

	var stopped *model.TaskTimeLog
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		log, err := tx.GetTimeLog(ctx, input.LogID)
		if err != nil {
			return storeErr("running timer", err)
		}
		if input.Principal.IsWorker() && log.WorkerID != input.Principal.UserID {
			return denied("timer belongs to another worker")
		}
		if !log.IsOpen() {
			return notFound("running timer")
		}

		end := s.now()
		hours := model.HoursBetween(log.StartTime, end)
		ok, err := tx.CloseTimeLog(ctx, log.ID, end, hours, input.Description)
		if err != nil {
			return storeErr("time log", err)
		}
		if !ok {
			return notFound("running timer")
		}

		task, err := tx.GetTask(ctx, log.TaskID)
		if err != nil {
			return storeErr("task", err)
		}
		if _, err := reevaluateOrder(ctx, tx, task.ServiceOrderID, end); err != nil {
			return err
		}

		stopped, err = tx.GetTimeLog(ctx, log.ID)
		return storeErr("time log", err)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("log_id", stopped.ID.String()).
		Float64("hours", stopped.Hours(stopped.StartTime)).
		Msg("timer stopped")
	return stopped, nil
}

type DurationInput struct {
	Principal model.Principal
	TaskID    uuid.UUID
	WorkerID  *uuid.UUID
}

// AccumulatedDuration returns the closed total of the task plus the open
// intervals of the querying context. Workers only see their own running timer
// unless a worker is given explicitly.
func (s *TimerService) AccumulatedDuration(ctx context.Context, input DurationInput) (model.TaskDuration, error) {
	if err := Authorize(input.Principal, ActionViewOrders); err != nil {
		return model.TaskDuration{}, err
	}
	if _, err := s.repo.GetTask(ctx, input.TaskID); err != nil {
		return model.TaskDuration{}, storeErr("task", err)
	}
	logs, err := s.repo.ListTimeLogsByTask(ctx, input.TaskID)
	if err != nil {
		return model.TaskDuration{}, storeErr("time logs", err)
	}

	workerID := input.WorkerID
	if workerID == nil && input.Principal.IsWorker() {
		workerID = &input.Principal.UserID
	}
	var include func(model.TaskTimeLog) bool
	if workerID != nil {
		id := *workerID
		include = func(log model.TaskTimeLog) bool { return log.WorkerID == id }
	}
	return model.SummarizeLogs(input.TaskID, logs, include), nil
}

func (s *TimerService) ListTimeLogs(ctx context.Context, principal model.Principal, taskID uuid.UUID) ([]model.TaskTimeLog, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	logs, err := s.repo.ListTimeLogsByTask(ctx, taskID)
	if err != nil {
		return nil, storeErr("time logs", err)
	}
	return logs, nil
}

type CorrectTimeLogInput struct {
	Principal model.Principal
	LogID     uuid.UUID
	Hours     float64
}

// CorrectTimeLog overrides the hours credited to a closed log.
func (s *TimerService) CorrectTimeLog(ctx context.Context, input CorrectTimeLogInput) (*model.TaskTimeLog, error) {
	if err := Authorize(input.Principal, ActionCorrectTime); err != nil {
		return nil, err
	}
	if input.Hours < 0 || math.IsNaN(input.Hours) || math.IsInf(input.Hours, 0) {
		return nil, invalid("hours must be a non-negative number")
	}

	ok, err := s.repo.SetHoursWorked(ctx, input.LogID, input.Hours)
	if err != nil {
		return nil, storeErr("time log", err)
	}
	log, err := s.repo.GetTimeLog(ctx, input.LogID)
	if err != nil {
		return nil, storeErr("time log", err)
	}
	if !ok {
		return nil, conflict("timer is still running")
	}

	s.log.Info().
		Str("log_id", log.ID.String()).
		Float64("hours", input.Hours).
		Str("by", input.Principal.UserID.String()).
		Msg("time log corrected")
	return log, nil
}
