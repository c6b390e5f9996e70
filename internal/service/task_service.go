package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

type TaskService struct {
	repo *repository.Repository
	log  zerolog.Logger
	now  func() time.Time
}

func NewTaskService(repo *repository.Repository, log zerolog.Logger) *TaskService {
	return &TaskService{repo: repo, log: log, now: utcNow}
}

// taskTransitions lists the allowed status moves; the value tells whether
// workers may make the move on their own tasks.
var taskTransitions = map[model.TaskStatus]map[model.TaskStatus]bool{
	model.TaskStatusPending: {
		model.TaskStatusInProgress: true,
		model.TaskStatusCompleted:  true,
		model.TaskStatusCancelled:  false,
	},
	model.TaskStatusInProgress: {
		model.TaskStatusCompleted: true,
		model.TaskStatusPending:   false,
		model.TaskStatusCancelled: false,
	},
	model.TaskStatusCompleted: {
		model.TaskStatusInProgress: false,
	},
	model.TaskStatusCancelled: {
		model.TaskStatusPending: false,
	},
}

type CreateTaskInput struct {
	Principal        model.Principal
	OrderID          uuid.UUID
	Title            string
	Description      string
	AssignedWorkerID *uuid.UUID
	Priority         model.TaskPriority
	EstimatedHours   *float64
}

func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*model.ServiceOrderTask, error) {
	if err := Authorize(input.Principal, ActionManageTasks); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, invalid("title is required")
	}
	priority := input.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !priority.Valid() {
		return nil, invalid("priority must be low, medium or high")
	}
	if input.EstimatedHours != nil && *input.EstimatedHours < 0 {
		return nil, invalid("estimated_hours must not be negative")
	}

	task := &model.ServiceOrderTask{
		ServiceOrderID:   input.OrderID,
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		AssignedWorkerID: input.AssignedWorkerID,
		Status:           model.TaskStatusPending,
		Priority:         priority,
		EstimatedHours:   input.EstimatedHours,
		CreatedBy:        input.Principal.UserID,
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		order, err := tx.LockOrder(ctx, input.OrderID)
		if err != nil {
			return storeErr("service order", err)
		}
		if order.Status.IsClosed() {
			return conflict("order %s is %s", order.OrderNumber, order.Status)
		}
		return storeErr("task", tx.CreateTask(ctx, task))
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

type UpdateTaskInput struct {
	Principal        model.Principal
	TaskID           uuid.UUID
	Title            *string
	Description      *string
	AssignedWorkerID *uuid.UUID
	Priority         *model.TaskPriority
	EstimatedHours   *float64
}

func (s *TaskService) UpdateTask(ctx context.Context, input UpdateTaskInput) (*model.ServiceOrderTask, error) {
	if err := Authorize(input.Principal, ActionManageTasks); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, invalid("title must not be empty")
		}
		fields["title"] = title
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}
	if input.AssignedWorkerID != nil {
		fields["assigned_worker_id"] = *input.AssignedWorkerID
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, invalid("priority must be low, medium or high")
		}
		fields["priority"] = *input.Priority
	}
	if input.EstimatedHours != nil {
		if *input.EstimatedHours < 0 {
			return nil, invalid("estimated_hours must not be negative")
		}
		fields["estimated_hours"] = *input.EstimatedHours
	}
	if len(fields) == 0 {
		return nil, invalid("nothing to update")
	}

	if err := s.repo.UpdateTaskFields(ctx, input.TaskID, fields); err != nil {
		return nil, storeErr("task", err)
	}
	task, err := s.repo.GetTask(ctx, input.TaskID)
	if err != nil {
		return nil, storeErr("task", err)
	}
	return task, nil
}

// DeleteTask removes the task with its time logs and re-evaluates the order,
// since the remaining tasks may now all be complete.
func (s *TaskService) DeleteTask(ctx context.Context, principal model.Principal, taskID uuid.UUID) error {
	if err := Authorize(principal, ActionManageTasks); err != nil {
		return err
	}
	return s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		task, err := tx.GetTask(ctx, taskID)
		if err != nil {
			return storeErr("task", err)
		}
		if err := tx.DeleteTask(ctx, task.ID); err != nil {
			return storeErr("task", err)
		}
		_, err = reevaluateOrder(ctx, tx, task.ServiceOrderID, s.now())
		return err
	})
}

type SetTaskStatusInput struct {
	Principal model.Principal
	TaskID    uuid.UUID
	Status    model.TaskStatus
}

// SetTaskStatus moves a task along the task table. Workers may only advance
// tasks assigned to them.
func (s *TaskService) SetTaskStatus(ctx context.Context, input SetTaskStatusInput) (*model.ServiceOrderTask, error) {
	if err := Authorize(input.Principal, ActionWorkTasks); err != nil {
		return nil, err
	}
	if !input.Status.Valid() {
		return nil, invalid("unknown task status %q", input.Status)
	}

	var result *model.ServiceOrderTask
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		task, err := tx.GetTask(ctx, input.TaskID)
		if err != nil {
			return storeErr("task", err)
		}
		workerAllowed, ok := taskTransitions[task.Status][input.Status]
		if !ok {
			return conflict("task cannot move from %s to %s", task.Status, input.Status)
		}
		if input.Principal.IsWorker() {
			if !workerAllowed {
				return denied("only managers can move a task to %s", input.Status)
			}
			if !task.IsAssignedTo(input.Principal.UserID) {
				return denied("task is not assigned to you")
			}
		}
		if input.Status == model.TaskStatusCompleted {
			logs, err := tx.ListTimeLogsByTask(ctx, task.ID)
			if err != nil {
				return storeErr("time logs", err)
			}
			for _, log := range logs {
				if log.IsOpen() {
					return conflict("stop the running timer before completing the task")
				}
			}
		}

		updated, err := tx.UpdateTaskStatus(ctx, task.ID, task.Status, input.Status)
		if err != nil {
			return storeErr("task", err)
		}
		if !updated {
			return conflict("task status changed concurrently")
		}

		if input.Status == model.TaskStatusCompleted || input.Status == model.TaskStatusCancelled {
			if _, err := reevaluateOrder(ctx, tx, task.ServiceOrderID, s.now()); err != nil {
				return err
			}
		}

		result, err = tx.GetTask(ctx, task.ID)
		return storeErr("task", err)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TaskService) ListTasks(ctx context.Context, principal model.Principal, orderID uuid.UUID) ([]model.ServiceOrderTask, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, storeErr("service order", err)
	}
	tasks, err := s.repo.ListTasksByOrder(ctx, orderID)
	if err != nil {
		return nil, storeErr("tasks", err)
	}
	return tasks, nil
}

// ListMyTasks returns the caller's open tasks with their order context.
func (s *TaskService) ListMyTasks(ctx context.Context, principal model.Principal) ([]model.WorkerTask, error) {
	if err := Authorize(principal, ActionWorkTasks); err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListTasksForWorker(ctx, principal.UserID)
	if err != nil {
		return nil, storeErr("tasks", err)
	}
	return tasks, nil
}
