package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusCancelled:
		return true
	default:
		return false
	}
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) Valid() bool {
	return p == TaskPriorityLow || p == TaskPriorityMedium || p == TaskPriorityHigh
}

type ServiceOrderTask struct {
	ID               uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceOrderID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"service_order_id"`
	Title            string       `gorm:"size:255;not null" json:"title"`
	Description      string       `gorm:"type:text" json:"description"`
	AssignedWorkerID *uuid.UUID   `gorm:"type:uuid;index" json:"assigned_worker_id,omitempty"`
	Status           TaskStatus   `gorm:"size:32;not null" json:"status"`
	Priority         TaskPriority `gorm:"size:16;not null" json:"priority"`
	EstimatedHours   *float64     `json:"estimated_hours,omitempty"`
	CreatedBy        uuid.UUID    `gorm:"type:uuid;not null" json:"created_by"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (ServiceOrderTask) TableName() string {
	return "service_order_tasks"
}

func (t *ServiceOrderTask) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsAssignedTo reports whether the task belongs to the given worker.
func (t ServiceOrderTask) IsAssignedTo(workerID uuid.UUID) bool {
	return t.AssignedWorkerID != nil && *t.AssignedWorkerID == workerID
}

// AllTasksCompleted is true when at least one task is completed and every
// task that was not cancelled is completed.
func AllTasksCompleted(tasks []ServiceOrderTask) bool {
	completed := 0
	for _, task := range tasks {
		switch task.Status {
		case TaskStatusCompleted:
			completed++
		case TaskStatusCancelled:
		default:
			return false
		}
	}
	return completed > 0
}

// TasksFinished is true when every task that was not cancelled is completed.
// An order without tasks counts as finished.
func TasksFinished(tasks []ServiceOrderTask) bool {
	for _, task := range tasks {
		if task.Status != TaskStatusCompleted && task.Status != TaskStatusCancelled {
			return false
		}
	}
	return true
}

// WorkerTask is a task row joined with its order for the worker task list.
type WorkerTask struct {
	ServiceOrderTask
	OrderNumber  string      `json:"order_number"`
	ClientName   string      `json:"client_name"`
	OrderStatus  OrderStatus `json:"order_status"`
	OrderUrgency Urgency     `json:"order_urgency"`
}
