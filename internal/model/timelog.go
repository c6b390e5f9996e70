package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskTimeLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"task_id"`
	WorkerID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"worker_id"`
	StartTime   time.Time  `gorm:"not null" json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Description string     `gorm:"type:text" json:"description"`
	HoursWorked *float64   `json:"hours_worked,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func (TaskTimeLog) TableName() string {
	return "task_time_logs"
}

func (l *TaskTimeLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

func (l TaskTimeLog) IsOpen() bool {
	return l.EndTime == nil
}

// Hours is the duration credited to the log. Closed logs prefer the recorded
// hours_worked; open logs count up to now.
func (l TaskTimeLog) Hours(now time.Time) float64 {
	if l.EndTime != nil {
		if l.HoursWorked != nil {
			return *l.HoursWorked
		}
		return HoursBetween(l.StartTime, *l.EndTime)
	}
	return HoursBetween(l.StartTime, now)
}

// HoursBetween converts an interval to fractional hours, never negative.
func HoursBetween(start, end time.Time) float64 {
	if end.Before(start) {
		return 0
	}
	return end.Sub(start).Hours()
}

type OpenInterval struct {
	LogID    uuid.UUID `json:"log_id"`
	WorkerID uuid.UUID `json:"worker_id"`
	Start    time.Time `json:"start_time"`
}

// TaskDuration is a snapshot of a task's tracked time. ClosedHours is fixed;
// the open intervals keep growing until they are stopped.
type TaskDuration struct {
	TaskID      uuid.UUID      `json:"task_id"`
	ClosedHours float64        `json:"closed_hours"`
	Open        []OpenInterval `json:"open"`
}

// LiveHours recomputes the total at now without touching the store.
func (d TaskDuration) LiveHours(now time.Time) float64 {
	total := d.ClosedHours
	for _, interval := range d.Open {
		total += HoursBetween(interval.Start, now)
	}
	return total
}

// SummarizeLogs folds logs into a TaskDuration. include filters which open
// logs count toward the live total; nil includes all of them.
func SummarizeLogs(taskID uuid.UUID, logs []TaskTimeLog, include func(TaskTimeLog) bool) TaskDuration {
	duration := TaskDuration{TaskID: taskID, Open: []OpenInterval{}}
	for _, log := range logs {
		if !log.IsOpen() {
			duration.ClosedHours += log.Hours(time.Time{})
			continue
		}
		if include != nil && !include(log) {
			continue
		}
		duration.Open = append(duration.Open, OpenInterval{
			LogID:    log.ID,
			WorkerID: log.WorkerID,
			Start:    log.StartTime,
		})
	}
	return duration
}

// AccumulatedHours sums all logs, open ones counted up to now.
func AccumulatedHours(logs []TaskTimeLog, now time.Time) float64 {
	total := 0.0
	for _, log := range logs {
		total += log.Hours(now)
	}
	return total
}
