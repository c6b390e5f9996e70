package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/service"
)

type createTaskRequest struct {
	Title            string     `json:"title" binding:"required"`
	Description      string     `json:"description"`
	AssignedWorkerID *uuid.UUID `json:"assigned_worker_id"`
	Priority         string     `json:"priority"`
	EstimatedHours   *float64   `json:"estimated_hours"`
}

func (h *Handler) createTask(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.CreateTask(c.Request.Context(), service.CreateTaskInput{
		Principal:        principal,
		OrderID:          orderID,
		Title:            req.Title,
		Description:      req.Description,
		AssignedWorkerID: req.AssignedWorkerID,
		Priority:         model.TaskPriority(strings.TrimSpace(req.Priority)),
		EstimatedHours:   req.EstimatedHours,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *Handler) listTasks(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	tasks, err := h.tasks.ListTasks(c.Request.Context(), principal, orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

func (h *Handler) listMyTasks(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	tasks, err := h.tasks.ListMyTasks(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": tasks})
}

type updateTaskRequest struct {
	Title            *string    `json:"title"`
	Description      *string    `json:"description"`
	AssignedWorkerID *uuid.UUID `json:"assigned_worker_id"`
	Priority         *string    `json:"priority"`
	EstimatedHours   *float64   `json:"estimated_hours"`
}

func (h *Handler) updateTask(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.UpdateTaskInput{
		Principal:        principal,
		TaskID:           id,
		Title:            req.Title,
		Description:      req.Description,
		AssignedWorkerID: req.AssignedWorkerID,
		EstimatedHours:   req.EstimatedHours,
	}
	if req.Priority != nil {
		priority := model.TaskPriority(strings.TrimSpace(*req.Priority))
		input.Priority = &priority
	}

	task, err := h.tasks.UpdateTask(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (h *Handler) deleteTask(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.tasks.DeleteTask(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type taskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) setTaskStatus(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req taskStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.tasks.SetTaskStatus(c.Request.Context(), service.SetTaskStatusInput{
		Principal: principal,
		TaskID:    id,
		Status:    model.TaskStatus(strings.ToLower(strings.TrimSpace(req.Status))),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type startTimerRequest struct {
	WorkerID *uuid.UUID `json:"worker_id"`
}

func (h *Handler) startTimer(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req startTimerRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	input := service.StartTimerInput{Principal: principal, TaskID: taskID}
	if req.WorkerID != nil {
		input.WorkerID = *req.WorkerID
	}
	log, err := h.timers.StartTimer(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, log)
}

type stopTimerRequest struct {
	Description *string `json:"description"`
}

func (h *Handler) stopTimer(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	logID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req stopTimerRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	log, err := h.timers.StopTimer(c.Request.Context(), service.StopTimerInput{
		Principal:   principal,
		LogID:       logID,
		Description: req.Description,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

func (h *Handler) taskDuration(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	workerID, err := parseOptionalUUID(c.Query("worker_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid worker_id"})
		return
	}

	duration, err := h.timers.AccumulatedDuration(c.Request.Context(), service.DurationInput{
		Principal: principal,
		TaskID:    taskID,
		WorkerID:  workerID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := gin.H{
		"task_id":      duration.TaskID,
		"closed_hours": duration.ClosedHours,
		"open":         duration.Open,
		"total_hours":  duration.LiveHours(time.Now().UTC()),
		"running":      len(duration.Open) > 0,
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listTimeLogs(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	logs, err := h.timers.ListTimeLogs(c.Request.Context(), principal, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

type correctTimeLogRequest struct {
	HoursWorked *float64 `json:"hours_worked" binding:"required"`
}

func (h *Handler) correctTimeLog(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	logID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req correctTimeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	log, err := h.timers.CorrectTimeLog(c.Request.Context(), service.CorrectTimeLogInput{
		Principal: principal,
		LogID:     logID,
		Hours:     *req.HoursWorked,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

type recordUsageRequest struct {
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes"`
}

func (h *Handler) recordUsage(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req recordUsageRequest
	if !bindJSON(c, &req) {
		return
	}

	usage, err := h.inventory.RecordUsage(c.Request.Context(), service.RecordUsageInput{
		Principal: principal,
		TaskID:    taskID,
		ItemID:    req.ItemID,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, usage)
}

func (h *Handler) listTaskUsage(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	taskID, ok := pathID(c, "id")
	if !ok {
		return
	}
	usage, err := h.inventory.ListTaskUsage(c.Request.Context(), principal, taskID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": usage})
}
