package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/rms-service-orders/internal/http/middleware"
	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/service"
)

type Services struct {
	Clients   *service.ClientService
	Orders    *service.OrderService
	Tasks     *service.TaskService
	Timers    *service.TimerService
	Invoices  *service.InvoiceService
	Budgets   *service.BudgetService
	Inventory *service.InventoryService
	Reports   *service.ReportService
}

type Handler struct {
	clients   *service.ClientService
	orders    *service.OrderService
	tasks     *service.TaskService
	timers    *service.TimerService
	invoices  *service.InvoiceService
	budgets   *service.BudgetService
	inventory *service.InventoryService
	reports   *service.ReportService
	log       zerolog.Logger
}

func NewHandler(services Services, log zerolog.Logger) *Handler {
	return &Handler{
		clients:   services.Clients,
		orders:    services.Orders,
		tasks:     services.Tasks,
		timers:    services.Timers,
		invoices:  services.Invoices,
		budgets:   services.Budgets,
		inventory: services.Inventory,
		reports:   services.Reports,
		log:       log,
	}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/clients", h.createClient)
	protected.GET("/clients", h.listClients)
	protected.GET("/clients/:id", h.getClient)

	protected.POST("/orders", h.createOrder)
	protected.GET("/orders", h.listOrders)
	protected.GET("/orders/:id", h.getOrder)
	protected.PATCH("/orders/:id", h.updateOrder)
	protected.DELETE("/orders/:id", h.deleteOrder)
	protected.POST("/orders/:id/transitions", h.transitionOrder)
	protected.POST("/orders/:id/tasks", h.createTask)
	protected.GET("/orders/:id/tasks", h.listTasks)
	protected.POST("/orders/:id/invoice", h.invoiceOrderNow)

	protected.GET("/calls", h.listOpenCalls)
	protected.POST("/calls/:id/resolve", h.resolveCall)

	protected.GET("/me/tasks", h.listMyTasks)
	protected.PATCH("/tasks/:id", h.updateTask)
	protected.DELETE("/tasks/:id", h.deleteTask)
	protected.POST("/tasks/:id/status", h.setTaskStatus)
	protected.POST("/tasks/:id/timer", h.startTimer)
	protected.GET("/tasks/:id/duration", h.taskDuration)
	protected.GET("/tasks/:id/time-logs", h.listTimeLogs)
	protected.POST("/tasks/:id/usage", h.recordUsage)
	protected.GET("/tasks/:id/usage", h.listTaskUsage)

	protected.POST("/time-logs/:id/stop", h.stopTimer)
	protected.PATCH("/time-logs/:id", h.correctTimeLog)

	protected.POST("/invoices/preview", h.previewInvoice)
	protected.POST("/invoices", h.createInvoice)
	protected.GET("/invoices", h.listInvoices)
	protected.GET("/invoices/:id", h.getInvoice)
	protected.GET("/invoices/:id/pdf", h.invoicePDF)

	protected.POST("/budgets", h.createBudget)
	protected.GET("/budgets", h.listBudgets)
	protected.GET("/budgets/:id", h.getBudget)
	protected.PUT("/budgets/:id/items", h.updateBudgetItems)
	protected.POST("/budgets/:id/send", h.sendBudget)
	protected.POST("/budgets/:id/approve", h.approveBudget)
	protected.POST("/budgets/:id/reject", h.rejectBudget)
	protected.GET("/budgets/:id/pdf", h.budgetPDF)

	protected.POST("/inventory", h.createInventoryItem)
	protected.GET("/inventory", h.listInventoryItems)
	protected.POST("/inventory/:id/restock", h.restockInventoryItem)

	protected.POST("/reports/hours", h.hoursReport)
	protected.POST("/reports/hours/export", h.exportHoursReport)
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
	}
	return principal, ok
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var workflow *service.WorkflowError
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotConfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.As(err, &workflow) && len(workflow.Committed) > 0:
		h.log.Error().Err(err).Str("workflow", workflow.Workflow).Str("step", workflow.Step).Msg("workflow partially applied")
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     err.Error(),
			"step":      workflow.Step,
			"committed": workflow.Committed,
		})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h *Handler) writeFile(c *gin.Context, result *service.FileResult) {
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}

func parseOptionalUUID(raw string) (*uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, service.ErrInvalidInput
	}
	return &id, nil
}

func parseOptionalDate(raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	parsed, err := parseDate(*raw)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

func queryInt(c *gin.Context, name string, def int) int {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return def
	}
	return value
}
