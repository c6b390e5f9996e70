package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
	"github.com/nurpe/rms-service-orders/internal/service"
)

type invoiceExtraRequest struct {
	Description string          `json:"description"`
	Value       decimal.Decimal `json:"value"`
}

type createInvoiceRequest struct {
	ClientID  uuid.UUID             `json:"client_id" binding:"required"`
	StartDate string                `json:"start_date" binding:"required"`
	EndDate   string                `json:"end_date" binding:"required"`
	Extras    []invoiceExtraRequest `json:"extras"`
}

func extraInputs(extras []invoiceExtraRequest) []service.InvoiceExtraInput {
	inputs := make([]service.InvoiceExtraInput, 0, len(extras))
	for _, extra := range extras {
		inputs = append(inputs, service.InvoiceExtraInput{Description: extra.Description, Value: extra.Value})
	}
	return inputs
}

func (h *Handler) bindInvoiceInput(c *gin.Context) (service.CreateInvoiceInput, bool) {
	principal, ok := h.principal(c)
	if !ok {
		return service.CreateInvoiceInput{}, false
	}
	var req createInvoiceRequest
	if !bindJSON(c, &req) {
		return service.CreateInvoiceInput{}, false
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date"})
		return service.CreateInvoiceInput{}, false
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date"})
		return service.CreateInvoiceInput{}, false
	}
	return service.CreateInvoiceInput{
		Principal: principal,
		ClientID:  req.ClientID,
		StartDate: start,
		EndDate:   end,
		Extras:    extraInputs(req.Extras),
	}, true
}

func invoiceResponse(result *service.InvoiceResult) gin.H {
	resp := gin.H{"invoice": result.Invoice, "empty": result.Empty}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	return resp
}

func (h *Handler) previewInvoice(c *gin.Context) {
	input, ok := h.bindInvoiceInput(c)
	if !ok {
		return
	}
	result, err := h.invoices.Preview(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoiceResponse(result))
}

func (h *Handler) createInvoice(c *gin.Context) {
	input, ok := h.bindInvoiceInput(c)
	if !ok {
		return
	}
	result, err := h.invoices.CreateInvoice(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Empty {
		status = http.StatusOK
	}
	c.JSON(status, invoiceResponse(result))
}

type immediateInvoiceRequest struct {
	Extras []invoiceExtraRequest `json:"extras"`
}

func (h *Handler) invoiceOrderNow(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req immediateInvoiceRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.invoices.InvoiceOrderNow(c.Request.Context(), service.ImmediateInvoiceInput{
		Principal: principal,
		OrderID:   orderID,
		Extras:    extraInputs(req.Extras),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, invoiceResponse(result))
}

func (h *Handler) listInvoices(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	clientID, err := parseOptionalUUID(c.Query("client_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
		return
	}
	invoices, err := h.invoices.ListInvoices(c.Request.Context(), principal, repository.InvoiceFilter{
		ClientID: clientID,
		Limit:    queryInt(c, "limit", 50),
		Offset:   queryInt(c, "offset", 0),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": invoices})
}

func (h *Handler) getInvoice(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoices.GetInvoice(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *Handler) invoicePDF(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.invoices.RenderInvoicePDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.writeFile(c, result)
}

type budgetItemRequest struct {
	ServiceName string          `json:"service_name"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func budgetItemInputs(items []budgetItemRequest) []service.BudgetItemInput {
	inputs := make([]service.BudgetItemInput, 0, len(items))
	for _, item := range items {
		inputs = append(inputs, service.BudgetItemInput{
			ServiceName: item.ServiceName,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return inputs
}

type createBudgetRequest struct {
	ClientID      *uuid.UUID          `json:"client_id"`
	ClientName    string              `json:"client_name"`
	ClientContact string              `json:"client_contact"`
	ClientAddress string              `json:"client_address"`
	Description   string              `json:"description"`
	ValidUntil    *string             `json:"valid_until"`
	Items         []budgetItemRequest `json:"items"`
}

func (h *Handler) createBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req createBudgetRequest
	if !bindJSON(c, &req) {
		return
	}
	validUntil, err := parseOptionalDate(req.ValidUntil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid valid_until"})
		return
	}

	budget, err := h.budgets.CreateBudget(c.Request.Context(), service.CreateBudgetInput{
		Principal:     principal,
		ClientID:      req.ClientID,
		ClientName:    req.ClientName,
		ClientContact: req.ClientContact,
		ClientAddress: req.ClientAddress,
		Description:   req.Description,
		ValidUntil:    validUntil,
		Items:         budgetItemInputs(req.Items),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, budget)
}

func (h *Handler) listBudgets(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var status *model.BudgetStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		value := model.BudgetStatus(raw)
		status = &value
	}
	budgets, err := h.budgets.ListBudgets(c.Request.Context(), principal, status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": budgets})
}

func (h *Handler) getBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	budget, err := h.budgets.GetBudget(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

type budgetItemsRequest struct {
	Items []budgetItemRequest `json:"items"`
}

func (h *Handler) updateBudgetItems(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req budgetItemsRequest
	if !bindJSON(c, &req) {
		return
	}
	budget, err := h.budgets.UpdateBudgetItems(c.Request.Context(), principal, id, budgetItemInputs(req.Items))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *Handler) sendBudget(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.budgets.SendBudget(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	resp := gin.H{
		"budget":        result.Budget,
		"document_url":  result.DocumentURL,
		"whatsapp_link": result.WhatsAppLink,
		"message_sent":  result.MessageSent,
	}
	if result.MessageError != "" {
		resp["message_error"] = result.MessageError
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) approveBudget(c *gin.Context) {
	h.decideBudget(c, true)
}

func (h *Handler) rejectBudget(c *gin.Context) {
	h.decideBudget(c, false)
}

func (h *Handler) decideBudget(c *gin.Context, approved bool) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	budget, err := h.budgets.DecideBudget(c.Request.Context(), principal, id, approved)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, budget)
}

func (h *Handler) budgetPDF(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.budgets.RenderBudgetPDF(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.writeFile(c, result)
}

type createInventoryItemRequest struct {
	Name            string          `json:"name" binding:"required"`
	Unit            string          `json:"unit"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
}

func (h *Handler) createInventoryItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req createInventoryItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inventory.CreateItem(c.Request.Context(), service.CreateItemInput{
		Principal:       principal,
		Name:            req.Name,
		Unit:            req.Unit,
		InitialQuantity: req.InitialQuantity,
		MinimumQuantity: req.MinimumQuantity,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) listInventoryItems(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	items, err := h.inventory.ListItems(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}

type restockRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	Notes    string          `json:"notes"`
}

func (h *Handler) restockInventoryItem(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req restockRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.inventory.Restock(c.Request.Context(), service.RestockInput{
		Principal: principal,
		ItemID:    id,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type hoursReportRequest struct {
	PeriodStart string `json:"period_start" binding:"required"`
	PeriodEnd   string `json:"period_end" binding:"required"`
}

func (h *Handler) bindReportInput(c *gin.Context) (service.GenerateReportInput, bool) {
	principal, ok := h.principal(c)
	if !ok {
		return service.GenerateReportInput{}, false
	}
	var req hoursReportRequest
	if !bindJSON(c, &req) {
		return service.GenerateReportInput{}, false
	}
	start, err := parseDate(req.PeriodStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_start"})
		return service.GenerateReportInput{}, false
	}
	end, err := parseDate(req.PeriodEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid period_end"})
		return service.GenerateReportInput{}, false
	}
	return service.GenerateReportInput{Principal: principal, PeriodStart: start, PeriodEnd: end}, true
}

func (h *Handler) hoursReport(c *gin.Context) {
	input, ok := h.bindReportInput(c)
	if !ok {
		return
	}
	report, err := h.reports.BuildHoursReport(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) exportHoursReport(c *gin.Context) {
	input, ok := h.bindReportInput(c)
	if !ok {
		return
	}
	result, err := h.reports.GenerateHoursReport(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	h.writeFile(c, result)
}
