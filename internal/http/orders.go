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

type createClientRequest struct {
	Name     string `json:"name" binding:"required"`
	Contact  string `json:"contact"`
	Address  string `json:"address"`
	Document string `json:"cnpj_cpf"`
}

func (h *Handler) createClient(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req createClientRequest
	if !bindJSON(c, &req) {
		return
	}

	client, err := h.clients.CreateClient(c.Request.Context(), service.CreateClientInput{
		Principal: principal,
		Name:      req.Name,
		Contact:   req.Contact,
		Address:   req.Address,
		Document:  req.Document,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, client)
}

func (h *Handler) listClients(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	clients, err := h.clients.ListClients(c.Request.Context(), principal, c.Query("search"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": clients})
}

func (h *Handler) getClient(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.clients.GetClient(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

type createOrderRequest struct {
	ClientID           *uuid.UUID       `json:"client_id"`
	ClientName         string           `json:"client_name"`
	ClientContact      string           `json:"client_contact"`
	ClientAddress      string           `json:"client_address"`
	ServiceDescription string           `json:"service_description"`
	SaleValue          *decimal.Decimal `json:"sale_value"`
	Status             string           `json:"status"`
	Urgency            string           `json:"urgency"`
	AssignedWorkerID   *uuid.UUID       `json:"assigned_worker_id"`
	OpeningDate        *string          `json:"opening_date"`
	Deadline           *string          `json:"deadline"`
}

func (h *Handler) createOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	var req createOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	opening, err := parseOptionalDate(req.OpeningDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid opening_date"})
		return
	}
	deadline, err := parseOptionalDate(req.Deadline)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline"})
		return
	}

	order, err := h.orders.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		Principal:          principal,
		ClientID:           req.ClientID,
		ClientName:         req.ClientName,
		ClientContact:      req.ClientContact,
		ClientAddress:      req.ClientAddress,
		ServiceDescription: req.ServiceDescription,
		SaleValue:          req.SaleValue,
		Status:             model.OrderStatus(strings.TrimSpace(req.Status)),
		Urgency:            model.Urgency(strings.TrimSpace(req.Urgency)),
		AssignedWorkerID:   req.AssignedWorkerID,
		OpeningDate:        opening,
		Deadline:           deadline,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *Handler) listOrders(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	filter := repository.OrderFilter{
		Search: c.Query("search"),
		Limit:  queryInt(c, "limit", 50),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := model.OrderStatus(raw)
		filter.Status = &status
	}
	clientID, err := parseOptionalUUID(c.Query("client_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid client_id"})
		return
	}
	filter.ClientID = clientID

	orders, err := h.orders.ListOrders(c.Request.Context(), principal, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": orders})
}

func (h *Handler) getOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateOrderRequest struct {
	ServiceDescription *string          `json:"service_description"`
	ClientContact      *string          `json:"client_contact"`
	ClientAddress      *string          `json:"client_address"`
	SaleValue          *decimal.Decimal `json:"sale_value"`
	Urgency            *string          `json:"urgency"`
	AssignedWorkerID   *uuid.UUID       `json:"assigned_worker_id"`
	Deadline           *string          `json:"deadline"`
	ServiceStartDate   *string          `json:"service_start_date"`
	ServiceEndDate     *string          `json:"service_end_date"`
}

func (h *Handler) updateOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	input := service.UpdateOrderInput{
		Principal:          principal,
		OrderID:            id,
		ServiceDescription: req.ServiceDescription,
		ClientContact:      req.ClientContact,
		ClientAddress:      req.ClientAddress,
		SaleValue:          req.SaleValue,
		AssignedWorkerID:   req.AssignedWorkerID,
	}
	if req.Urgency != nil {
		urgency := model.Urgency(strings.TrimSpace(*req.Urgency))
		input.Urgency = &urgency
	}
	var err error
	if input.Deadline, err = parseOptionalDate(req.Deadline); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid deadline"})
		return
	}
	if input.ServiceStartDate, err = parseOptionalDate(req.ServiceStartDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_start_date"})
		return
	}
	if input.ServiceEndDate, err = parseOptionalDate(req.ServiceEndDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid service_end_date"})
		return
	}

	order, err := h.orders.UpdateOrder(c.Request.Context(), input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) deleteOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type transitionRequest struct {
	Action string `json:"action" binding:"required"`
	Reason string `json:"reason"`
}

func (h *Handler) transitionOrder(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req transitionRequest
	if !bindJSON(c, &req) {
		return
	}
	action, ok := service.ParseOrderAction(req.Action)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid action"})
		return
	}

	order, err := h.orders.Transition(c.Request.Context(), service.TransitionInput{
		Principal: principal,
		OrderID:   id,
		Action:    action,
		Reason:    req.Reason,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *Handler) listOpenCalls(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	calls, err := h.orders.ListOpenCalls(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": calls})
}

func (h *Handler) resolveCall(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.ResolveCall(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
