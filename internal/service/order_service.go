package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/config"
	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

type OrderService struct {
	repo      *repository.Repository
	numbering config.NumberingConfig
	log       zerolog.Logger
	now       func() time.Time
}

func NewOrderService(repo *repository.Repository, cfg *config.Config, log zerolog.Logger) *OrderService {
	return &OrderService{
		repo:      repo,
		numbering: cfg.Numbering,
		log:       log,
		now:       utcNow,
	}
}

type CreateOrderInput struct {
	Principal          model.Principal
	ClientID           *uuid.UUID
	ClientName         string
	ClientContact      string
	ClientAddress      string
	ServiceDescription string
	SaleValue          *decimal.Decimal
	Status             model.OrderStatus
	Urgency            model.Urgency
	AssignedWorkerID   *uuid.UUID
	OpeningDate        *time.Time
	Deadline           *time.Time
}

func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*model.ServiceOrder, error) {
	if err := Authorize(input.Principal, ActionManageOrders); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = model.OrderStatusReceived
	}
	if status != model.OrderStatusReceived && status != model.OrderStatusPending {
		return nil, invalid("new orders start as received or pending")
	}
	urgency := input.Urgency
	if urgency == "" {
		urgency = model.UrgencyMedium
	}
	if !urgency.Valid() {
		return nil, invalid("urgency must be low, medium or high")
	}
	if input.SaleValue != nil && input.SaleValue.IsNegative() {
		return nil, invalid("sale_value must not be negative")
	}
	if input.ClientID == nil && strings.TrimSpace(input.ClientName) == "" {
		return nil, invalid("client_id or client_name is required")
	}

	now := s.now()
	opening := dateOnly(now)
	if input.OpeningDate != nil && !input.OpeningDate.IsZero() {
		opening = dateOnly(*input.OpeningDate)
	}

	order := &model.ServiceOrder{
		OpeningDate:        opening,
		ClientID:           input.ClientID,
		ClientName:         strings.TrimSpace(input.ClientName),
		ClientContact:      strings.TrimSpace(input.ClientContact),
		ClientAddress:      strings.TrimSpace(input.ClientAddress),
		ServiceDescription: strings.TrimSpace(input.ServiceDescription),
		Status:             status,
		Urgency:            urgency,
		AssignedWorkerID:   input.AssignedWorkerID,
		Deadline:           input.Deadline,
		CreatedBy:          input.Principal.UserID,
	}
	if input.SaleValue != nil {
		order.SaleValue = decimal.NewNullDecimal(*input.SaleValue)
	}

	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if input.ClientID != nil {
			client, err := tx.GetClient(ctx, *input.ClientID)
			if err != nil {
				return storeErr("client", err)
			}
			fillClientSnapshot(order, client)
		}
		n, err := tx.NextSequence(ctx, model.SequenceServiceOrder)
		if err != nil {
			return storeErr("order number", err)
		}
		order.OrderNumber = model.FormatNumber(s.numbering.OrderPrefix, s.numbering.Width, n)
		if err := tx.CreateOrder(ctx, order); err != nil {
			return storeErr("service order "+order.OrderNumber, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("service order created")
	return order, nil
}

func fillClientSnapshot(order *model.ServiceOrder, client *model.Client) {
	if order.ClientName == "" {
		order.ClientName = client.Name
	}
	if order.ClientContact == "" {
		order.ClientContact = client.Contact
	}
	if order.ClientAddress == "" {
		order.ClientAddress = client.Address
	}
}

func (s *OrderService) GetOrder(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.ServiceOrder, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, storeErr("service order", err)
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, principal model.Principal, filter repository.OrderFilter) ([]model.ServiceOrder, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, invalid("unknown status %q", *filter.Status)
	}
	orders, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, storeErr("service orders", err)
	}
	return orders, nil
}

type UpdateOrderInput struct {
	Principal          model.Principal
	OrderID            uuid.UUID
	ServiceDescription *string
	ClientContact      *string
	ClientAddress      *string
	SaleValue          *decimal.Decimal
	Urgency            *model.Urgency
	AssignedWorkerID   *uuid.UUID
	Deadline           *time.Time
	ServiceStartDate   *time.Time
	ServiceEndDate     *time.Time
}

// UpdateOrder edits descriptive fields. Status only changes through
// Transition; invoiced orders are frozen.
func (s *OrderService) UpdateOrder(ctx context.Context, input UpdateOrderInput) (*model.ServiceOrder, error) {
	if err := Authorize(input.Principal, ActionManageOrders); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if input.ServiceDescription != nil {
		fields["service_description"] = strings.TrimSpace(*input.ServiceDescription)
	}
	if input.ClientContact != nil {
		fields["client_contact"] = strings.TrimSpace(*input.ClientContact)
	}
	if input.ClientAddress != nil {
		fields["client_address"] = strings.TrimSpace(*input.ClientAddress)
	}
	if input.SaleValue != nil {
		if input.SaleValue.IsNegative() {
			return nil, invalid("sale_value must not be negative")
		}
		fields["sale_value"] = decimal.NewNullDecimal(*input.SaleValue)
	}
	if input.Urgency != nil {
		if !input.Urgency.Valid() {
			return nil, invalid("urgency must be low, medium or high")
		}
		fields["urgency"] = *input.Urgency
	}
	if input.AssignedWorkerID != nil {
		fields["assigned_worker_id"] = *input.AssignedWorkerID
	}
	if input.Deadline != nil {
		fields["deadline"] = *input.Deadline
	}
	if input.ServiceStartDate != nil {
		fields["service_start_date"] = *input.ServiceStartDate
	}
	if input.ServiceEndDate != nil {
		fields["service_end_date"] = *input.ServiceEndDate
	}
	if input.ServiceStartDate != nil && input.ServiceEndDate != nil && input.ServiceEndDate.Before(*input.ServiceStartDate) {
		return nil, invalid("service_end_date must not be before service_start_date")
	}
	if len(fields) == 0 {
		return nil, invalid("nothing to update")
	}

	var updated *model.ServiceOrder
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		order, err := tx.LockOrder(ctx, input.OrderID)
		if err != nil {
			return storeErr("service order", err)
		}
		if order.InvoiceID != nil {
			return conflict("order %s is invoiced and can no longer be edited", order.OrderNumber)
		}
		if err := tx.UpdateOrderFields(ctx, order.ID, fields); err != nil {
			return storeErr("service order", err)
		}
		updated, err = tx.GetOrder(ctx, order.ID)
		return storeErr("service order", err)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) DeleteOrder(ctx context.Context, principal model.Principal, id uuid.UUID) error {
	if err := Authorize(principal, ActionManageOrders); err != nil {
		return err
	}
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return storeErr("service order", err)
	}
	if order.InvoiceID != nil {
		return conflict("order %s is invoiced and cannot be deleted", order.OrderNumber)
	}
	deleted, err := s.repo.DeleteOrder(ctx, id)
	if err != nil {
		return storeErr("service order", err)
	}
	if !deleted {
		return conflict("order %s was invoiced concurrently", order.OrderNumber)
	}
	s.log.Info().Str("order_id", id.String()).Msg("service order deleted")
	return nil
}

type TransitionInput struct {
	Principal model.Principal
	OrderID   uuid.UUID
	Action    OrderAction
	Reason    string
}

// Transition applies a manual workflow action. System actions are fired only
// by the timer engine and by invoicing.
func (s *OrderService) Transition(ctx context.Context, input TransitionInput) (*model.ServiceOrder, error) {
	if err := Authorize(input.Principal, ActionTransitionOrders); err != nil {
		return nil, err
	}
	if _, ok := orderTransitions[input.Action]; !ok {
		return nil, invalid("unknown order action %q", input.Action)
	}
	if input.Action.IsSystem() {
		return nil, invalid("%s is applied automatically", input.Action)
	}
	reason := strings.TrimSpace(input.Reason)
	if input.Action == OrderActionHold && reason == "" {
		return nil, invalid("a reason is required to put an order on hold")
	}

	var result *model.ServiceOrder
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		order, err := tx.LockOrder(ctx, input.OrderID)
		if err != nil {
			return storeErr("service order", err)
		}
		previous := order.Status

		now := s.now()
		extra := map[string]interface{}{}
		switch input.Action {
		case OrderActionHold:
			extra["held_from_status"] = previous
		case OrderActionResume:
			extra["held_from_status"] = nil
		case OrderActionFinishProduction:
			open, err := tx.CountOpenTimeLogsForOrder(ctx, order.ID)
			if err != nil {
				return storeErr("time logs", err)
			}
			if open > 0 {
				return conflict("order %s has running timers", order.OrderNumber)
			}
			if err := requireTasksFinished(ctx, tx, order); err != nil {
				return err
			}
			if order.ServiceEndDate == nil {
				extra["service_end_date"] = now
			}
		case OrderActionComplete:
			if err := requireTasksFinished(ctx, tx, order); err != nil {
				return err
			}
		}

		if input.Action == OrderActionHold || input.Action == OrderActionCancel {
			if err := stopOrderTimers(ctx, tx, order.ID, now); err != nil {
				return err
			}
		}
		if err := applyOrderTransition(ctx, tx, order, input.Action, extra); err != nil {
			return err
		}
		if input.Action == OrderActionResume && order.Status == model.OrderStatusProduction {
			if _, err := reevaluateOrder(ctx, tx, order.ID, now); err != nil {
				return err
			}
		}

		if input.Action == OrderActionHold {
			call := &model.OrderCall{
				ServiceOrderID: order.ID,
				Reason:         reason,
				OpenedBy:       input.Principal.UserID,
			}
			if err := tx.CreateOrderCall(ctx, call); err != nil {
				return storeErr("order call", err)
			}
		}

		result, err = tx.GetOrder(ctx, order.ID)
		if err != nil {
			return storeErr("service order", err)
		}
		s.log.Info().
			Str("order_id", order.ID.String()).
			Str("action", string(input.Action)).
			Str("from", string(previous)).
			Str("to", string(result.Status)).
			Msg("order status changed")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func requireTasksFinished(ctx context.Context, tx *repository.Repository, order *model.ServiceOrder) error {
	tasks, err := tx.ListTasksByOrder(ctx, order.ID)
	if err != nil {
		return storeErr("tasks", err)
	}
	if !model.TasksFinished(tasks) {
		return conflict("order %s still has unfinished tasks", order.OrderNumber)
	}
	return nil
}

// stopOrderTimers closes every running timer of the order at end.
func stopOrderTimers(ctx context.Context, tx *repository.Repository, orderID uuid.UUID, end time.Time) error {
	logs, err := tx.ListOpenTimeLogsForOrder(ctx, orderID)
	if err != nil {
		return storeErr("time logs", err)
	}
	for _, log := range logs {
		if _, err := tx.CloseTimeLog(ctx, log.ID, end, model.HoursBetween(log.StartTime, end), nil); err != nil {
			return storeErr("time log", err)
		}
	}
	return nil
}

func (s *OrderService) ListOpenCalls(ctx context.Context, principal model.Principal) ([]model.OrderCall, error) {
	if err := Authorize(principal, ActionResolveCalls); err != nil {
		return nil, err
	}
	calls, err := s.repo.ListOpenOrderCalls(ctx)
	if err != nil {
		return nil, storeErr("order calls", err)
	}
	return calls, nil
}

func (s *OrderService) ResolveCall(ctx context.Context, principal model.Principal, callID uuid.UUID) error {
	if err := Authorize(principal, ActionResolveCalls); err != nil {
		return err
	}
	ok, err := s.repo.ResolveOrderCall(ctx, callID, principal.UserID, s.now())
	if err != nil {
		return storeErr("order call", err)
	}
	if !ok {
		return notFound("open order call")
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
