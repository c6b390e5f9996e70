package service

import (
	"strings"

	"github.com/nurpe/rms-service-orders/internal/model"
)

type OrderAction string

const (
	OrderActionAccept               OrderAction = "accept"
	OrderActionPlan                 OrderAction = "plan"
	OrderActionStartProduction      OrderAction = "start_production"
	OrderActionFinishProduction     OrderAction = "finish_production"
	OrderActionHold                 OrderAction = "hold"
	OrderActionResume               OrderAction = "resume"
	OrderActionApproveQuality       OrderAction = "approve_quality"
	OrderActionRejectQuality        OrderAction = "reject_quality"
	OrderActionPrepareShipment      OrderAction = "prepare_shipment"
	OrderActionDispatch             OrderAction = "dispatch"
	OrderActionDeliver              OrderAction = "deliver"
	OrderActionScheduleInstallation OrderAction = "schedule_installation"
	OrderActionDeferInvoice         OrderAction = "defer_invoice"
	OrderActionComplete             OrderAction = "complete"
	OrderActionCancel               OrderAction = "cancel"

	OrderActionTimerStarted   OrderAction = "timer_started"
	OrderActionTimersIdle     OrderAction = "timers_idle"
	OrderActionTasksCompleted OrderAction = "tasks_completed"
	OrderActionInvoice        OrderAction = "invoice"
)

type transitionRule struct {
	from   []model.OrderStatus
	to     model.OrderStatus
	system bool
}

// An empty to means the order returns to the status it was held from.
var orderTransitions = map[OrderAction]transitionRule{
	OrderActionAccept: {
		from: []model.OrderStatus{model.OrderStatusReceived},
		to:   model.OrderStatusPending,
	},
	OrderActionPlan: {
		from: []model.OrderStatus{model.OrderStatusReceived, model.OrderStatusPending},
		to:   model.OrderStatusPlanning,
	},
	OrderActionStartProduction: {
		from: []model.OrderStatus{model.OrderStatusPending, model.OrderStatusPlanning, model.OrderStatusStopped},
		to:   model.OrderStatusProduction,
	},
	OrderActionFinishProduction: {
		from: []model.OrderStatus{model.OrderStatusProduction, model.OrderStatusStopped},
		to:   model.OrderStatusQualityControl,
	},
	OrderActionHold: {
		from: []model.OrderStatus{
			model.OrderStatusReceived,
			model.OrderStatusPending,
			model.OrderStatusPlanning,
			model.OrderStatusProduction,
			model.OrderStatusStopped,
			model.OrderStatusQualityControl,
		},
		to: model.OrderStatusOnHold,
	},
	OrderActionResume: {
		from: []model.OrderStatus{model.OrderStatusOnHold},
	},
	OrderActionApproveQuality: {
		from: []model.OrderStatus{model.OrderStatusQualityControl},
		to:   model.OrderStatusReadyForPickup,
	},
	OrderActionRejectQuality: {
		from: []model.OrderStatus{model.OrderStatusQualityControl},
		to:   model.OrderStatusProduction,
	},
	OrderActionPrepareShipment: {
		from: []model.OrderStatus{model.OrderStatusQualityControl},
		to:   model.OrderStatusReadyForShipment,
	},
	OrderActionDispatch: {
		from: []model.OrderStatus{model.OrderStatusReadyForShipment},
		to:   model.OrderStatusInTransit,
	},
	OrderActionDeliver: {
		from: []model.OrderStatus{model.OrderStatusInTransit},
		to:   model.OrderStatusDelivered,
	},
	OrderActionScheduleInstallation: {
		from: []model.OrderStatus{model.OrderStatusReadyForPickup},
		to:   model.OrderStatusAwaitingInstallation,
	},
	OrderActionDeferInvoice: {
		from: []model.OrderStatus{model.OrderStatusAwaitingInstallation},
		to:   model.OrderStatusToInvoice,
	},
	OrderActionComplete: {
		from: []model.OrderStatus{
			model.OrderStatusReadyForPickup,
			model.OrderStatusAwaitingInstallation,
			model.OrderStatusToInvoice,
		},
		to: model.OrderStatusCompleted,
	},
	OrderActionCancel: {
		from: []model.OrderStatus{
			model.OrderStatusReceived,
			model.OrderStatusPending,
			model.OrderStatusPlanning,
			model.OrderStatusProduction,
			model.OrderStatusQualityControl,
			model.OrderStatusReadyForShipment,
			model.OrderStatusReadyForPickup,
			model.OrderStatusInTransit,
			model.OrderStatusAwaitingInstallation,
			model.OrderStatusToInvoice,
			model.OrderStatusOnHold,
			model.OrderStatusStopped,
		},
		to: model.OrderStatusCancelled,
	},
	OrderActionTimerStarted: {
		from:   []model.OrderStatus{model.OrderStatusReceived, model.OrderStatusPending, model.OrderStatusPlanning, model.OrderStatusStopped},
		to:     model.OrderStatusProduction,
		system: true,
	},
	OrderActionTimersIdle: {
		from:   []model.OrderStatus{model.OrderStatusProduction},
		to:     model.OrderStatusStopped,
		system: true,
	},
	OrderActionTasksCompleted: {
		from:   []model.OrderStatus{model.OrderStatusProduction, model.OrderStatusStopped},
		to:     model.OrderStatusQualityControl,
		system: true,
	},
	OrderActionInvoice: {
		from:   invoiceableStatuses,
		to:     model.OrderStatusInvoiced,
		system: true,
	},
}

// invoiceableStatuses are the states from which an order may be billed.
var invoiceableStatuses = []model.OrderStatus{
	model.OrderStatusReadyForPickup,
	model.OrderStatusAwaitingInstallation,
	model.OrderStatusToInvoice,
	model.OrderStatusDelivered,
}

func ParseOrderAction(raw string) (OrderAction, bool) {
	action := OrderAction(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := orderTransitions[action]
	return action, ok
}

func (a OrderAction) IsSystem() bool {
	return orderTransitions[a].system
}

// NextOrderStatus looks the pair up in the transition table. heldFrom is only
// consulted for resume.
func NextOrderStatus(current model.OrderStatus, action OrderAction, heldFrom *model.OrderStatus) (model.OrderStatus, error) {
	rule, ok := orderTransitions[action]
	if !ok {
		return "", invalid("unknown order action %q", action)
	}
	if !containsStatus(rule.from, current) {
		return "", conflict("cannot %s an order in status %s", action, current)
	}
	if rule.to != "" {
		return rule.to, nil
	}
	if heldFrom == nil || !heldFrom.Valid() {
		return model.OrderStatusPending, nil
	}
	return *heldFrom, nil
}

// CanApply reports whether the action is allowed from current.
func CanApply(current model.OrderStatus, action OrderAction) bool {
	rule, ok := orderTransitions[action]
	return ok && containsStatus(rule.from, current)
}

func containsStatus(statuses []model.OrderStatus, status model.OrderStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}
