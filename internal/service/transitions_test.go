package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func TestNextOrderStatus(t *testing.T) {
	production := model.OrderStatusProduction

	cases := []struct {
		name     string
		from     model.OrderStatus
		action   OrderAction
		heldFrom *model.OrderStatus
		want     model.OrderStatus
	}{
		{"accept", model.OrderStatusReceived, OrderActionAccept, nil, model.OrderStatusPending},
		{"plan", model.OrderStatusPending, OrderActionPlan, nil, model.OrderStatusPlanning},
		{"first timer", model.OrderStatusPending, OrderActionTimerStarted, nil, model.OrderStatusProduction},
		{"timer after idle", model.OrderStatusStopped, OrderActionTimerStarted, nil, model.OrderStatusProduction},
		{"idle", model.OrderStatusProduction, OrderActionTimersIdle, nil, model.OrderStatusStopped},
		{"tasks done", model.OrderStatusStopped, OrderActionTasksCompleted, nil, model.OrderStatusQualityControl},
		{"approve", model.OrderStatusQualityControl, OrderActionApproveQuality, nil, model.OrderStatusReadyForPickup},
		{"rework", model.OrderStatusQualityControl, OrderActionRejectQuality, nil, model.OrderStatusProduction},
		{"ship", model.OrderStatusQualityControl, OrderActionPrepareShipment, nil, model.OrderStatusReadyForShipment},
		{"dispatch", model.OrderStatusReadyForShipment, OrderActionDispatch, nil, model.OrderStatusInTransit},
		{"deliver", model.OrderStatusInTransit, OrderActionDeliver, nil, model.OrderStatusDelivered},
		{"install", model.OrderStatusReadyForPickup, OrderActionScheduleInstallation, nil, model.OrderStatusAwaitingInstallation},
		{"defer invoice", model.OrderStatusAwaitingInstallation, OrderActionDeferInvoice, nil, model.OrderStatusToInvoice},
		{"invoice delivered", model.OrderStatusDelivered, OrderActionInvoice, nil, model.OrderStatusInvoiced},
		{"invoice pickup", model.OrderStatusReadyForPickup, OrderActionInvoice, nil, model.OrderStatusInvoiced},
		{"complete", model.OrderStatusToInvoice, OrderActionComplete, nil, model.OrderStatusCompleted},
		{"finish production", model.OrderStatusProduction, OrderActionFinishProduction, nil, model.OrderStatusQualityControl},
		{"finish stopped", model.OrderStatusStopped, OrderActionFinishProduction, nil, model.OrderStatusQualityControl},
		{"hold", model.OrderStatusProduction, OrderActionHold, nil, model.OrderStatusOnHold},
		{"resume to origin", model.OrderStatusOnHold, OrderActionResume, &production, model.OrderStatusProduction},
		{"resume without origin", model.OrderStatusOnHold, OrderActionResume, nil, model.OrderStatusPending},
		{"cancel", model.OrderStatusOnHold, OrderActionCancel, nil, model.OrderStatusCancelled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextOrderStatus(tc.from, tc.action, tc.heldFrom)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNextOrderStatusRejects(t *testing.T) {
	cases := []struct {
		from   model.OrderStatus
		action OrderAction
	}{
		{model.OrderStatusInvoiced, OrderActionCancel},
		{model.OrderStatusCompleted, OrderActionHold},
		{model.OrderStatusCancelled, OrderActionResume},
		{model.OrderStatusDelivered, OrderActionComplete},
		{model.OrderStatusProduction, OrderActionApproveQuality},
		{model.OrderStatusProduction, OrderActionInvoice},
		{model.OrderStatusInvoiced, OrderActionInvoice},
		{model.OrderStatusReceived, OrderActionTimersIdle},
	}
	for _, tc := range cases {
		_, err := NextOrderStatus(tc.from, tc.action, nil)
		assert.ErrorIs(t, err, ErrConflict, "%s via %s", tc.from, tc.action)
	}

	_, err := NextOrderStatus(model.OrderStatusReceived, OrderAction("teleport"), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestClosedStatusesHaveNoManualExit(t *testing.T) {
	for action, rule := range orderTransitions {
		if rule.system && action == OrderActionInvoice {
			continue
		}
		for _, from := range rule.from {
			assert.False(t, from.IsClosed(), "%s leaves closed status %s", action, from)
		}
	}
}

func TestParseOrderAction(t *testing.T) {
	action, ok := ParseOrderAction(" Approve_Quality ")
	assert.True(t, ok)
	assert.Equal(t, OrderActionApproveQuality, action)
	assert.False(t, action.IsSystem())

	action, ok = ParseOrderAction("invoice")
	assert.True(t, ok)
	assert.True(t, action.IsSystem())

	_, ok = ParseOrderAction("unknown")
	assert.False(t, ok)
}
