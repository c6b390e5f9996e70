package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

func TestCreateOrderNumbersAreSequential(t *testing.T) {
	f := newFixture(t)

	var numbers []string
	for i := 0; i < 12; i++ {
		order := f.createOrder(nil, "", "10")
		numbers = append(numbers, order.OrderNumber)
		assert.Equal(t, model.OrderStatusReceived, order.Status)
		assert.Equal(t, model.UrgencyMedium, order.Urgency)
	}

	assert.Equal(t, "OS001", numbers[0])
	assert.Equal(t, "OS002", numbers[1])
	assert.Equal(t, "OS012", numbers[11])
	for i := 1; i < len(numbers); i++ {
		assert.Less(t, numbers[i-1], numbers[i])
	}
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	negative := decimal.NewFromInt(-1)
	missing := uuid.New()

	cases := []struct {
		name  string
		input CreateOrderInput
		err   error
	}{
		{"worker", CreateOrderInput{Principal: f.worker, ClientName: "A"}, ErrPermissionDenied},
		{"no client", CreateOrderInput{Principal: f.manager}, ErrInvalidInput},
		{"bad start", CreateOrderInput{Principal: f.manager, ClientName: "A", Status: model.OrderStatusProduction}, ErrInvalidInput},
		{"bad urgency", CreateOrderInput{Principal: f.manager, ClientName: "A", Urgency: "asap"}, ErrInvalidInput},
		{"negative value", CreateOrderInput{Principal: f.manager, ClientName: "A", SaleValue: &negative}, ErrInvalidInput},
		{"unknown client", CreateOrderInput{Principal: f.manager, ClientID: &missing}, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.orders.CreateOrder(f.ctx, tc.input)
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCreateOrderSnapshotsClient(t *testing.T) {
	f := newFixture(t)
	client := f.createClient("Padaria Central")

	order := f.createOrder(&client.ID, model.OrderStatusPending, "250.50")
	assert.Equal(t, "Padaria Central", order.ClientName)
	assert.Equal(t, client.Contact, order.ClientContact)
	assert.True(t, order.SaleValueOrZero().Equal(decimal.RequireFromString("250.5")))

	orders, err := f.orders.ListOrders(f.ctx, f.worker, repository.OrderFilter{ClientID: &client.ID})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestWorkerCannotApproveQuality(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")
	task := f.createTask(order.ID, &f.worker.UserID)
	f.workFor(f.worker, task.ID, time.Hour)
	_, err := f.tasks.SetTaskStatus(f.ctx, SetTaskStatusInput{Principal: f.worker, TaskID: task.ID, Status: model.TaskStatusCompleted})
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusQualityControl, f.reloadOrder(order.ID).Status)

	_, err = f.transition(f.worker, order.ID, OrderActionApproveQuality)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, model.OrderStatusQualityControl, f.reloadOrder(order.ID).Status)

	for _, p := range []model.Principal{f.admin, f.manager} {
		updated, err := f.transition(p, order.ID, OrderActionApproveQuality)
		require.NoError(t, err)
		assert.Equal(t, model.OrderStatusReadyForPickup, updated.Status)

		_, err = f.transition(p, order.ID, OrderActionRejectQuality)
		assert.ErrorIs(t, err, ErrConflict)

		// walk back for the next caller
		require.NoError(t, f.repo.UpdateOrderFields(f.ctx, order.ID, map[string]interface{}{"status": model.OrderStatusQualityControl}))
	}
}

func TestTransitionRejectsSystemActions(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")

	_, err := f.transition(f.admin, order.ID, OrderActionTimerStarted)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.transition(f.admin, order.ID, OrderAction("warp"))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = f.transition(f.admin, uuid.New(), OrderActionPlan)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHoldAndResume(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")
	_, err := f.transition(f.manager, order.ID, OrderActionPlan)
	require.NoError(t, err)

	_, err = f.orders.Transition(f.ctx, TransitionInput{Principal: f.manager, OrderID: order.ID, Action: OrderActionHold})
	assert.ErrorIs(t, err, ErrInvalidInput)

	held, err := f.orders.Transition(f.ctx, TransitionInput{
		Principal: f.manager,
		OrderID:   order.ID,
		Action:    OrderActionHold,
		Reason:    "aguardando vidro",
	})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusOnHold, held.Status)
	require.NotNil(t, held.HeldFromStatus)
	assert.Equal(t, model.OrderStatusPlanning, *held.HeldFromStatus)

	calls, err := f.orders.ListOpenCalls(f.ctx, f.manager)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "aguardando vidro", calls[0].Reason)

	resumed, err := f.transition(f.manager, order.ID, OrderActionResume)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPlanning, resumed.Status)
	assert.Nil(t, resumed.HeldFromStatus)

	require.NoError(t, f.orders.ResolveCall(f.ctx, f.manager, calls[0].ID))
	assert.ErrorIs(t, f.orders.ResolveCall(f.ctx, f.manager, calls[0].ID), ErrNotFound)
}

func TestCompleteRequiresFinishedTasks(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")
	task := f.createTask(order.ID, &f.worker.UserID)
	require.NoError(t, f.repo.UpdateOrderFields(f.ctx, order.ID, map[string]interface{}{"status": model.OrderStatusReadyForPickup}))

	_, err := f.transition(f.manager, order.ID, OrderActionComplete)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.tasks.SetTaskStatus(f.ctx, SetTaskStatusInput{Principal: f.manager, TaskID: task.ID, Status: model.TaskStatusCompleted})
	require.NoError(t, err)

	completed, err := f.transition(f.manager, order.ID, OrderActionComplete)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCompleted, completed.Status)

	_, err = f.transition(f.manager, order.ID, OrderActionCancel)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateAndDeleteOrder(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")
	task := f.createTask(order.ID, &f.worker.UserID)
	f.workFor(f.worker, task.ID, time.Hour)

	description := "Espelho 2x1"
	value := decimal.NewFromInt(180)
	updated, err := f.orders.UpdateOrder(f.ctx, UpdateOrderInput{
		Principal:          f.manager,
		OrderID:            order.ID,
		ServiceDescription: &description,
		SaleValue:          &value,
	})
	require.NoError(t, err)
	assert.Equal(t, description, updated.ServiceDescription)
	assert.True(t, updated.SaleValueOrZero().Equal(value))

	_, err = f.orders.UpdateOrder(f.ctx, UpdateOrderInput{Principal: f.manager, OrderID: order.ID})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.orders.DeleteOrder(f.ctx, f.manager, order.ID))
	_, err = f.orders.GetOrder(f.ctx, f.manager, order.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.repo.GetTask(f.ctx, task.ID)
	assert.Error(t, err)
}

func TestOrderWithoutTasksReachesInvoice(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "250")

	_, err := f.transition(f.manager, order.ID, OrderActionStartProduction)
	require.NoError(t, err)

	finished, err := f.transition(f.manager, order.ID, OrderActionFinishProduction)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusQualityControl, finished.Status)
	require.NotNil(t, finished.ServiceEndDate)

	_, err = f.transition(f.manager, order.ID, OrderActionApproveQuality)
	require.NoError(t, err)

	result, err := f.invoices.InvoiceOrderNow(f.ctx, ImmediateInvoiceInput{Principal: f.manager, OrderID: order.ID})
	require.NoError(t, err)
	require.False(t, result.Empty)
	assert.True(t, result.Invoice.TotalValue.Equal(decimal.NewFromInt(250)))
	assert.Zero(t, result.Invoice.TotalTime)
	assert.Equal(t, model.OrderStatusInvoiced, f.reloadOrder(order.ID).Status)
}

func TestFinishProductionGuards(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")
	task := f.createTask(order.ID, &f.worker.UserID)

	log, err := f.timers.StartTimer(f.ctx, StartTimerInput{Principal: f.worker, TaskID: task.ID})
	require.NoError(t, err)

	_, err = f.transition(f.worker, order.ID, OrderActionFinishProduction)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.transition(f.manager, order.ID, OrderActionFinishProduction)
	assert.ErrorIs(t, err, ErrConflict)

	f.clock.Advance(time.Hour)
	_, err = f.timers.StopTimer(f.ctx, StopTimerInput{Principal: f.worker, LogID: log.ID})
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusStopped, f.reloadOrder(order.ID).Status)

	_, err = f.transition(f.manager, order.ID, OrderActionFinishProduction)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.tasks.SetTaskStatus(f.ctx, SetTaskStatusInput{Principal: f.manager, TaskID: task.ID, Status: model.TaskStatusCancelled})
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusStopped, f.reloadOrder(order.ID).Status)

	finished, err := f.transition(f.manager, order.ID, OrderActionFinishProduction)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusQualityControl, finished.Status)
}

func TestHoldAndCancelStopRunningTimers(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "100")
	task := f.createTask(order.ID, &f.worker.UserID)

	log, err := f.timers.StartTimer(f.ctx, StartTimerInput{Principal: f.worker, TaskID: task.ID})
	require.NoError(t, err)
	f.clock.Advance(time.Hour)

	held, err := f.transition(f.manager, order.ID, OrderActionHold)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusOnHold, held.Status)

	closed, err := f.repo.GetTimeLog(f.ctx, log.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.InDelta(t, 1.0, closed.Hours(f.clock.Now()), 1e-9)

	resumed, err := f.transition(f.manager, order.ID, OrderActionResume)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusStopped, resumed.Status)

	log, err = f.timers.StartTimer(f.ctx, StartTimerInput{Principal: f.worker, TaskID: task.ID})
	require.NoError(t, err)
	f.clock.Advance(30 * time.Minute)

	_, err = f.transition(f.manager, order.ID, OrderActionCancel)
	require.NoError(t, err)

	closed, err = f.repo.GetTimeLog(f.ctx, log.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsOpen())
	assert.InDelta(t, 0.5, closed.Hours(f.clock.Now()), 1e-9)

	open, err := f.repo.CountOpenTimeLogsForOrder(f.ctx, order.ID)
	require.NoError(t, err)
	assert.Zero(t, open)
}
