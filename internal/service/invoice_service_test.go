package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

func marchPeriod(f *fixture) CreateInvoiceInput {
	return CreateInvoiceInput{
		Principal: f.manager,
		StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

// finishOrder runs an order through a tracked task and quality approval so it
// lands in ready_for_pickup.
func (f *fixture) finishOrder(order *model.ServiceOrder, worked time.Duration) {
	f.t.Helper()
	task := f.createTask(order.ID, &f.worker.UserID)
	f.workFor(f.worker, task.ID, worked)
	_, err := f.tasks.SetTaskStatus(f.ctx, SetTaskStatusInput{Principal: f.worker, TaskID: task.ID, Status: model.TaskStatusCompleted})
	require.NoError(f.t, err)
	_, err = f.transition(f.manager, order.ID, OrderActionApproveQuality)
	require.NoError(f.t, err)
}

func TestSingleOrderLifecycleToInvoice(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "480")
	require.Equal(t, "OS001", order.OrderNumber)
	task := f.createTask(order.ID, &f.worker.UserID)

	log, err := f.timers.StartTimer(f.ctx, StartTimerInput{Principal: f.worker, TaskID: task.ID})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProduction, f.reloadOrder(order.ID).Status)

	f.clock.Advance(150 * time.Minute)
	_, err = f.timers.StopTimer(f.ctx, StopTimerInput{Principal: f.worker, LogID: log.ID})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusStopped, f.reloadOrder(order.ID).Status)

	_, err = f.tasks.SetTaskStatus(f.ctx, SetTaskStatusInput{Principal: f.worker, TaskID: task.ID, Status: model.TaskStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusQualityControl, f.reloadOrder(order.ID).Status)

	updated, err := f.transition(f.manager, order.ID, OrderActionApproveQuality)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusReadyForPickup, updated.Status)

	updated, err = f.transition(f.manager, order.ID, OrderActionScheduleInstallation)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusAwaitingInstallation, updated.Status)

	result, err := f.invoices.InvoiceOrderNow(f.ctx, ImmediateInvoiceInput{Principal: f.manager, OrderID: order.ID})
	require.NoError(t, err)
	require.False(t, result.Empty)
	invoice := result.Invoice
	assert.True(t, invoice.TotalValue.Equal(decimal.NewFromInt(480)))
	assert.InDelta(t, 2.5, invoice.TotalTime, 1e-9)
	require.Len(t, invoice.Orders, 1)
	assert.Equal(t, "OS001", invoice.Orders[0].OrderNumber)

	final := f.reloadOrder(order.ID)
	assert.Equal(t, model.OrderStatusInvoiced, final.Status)
	require.NotNil(t, final.InvoiceID)
	assert.Equal(t, invoice.ID, *final.InvoiceID)
	require.NotNil(t, final.ServiceStartDate)
	require.NotNil(t, final.ServiceEndDate)
	assert.Equal(t, 150*time.Minute, final.ServiceEndDate.Sub(*final.ServiceStartDate))

	_, err = f.invoices.InvoiceOrderNow(f.ctx, ImmediateInvoiceInput{Principal: f.manager, OrderID: order.ID})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestClientInvoiceWithExtras(t *testing.T) {
	f := newFixture(t)
	client := f.createClient("Construtora Alfa")
	order := f.createOrder(&client.ID, model.OrderStatusPending, "300")
	f.finishOrder(order, time.Hour)

	input := marchPeriod(f)
	input.ClientID = client.ID
	input.Extras = []InvoiceExtraInput{
		{Description: "Frete", Value: decimal.NewFromInt(50)},
		{Description: "Taxa", Value: decimal.NewFromInt(20)},
	}

	preview, err := f.invoices.Preview(f.ctx, input)
	require.NoError(t, err)
	assert.True(t, preview.Invoice.TotalValue.Equal(decimal.NewFromInt(370)))
	assert.Equal(t, model.OrderStatusReadyForPickup, f.reloadOrder(order.ID).Status)

	result, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)
	require.False(t, result.Empty)
	assert.True(t, result.Invoice.TotalValue.Equal(decimal.NewFromInt(370)))
	assert.InDelta(t, 1.0, result.Invoice.TotalTime, 1e-9)
	assert.Equal(t, "Construtora Alfa", result.Invoice.ClientName)

	stored, err := f.invoices.GetInvoice(f.ctx, f.manager, result.Invoice.ID)
	require.NoError(t, err)
	require.Len(t, stored.Extras, 2)
	assert.Equal(t, "Frete", stored.Extras[0].Description)
	assert.Equal(t, "Taxa", stored.Extras[1].Description)
	assert.True(t, stored.TotalValue.Equal(decimal.NewFromInt(370)))
	assert.Equal(t, model.OrderStatusInvoiced, f.reloadOrder(order.ID).Status)

	again, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)
	assert.True(t, again.Empty)
	assert.Nil(t, again.Invoice)
}

func TestInvoiceSnapshotIsImmutable(t *testing.T) {
	f := newFixture(t)
	client := f.createClient("Construtora Alfa")
	order := f.createOrder(&client.ID, model.OrderStatusPending, "300")
	f.finishOrder(order, time.Hour)

	input := marchPeriod(f)
	input.ClientID = client.ID
	result, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)

	require.NoError(t, f.repo.UpdateOrderFields(f.ctx, order.ID, map[string]interface{}{
		"sale_value": decimal.NewNullDecimal(decimal.NewFromInt(999)),
	}))
	value := decimal.NewFromInt(1)
	_, err = f.orders.UpdateOrder(f.ctx, UpdateOrderInput{Principal: f.manager, OrderID: order.ID, SaleValue: &value})
	assert.ErrorIs(t, err, ErrConflict)
	assert.ErrorIs(t, f.orders.DeleteOrder(f.ctx, f.manager, order.ID), ErrConflict)

	stored, err := f.invoices.GetInvoice(f.ctx, f.manager, result.Invoice.ID)
	require.NoError(t, err)
	assert.True(t, stored.TotalValue.Equal(decimal.NewFromInt(300)))
	require.Len(t, stored.Orders, 1)
	assert.True(t, stored.Orders[0].SaleValue.Equal(decimal.NewFromInt(300)))
}

func TestInvoiceSelectsOnlyOrdersInsidePeriod(t *testing.T) {
	f := newFixture(t)
	client := f.createClient("Construtora Alfa")

	inside := f.createOrder(&client.ID, model.OrderStatusPending, "100")
	f.finishOrder(inside, time.Hour)

	running := f.createOrder(&client.ID, model.OrderStatusPending, "200")
	_ = f.createTask(running.ID, &f.worker.UserID)

	f.clock.Advance(40 * 24 * time.Hour)
	late := f.createOrder(&client.ID, model.OrderStatusPending, "400")
	f.finishOrder(late, time.Hour)

	input := marchPeriod(f)
	input.ClientID = client.ID
	result, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)
	require.Len(t, result.Invoice.Orders, 1)
	assert.Equal(t, inside.ID, result.Invoice.Orders[0].ServiceOrderID)
	assert.Nil(t, f.reloadOrder(running.ID).InvoiceID)
	assert.Nil(t, f.reloadOrder(late.ID).InvoiceID)
}

func TestInvoiceEmptyResult(t *testing.T) {
	f := newFixture(t)
	client := f.createClient("Sem Pedidos")
	input := marchPeriod(f)
	input.ClientID = client.ID

	result, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)
	assert.True(t, result.Empty)
	assert.NotEmpty(t, result.Warning)

	invoices, err := f.invoices.ListInvoices(f.ctx, f.manager, repository.InvoiceFilter{ClientID: &client.ID})
	require.NoError(t, err)
	assert.Empty(t, invoices)
}

func TestInvoiceValidation(t *testing.T) {
	f := newFixture(t)
	client := f.createClient("Construtora Alfa")

	input := marchPeriod(f)
	input.ClientID = client.ID
	input.StartDate, input.EndDate = input.EndDate, input.StartDate
	_, err := f.invoices.CreateInvoice(f.ctx, input)
	assert.ErrorIs(t, err, ErrInvalidInput)

	input = marchPeriod(f)
	input.ClientID = client.ID
	input.Extras = []InvoiceExtraInput{{Description: " ", Value: decimal.NewFromInt(1)}}
	_, err = f.invoices.CreateInvoice(f.ctx, input)
	assert.ErrorIs(t, err, ErrInvalidInput)

	input = marchPeriod(f)
	input.Principal = f.worker
	input.ClientID = client.ID
	_, err = f.invoices.CreateInvoice(f.ctx, input)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestInvoicePublication(t *testing.T) {
	blob := &mockBlobStore{}
	f := newFixture(t, withBlob(blob))
	client := f.createClient("Construtora Alfa")
	order := f.createOrder(&client.ID, model.OrderStatusPending, "300")
	f.finishOrder(order, time.Hour)

	isInvoiceKey := mock.MatchedBy(func(key string) bool { return strings.HasPrefix(key, "invoices/") })
	blob.On("Put", mock.Anything, isInvoiceKey, contentTypePDF, mock.Anything).
		Return("", errors.New("bucket unavailable")).Once()

	input := marchPeriod(f)
	input.ClientID = client.ID
	result, err := f.invoices.CreateInvoice(f.ctx, input)
	require.NoError(t, err)
	assert.True(t, result.Invoice.PublishPending)
	assert.Equal(t, model.OrderStatusInvoiced, f.reloadOrder(order.ID).Status)

	blob.On("Put", mock.Anything, isInvoiceKey, contentTypePDF, mock.Anything).
		Return("https://files.example.com/invoice.pdf", nil).Once()

	published, err := f.invoices.PublishPending(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, published)

	stored, err := f.invoices.GetInvoice(f.ctx, f.manager, result.Invoice.ID)
	require.NoError(t, err)
	assert.False(t, stored.PublishPending)
	assert.Equal(t, "https://files.example.com/invoice.pdf", stored.DocumentURL)
	assert.True(t, stored.TotalValue.Equal(decimal.NewFromInt(300)))

	published, err = f.invoices.PublishPending(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, published)
	blob.AssertExpectations(t)
}

func TestRenderInvoicePDF(t *testing.T) {
	f := newFixture(t)
	order := f.createOrder(nil, model.OrderStatusPending, "80")
	f.finishOrder(order, time.Hour)
	result, err := f.invoices.InvoiceOrderNow(f.ctx, ImmediateInvoiceInput{Principal: f.admin, OrderID: order.ID})
	require.NoError(t, err)

	file, err := f.invoices.RenderInvoicePDF(f.ctx, f.manager, result.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, contentTypePDF, file.ContentType)
	assert.True(t, strings.HasPrefix(file.FileName, "invoice-Balc"))
	assert.True(t, strings.HasSuffix(file.FileName, ".pdf"))
}
