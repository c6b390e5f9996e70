package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rms-service-orders/internal/config"
	"github.com/nurpe/rms-service-orders/internal/db"
	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type stubRenderer struct{}

func (stubRenderer) RenderInvoice(model.InvoiceDocument) ([]byte, error) {
	return []byte("%PDF-invoice"), nil
}

func (stubRenderer) RenderBudget(model.BudgetDocument) ([]byte, error) {
	return []byte("%PDF-budget"), nil
}

type stubExcel struct {
	report model.HoursReport
}

func (s *stubExcel) Generate(report model.HoursReport) ([]byte, error) {
	s.report = report
	return []byte("xlsx"), nil
}

type mockBlobStore struct {
	mock.Mock
}

func (m *mockBlobStore) Put(ctx context.Context, key, contentType string, body []byte) (string, error) {
	args := m.Called(ctx, key, contentType, body)
	return args.String(0), args.Error(1)
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendWhatsApp(ctx context.Context, to, body string) error {
	args := m.Called(ctx, to, body)
	return args.Error(0)
}

type fixture struct {
	t     *testing.T
	ctx   context.Context
	repo  *repository.Repository
	clock *fakeClock

	clients   *ClientService
	orders    *OrderService
	tasks     *TaskService
	timers    *TimerService
	invoices  *InvoiceService
	budgets   *BudgetService
	inventory *InventoryService
	reports   *ReportService
	excel     *stubExcel

	admin   model.Principal
	manager model.Principal
	worker  model.Principal
}

type fixtureOption func(*fixtureDeps)

type fixtureDeps struct {
	blob   BlobStore
	sender MessageSender
}

func withBlob(blob BlobStore) fixtureOption {
	return func(d *fixtureDeps) { d.blob = blob }
}

func withSender(sender MessageSender) fixtureOption {
	return func(d *fixtureDeps) { d.sender = sender }
}

func newFixture(t *testing.T, opts ...fixtureOption) *fixture {
	t.Helper()

	database, err := db.NewInMemory(t.Name())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := database.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	deps := &fixtureDeps{}
	for _, opt := range opts {
		opt(deps)
	}

	cfg := &config.Config{
		Numbering: config.NumberingConfig{OrderPrefix: "OS", BudgetPrefix: "ORC", Width: 3},
		Budgets:   config.BudgetConfig{ValidityDays: 15},
	}
	company := model.Company{Name: "Oficina Teste"}
	log := zerolog.Nop()
	repo := repository.New(database)
	clock := &fakeClock{now: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}

	f := &fixture{
		t:         t,
		ctx:       context.Background(),
		repo:      repo,
		clock:     clock,
		clients:   NewClientService(repo, log),
		orders:    NewOrderService(repo, cfg, log),
		tasks:     NewTaskService(repo, log),
		timers:    NewTimerService(repo, log),
		invoices:  NewInvoiceService(repo, stubRenderer{}, deps.blob, company, log),
		budgets:   NewBudgetService(repo, stubRenderer{}, deps.blob, deps.sender, company, cfg, log),
		inventory: NewInventoryService(repo, log),
		excel:     &stubExcel{},
		admin:     model.Principal{UserID: uuid.New(), Role: model.UserRoleAdmin, Name: "Admin"},
		manager:   model.Principal{UserID: uuid.New(), Role: model.UserRoleManager, Name: "Gerente"},
		worker:    model.Principal{UserID: uuid.New(), Role: model.UserRoleWorker, Name: "Técnico"},
	}
	f.reports = NewReportService(repo, f.excel, log)

	f.orders.now = clock.Now
	f.tasks.now = clock.Now
	f.timers.now = clock.Now
	f.invoices.now = clock.Now
	f.budgets.now = clock.Now
	return f
}

func (f *fixture) createClient(name string) *model.Client {
	f.t.Helper()
	client, err := f.clients.CreateClient(f.ctx, CreateClientInput{
		Principal: f.manager,
		Name:      name,
		Contact:   "(11) 98765-4321",
	})
	require.NoError(f.t, err)
	return client
}

func (f *fixture) createOrder(clientID *uuid.UUID, status model.OrderStatus, saleValue string) *model.ServiceOrder {
	f.t.Helper()
	value := decimal.RequireFromString(saleValue)
	input := CreateOrderInput{
		Principal:          f.manager,
		ClientID:           clientID,
		ServiceDescription: "Box de vidro",
		SaleValue:          &value,
		Status:             status,
	}
	if clientID == nil {
		input.ClientName = "Balcão"
	}
	order, err := f.orders.CreateOrder(f.ctx, input)
	require.NoError(f.t, err)
	return order
}

func (f *fixture) createTask(orderID uuid.UUID, assignee *uuid.UUID) *model.ServiceOrderTask {
	f.t.Helper()
	task, err := f.tasks.CreateTask(f.ctx, CreateTaskInput{
		Principal:        f.manager,
		OrderID:          orderID,
		Title:            "Instalação",
		AssignedWorkerID: assignee,
	})
	require.NoError(f.t, err)
	return task
}

func (f *fixture) reloadOrder(id uuid.UUID) *model.ServiceOrder {
	f.t.Helper()
	order, err := f.repo.GetOrder(f.ctx, id)
	require.NoError(f.t, err)
	return order
}

func (f *fixture) reloadTask(id uuid.UUID) *model.ServiceOrderTask {
	f.t.Helper()
	task, err := f.repo.GetTask(f.ctx, id)
	require.NoError(f.t, err)
	return task
}

// workFor starts and stops a timer of d on the task as the given principal.
func (f *fixture) workFor(p model.Principal, taskID uuid.UUID, d time.Duration) *model.TaskTimeLog {
	f.t.Helper()
	log, err := f.timers.StartTimer(f.ctx, StartTimerInput{Principal: p, TaskID: taskID})
	require.NoError(f.t, err)
	f.clock.Advance(d)
	stopped, err := f.timers.StopTimer(f.ctx, StopTimerInput{Principal: p, LogID: log.ID})
	require.NoError(f.t, err)
	return stopped
}

func (f *fixture) transition(p model.Principal, orderID uuid.UUID, action OrderAction) (*model.ServiceOrder, error) {
	return f.orders.Transition(f.ctx, TransitionInput{Principal: p, OrderID: orderID, Action: action, Reason: "teste"})
}
