package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

const (
	stepSelectOrders  = "select_orders"
	stepSnapshotHours = "snapshot_hours"
	stepCreateInvoice = "create_invoice"
	stepMarkInvoiced  = "mark_invoiced"

	publishBatchSize = 50
)

type InvoiceService struct {
	repo     *repository.Repository
	renderer DocumentRenderer
	blob     BlobStore
	company  model.Company
	log      zerolog.Logger
	now      func() time.Time
}

// NewInvoiceService wires invoice derivation. blob may be nil, in which case
// documents are only rendered on demand.
func NewInvoiceService(
	repo *repository.Repository,
	renderer DocumentRenderer,
	blob BlobStore,
	company model.Company,
	log zerolog.Logger,
) *InvoiceService {
	return &InvoiceService{
		repo:     repo,
		renderer: renderer,
		blob:     blob,
		company:  company,
		log:      log,
		now:      utcNow,
	}
}

type InvoiceExtraInput struct {
	Description string
	Value       decimal.Decimal
}

type CreateInvoiceInput struct {
	Principal model.Principal
	ClientID  uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Extras    []InvoiceExtraInput
}

type InvoiceResult struct {
	Invoice *model.Invoice
	Empty   bool
	Warning string
}

// Preview runs the selection and totals of CreateInvoice without saving.
func (s *InvoiceService) Preview(ctx context.Context, input CreateInvoiceInput) (*InvoiceResult, error) {
	if err := Authorize(input.Principal, ActionManageInvoices); err != nil {
		return nil, err
	}
	start, endExclusive, extras, err := validateInvoiceInput(input)
	if err != nil {
		return nil, err
	}

	client, err := s.repo.GetClient(ctx, input.ClientID)
	if err != nil {
		return nil, storeErr("client", err)
	}
	candidates, err := s.repo.ListInvoiceCandidates(ctx, input.ClientID, invoiceableStatuses)
	if err != nil {
		return nil, storeErr("service orders", err)
	}
	now := s.now()
	selected := selectBillableOrders(candidates, start, endExclusive, now)
	if len(selected) == 0 {
		return emptyInvoiceResult(), nil
	}
	logs, err := s.repo.ListTimeLogsByOrders(ctx, orderIDs(selected))
	if err != nil {
		return nil, storeErr("time logs", err)
	}

	invoice := buildInvoice(input.Principal, &client.ID, client.Name, start, endExclusive.AddDate(0, 0, -1), selected, logs, extras, now)
	return &InvoiceResult{Invoice: invoice}, nil
}

// CreateInvoice bills every eligible order of the client in the period. The
// invoice, its snapshots and the order status changes commit together or not
// at all.
func (s *InvoiceService) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*InvoiceResult, error) {
	if err := Authorize(input.Principal, ActionManageInvoices); err != nil {
		return nil, err
	}
	start, endExclusive, extras, err := validateInvoiceInput(input)
	if err != nil {
		return nil, err
	}

	var invoice *model.Invoice
	step := stepSelectOrders
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		client, err := tx.GetClient(ctx, input.ClientID)
		if err != nil {
			return storeErr("client", err)
		}
		candidates, err := tx.ListInvoiceCandidates(ctx, input.ClientID, invoiceableStatuses)
		if err != nil {
			return storeErr("service orders", err)
		}
		now := s.now()
		selected := selectBillableOrders(candidates, start, endExclusive, now)
		if len(selected) == 0 {
			return nil
		}

		step = stepSnapshotHours
		logs, err := tx.ListTimeLogsByOrders(ctx, orderIDs(selected))
		if err != nil {
			return storeErr("time logs", err)
		}
		invoice = buildInvoice(input.Principal, &client.ID, client.Name, start, endExclusive.AddDate(0, 0, -1), selected, logs, extras, now)
		invoice.PublishPending = s.blob != nil

		return s.persistInvoice(ctx, tx, invoice, selected, &step)
	})
	if err != nil {
		return nil, s.invoiceFailure(step, err)
	}
	if invoice == nil {
		s.log.Warn().
			Str("client_id", input.ClientID.String()).
			Time("start", start).
			Time("end", endExclusive).
			Msg("no orders to invoice")
		return emptyInvoiceResult(), nil
	}

	s.log.Info().
		Str("invoice_id", invoice.ID.String()).
		Int("orders", len(invoice.Orders)).
		Str("total_value", invoice.TotalValue.StringFixed(2)).
		Msg("invoice created")
	s.publishAfterCommit(ctx, invoice)
	return &InvoiceResult{Invoice: invoice}, nil
}

type ImmediateInvoiceInput struct {
	Principal model.Principal
	OrderID   uuid.UUID
	Extras    []InvoiceExtraInput
}

// InvoiceOrderNow bills a single order from the order view.
func (s *InvoiceService) InvoiceOrderNow(ctx context.Context, input ImmediateInvoiceInput) (*InvoiceResult, error) {
	if err := Authorize(input.Principal, ActionManageInvoices); err != nil {
		return nil, err
	}
	extras, err := validateExtras(input.Extras)
	if err != nil {
		return nil, err
	}

	var invoice *model.Invoice
	step := stepSelectOrders
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		order, err := tx.LockOrder(ctx, input.OrderID)
		if err != nil {
			return storeErr("service order", err)
		}
		if order.InvoiceID != nil {
			return conflict("order %s is already invoiced", order.OrderNumber)
		}
		if !CanApply(order.Status, OrderActionInvoice) {
			return conflict("order %s cannot be invoiced while %s", order.OrderNumber, order.Status)
		}

		step = stepSnapshotHours
		logs, err := tx.ListTimeLogsByOrders(ctx, []uuid.UUID{order.ID})
		if err != nil {
			return storeErr("time logs", err)
		}
		now := s.now()
		windowStart, windowEnd := order.BillingWindow(now)
		invoice = buildInvoice(input.Principal, order.ClientID, order.ClientName, dateOnly(windowStart), dateOnly(windowEnd),
			[]model.ServiceOrder{*order}, logs, extras, now)
		invoice.PublishPending = s.blob != nil

		return s.persistInvoice(ctx, tx, invoice, []model.ServiceOrder{*order}, &step)
	})
	if err != nil {
		return nil, s.invoiceFailure(step, err)
	}

	s.log.Info().
		Str("invoice_id", invoice.ID.String()).
		Str("order_id", input.OrderID.String()).
		Msg("order invoiced")
	s.publishAfterCommit(ctx, invoice)
	return &InvoiceResult{Invoice: invoice}, nil
}

func (s *InvoiceService) persistInvoice(
	ctx context.Context,
	tx *repository.Repository,
	invoice *model.Invoice,
	orders []model.ServiceOrder,
	step *string,
) error {
	*step = stepCreateInvoice
	if err := tx.CreateInvoice(ctx, invoice); err != nil {
		return storeErr("invoice", err)
	}

	*step = stepMarkInvoiced
	for _, order := range orders {
		ok, err := tx.MarkOrderInvoiced(ctx, order.ID, order.Status, invoice.ID)
		if err != nil {
			return storeErr("service order", err)
		}
		if !ok {
			return conflict("order %s changed while invoicing", order.OrderNumber)
		}
	}
	return nil
}

func (s *InvoiceService) invoiceFailure(step string, err error) error {
	// Validation-type failures before any write stay unwrapped.
	if step == stepSelectOrders {
		return err
	}
	s.log.Error().Err(err).Str("step", step).Msg("invoice workflow rolled back")
	return &WorkflowError{Workflow: "invoice", Step: step, Err: err}
}

func (s *InvoiceService) publishAfterCommit(ctx context.Context, invoice *model.Invoice) {
	if s.blob == nil {
		return
	}
	if err := s.publish(ctx, invoice); err != nil {
		s.log.Warn().
			Err(err).
			Str("invoice_id", invoice.ID.String()).
			Msg("invoice document publication deferred")
	}
}

func (s *InvoiceService) publish(ctx context.Context, invoice *model.Invoice) error {
	content, err := s.renderer.RenderInvoice(model.InvoiceDocument{Invoice: *invoice, Company: s.company})
	if err != nil {
		return fmt.Errorf("render invoice: %w", err)
	}
	key := fmt.Sprintf("invoices/%s/%s", invoice.ID, invoiceFileName(*invoice))
	url, err := s.blob.Put(ctx, key, contentTypePDF, content)
	if err != nil {
		return fmt.Errorf("upload invoice: %w", err)
	}
	if err := s.repo.SetInvoiceDocument(ctx, invoice.ID, url); err != nil {
		return storeErr("invoice", err)
	}
	invoice.DocumentURL = url
	invoice.PublishPending = false
	return nil
}

// PublishPending retries document publication for invoices committed while
// the blob store was unavailable.
func (s *InvoiceService) PublishPending(ctx context.Context) (int, error) {
	if s.blob == nil {
		return 0, nil
	}
	invoices, err := s.repo.ListPendingPublication(ctx, publishBatchSize)
	if err != nil {
		return 0, storeErr("invoices", err)
	}
	published := 0
	for i := range invoices {
		if err := s.publish(ctx, &invoices[i]); err != nil {
			s.log.Warn().Err(err).Str("invoice_id", invoices[i].ID.String()).Msg("invoice publication retry failed")
			continue
		}
		published++
	}
	return published, nil
}

func (s *InvoiceService) GetInvoice(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Invoice, error) {
	if err := Authorize(principal, ActionManageInvoices); err != nil {
		return nil, err
	}
	invoice, err := s.repo.GetInvoice(ctx, id)
	if err != nil {
		return nil, storeErr("invoice", err)
	}
	return invoice, nil
}

func (s *InvoiceService) ListInvoices(ctx context.Context, principal model.Principal, filter repository.InvoiceFilter) ([]model.Invoice, error) {
	if err := Authorize(principal, ActionManageInvoices); err != nil {
		return nil, err
	}
	invoices, err := s.repo.ListInvoices(ctx, filter)
	if err != nil {
		return nil, storeErr("invoices", err)
	}
	return invoices, nil
}

func (s *InvoiceService) RenderInvoicePDF(ctx context.Context, principal model.Principal, id uuid.UUID) (*FileResult, error) {
	invoice, err := s.GetInvoice(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderInvoice(model.InvoiceDocument{Invoice: *invoice, Company: s.company})
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName:    invoiceFileName(*invoice),
		ContentType: contentTypePDF,
		Content:     content,
	}, nil
}

func validateInvoiceInput(input CreateInvoiceInput) (time.Time, time.Time, []model.InvoiceExtra, error) {
	if input.ClientID == uuid.Nil {
		return time.Time{}, time.Time{}, nil, invalid("client_id is required")
	}
	if input.StartDate.IsZero() || input.EndDate.IsZero() {
		return time.Time{}, time.Time{}, nil, invalid("start_date and end_date are required")
	}
	start := dateOnly(input.StartDate)
	end := dateOnly(input.EndDate)
	if start.After(end) {
		return time.Time{}, time.Time{}, nil, invalid("start_date must be before or equal to end_date")
	}
	extras, err := validateExtras(input.Extras)
	if err != nil {
		return time.Time{}, time.Time{}, nil, err
	}
	return start, end.Add(24 * time.Hour), extras, nil
}

func validateExtras(inputs []InvoiceExtraInput) ([]model.InvoiceExtra, error) {
	extras := make([]model.InvoiceExtra, 0, len(inputs))
	for i, extra := range inputs {
		description := strings.TrimSpace(extra.Description)
		if description == "" {
			return nil, invalid("extra %d needs a description", i+1)
		}
		if extra.Value.IsNegative() {
			return nil, invalid("extra %d value must not be negative", i+1)
		}
		extras = append(extras, model.InvoiceExtra{Description: description, Value: extra.Value})
	}
	return extras, nil
}

// selectBillableOrders keeps orders whose billing window lies inside
// [start, endExclusive).
func selectBillableOrders(orders []model.ServiceOrder, start, endExclusive, now time.Time) []model.ServiceOrder {
	selected := make([]model.ServiceOrder, 0, len(orders))
	for _, order := range orders {
		if order.InvoiceID != nil {
			continue
		}
		windowStart, windowEnd := order.BillingWindow(now)
		if windowStart.Before(start) || !windowEnd.Before(endExclusive) {
			continue
		}
		selected = append(selected, order)
	}
	return selected
}

func buildInvoice(
	principal model.Principal,
	clientID *uuid.UUID,
	clientName string,
	start, end time.Time,
	orders []model.ServiceOrder,
	logs map[uuid.UUID][]model.TaskTimeLog,
	extras []model.InvoiceExtra,
	now time.Time,
) *model.Invoice {
	snapshots := make([]model.InvoiceOrder, 0, len(orders))
	for _, order := range orders {
		snapshots = append(snapshots, model.InvoiceOrder{
			ServiceOrderID: order.ID,
			OrderNumber:    order.OrderNumber,
			SaleValue:      order.SaleValueOrZero(),
			TotalHours:     model.AccumulatedHours(logs[order.ID], now),
		})
	}
	totalValue, totalTime := model.InvoiceTotals(snapshots, extras)

	return &model.Invoice{
		ClientID:   clientID,
		ClientName: clientName,
		StartDate:  start,
		EndDate:    end,
		TotalValue: totalValue,
		TotalTime:  totalTime,
		CreatedBy:  principal.UserID,
		Orders:     snapshots,
		Extras:     extras,
	}
}

func emptyInvoiceResult() *InvoiceResult {
	return &InvoiceResult{
		Empty:   true,
		Warning: "no uninvoiced orders found for the client in the selected period",
	}
}

func orderIDs(orders []model.ServiceOrder) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(orders))
	for _, order := range orders {
		ids = append(ids, order.ID)
	}
	return ids
}
