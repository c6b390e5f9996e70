package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/config"
	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/notify"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

const (
	stepUploadBudget = "upload_document"
	stepMarkSent     = "mark_sent"
)

type BudgetService struct {
	repo         *repository.Repository
	renderer     DocumentRenderer
	blob         BlobStore
	sender       MessageSender
	company      model.Company
	numbering    config.NumberingConfig
	validityDays int
	log          zerolog.Logger
	now          func() time.Time
}

// NewBudgetService wires the budget calculator. blob and sender may be nil
// when storage or messaging is not configured.
func NewBudgetService(
	repo *repository.Repository,
	renderer DocumentRenderer,
	blob BlobStore,
	sender MessageSender,
	company model.Company,
	cfg *config.Config,
	log zerolog.Logger,
) *BudgetService {
	return &BudgetService{
		repo:         repo,
		renderer:     renderer,
		blob:         blob,
		sender:       sender,
		company:      company,
		numbering:    cfg.Numbering,
		validityDays: cfg.Budgets.ValidityDays,
		log:          log,
		now:          utcNow,
	}
}

type BudgetItemInput struct {
	ServiceName string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

type CreateBudgetInput struct {
	Principal     model.Principal
	ClientID      *uuid.UUID
	ClientName    string
	ClientContact string
	ClientAddress string
	Description   string
	ValidUntil    *time.Time
	Items         []BudgetItemInput
}

func (s *BudgetService) CreateBudget(ctx context.Context, input CreateBudgetInput) (*model.Budget, error) {
	if err := Authorize(input.Principal, ActionManageBudgets); err != nil {
		return nil, err
	}
	if input.ClientID == nil && strings.TrimSpace(input.ClientName) == "" {
		return nil, invalid("client_id or client_name is required")
	}
	items, err := buildBudgetItems(input.Items)
	if err != nil {
		return nil, err
	}

	validUntil := input.ValidUntil
	if validUntil == nil && s.validityDays > 0 {
		until := dateOnly(s.now()).AddDate(0, 0, s.validityDays)
		validUntil = &until
	}

	budget := &model.Budget{
		ClientID:      input.ClientID,
		ClientName:    strings.TrimSpace(input.ClientName),
		ClientContact: strings.TrimSpace(input.ClientContact),
		ClientAddress: strings.TrimSpace(input.ClientAddress),
		Description:   strings.TrimSpace(input.Description),
		Status:        model.BudgetStatusDraft,
		ValidUntil:    validUntil,
		TotalValue:    model.BudgetTotal(items),
		CreatedBy:     input.Principal.UserID,
		Items:         items,
	}

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if input.ClientID != nil {
			client, err := tx.GetClient(ctx, *input.ClientID)
			if err != nil {
				return storeErr("client", err)
			}
			if budget.ClientName == "" {
				budget.ClientName = client.Name
			}
			if budget.ClientContact == "" {
				budget.ClientContact = client.Contact
			}
			if budget.ClientAddress == "" {
				budget.ClientAddress = client.Address
			}
		}
		n, err := tx.NextSequence(ctx, model.SequenceBudget)
		if err != nil {
			return storeErr("budget number", err)
		}
		budget.BudgetNumber = model.FormatNumber(s.numbering.BudgetPrefix, s.numbering.Width, n)
		return storeErr("budget "+budget.BudgetNumber, tx.CreateBudget(ctx, budget))
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("budget_id", budget.ID.String()).
		Str("budget_number", budget.BudgetNumber).
		Str("total_value", budget.TotalValue.StringFixed(2)).
		Msg("budget created")
	return budget, nil
}

// UpdateBudgetItems replaces the items of a draft budget and recomputes its
// total.
func (s *BudgetService) UpdateBudgetItems(ctx context.Context, principal model.Principal, budgetID uuid.UUID, inputs []BudgetItemInput) (*model.Budget, error) {
	if err := Authorize(principal, ActionManageBudgets); err != nil {
		return nil, err
	}
	items, err := buildBudgetItems(inputs)
	if err != nil {
		return nil, err
	}
	total := model.BudgetTotal(items)

	budget, err := s.repo.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, storeErr("budget", err)
	}
	if budget.Status != model.BudgetStatusDraft {
		return nil, conflict("budget %s is %s and can no longer be edited", budget.BudgetNumber, budget.Status)
	}
	ok, err := s.repo.ReplaceBudgetItems(ctx, budgetID, items, total)
	if err != nil {
		return nil, storeErr("budget items", err)
	}
	if !ok {
		return nil, conflict("budget %s changed status concurrently", budget.BudgetNumber)
	}
	return s.GetBudget(ctx, principal, budgetID)
}

func (s *BudgetService) GetBudget(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Budget, error) {
	if err := Authorize(principal, ActionManageBudgets); err != nil {
		return nil, err
	}
	budget, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return nil, storeErr("budget", err)
	}
	return budget, nil
}

func (s *BudgetService) ListBudgets(ctx context.Context, principal model.Principal, status *model.BudgetStatus) ([]model.Budget, error) {
	if err := Authorize(principal, ActionManageBudgets); err != nil {
		return nil, err
	}
	budgets, err := s.repo.ListBudgets(ctx, status)
	if err != nil {
		return nil, storeErr("budgets", err)
	}
	return budgets, nil
}

func (s *BudgetService) RenderBudgetPDF(ctx context.Context, principal model.Principal, id uuid.UUID) (*FileResult, error) {
	budget, err := s.GetBudget(ctx, principal, id)
	if err != nil {
		return nil, err
	}
	content, err := s.renderer.RenderBudget(model.BudgetDocument{Budget: *budget, Company: s.company})
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName:    budgetFileName(*budget),
		ContentType: contentTypePDF,
		Content:     content,
	}, nil
}

type ShareResult struct {
	Budget       *model.Budget
	DocumentURL  string
	WhatsAppLink string
	MessageSent  bool
	MessageError string
}

// SendBudget publishes the budget document, marks the budget sent and shares
// the link with the client over WhatsApp.
func (s *BudgetService) SendBudget(ctx context.Context, principal model.Principal, budgetID uuid.UUID) (*ShareResult, error) {
	if err := Authorize(principal, ActionManageBudgets); err != nil {
		return nil, err
	}
	if s.blob == nil {
		return nil, fmt.Errorf("document storage %w", ErrNotConfigured)
	}
	budget, err := s.repo.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, storeErr("budget", err)
	}
	if budget.Status != model.BudgetStatusDraft && budget.Status != model.BudgetStatusSent {
		return nil, conflict("budget %s is %s", budget.BudgetNumber, budget.Status)
	}
	if len(budget.Items) == 0 {
		return nil, invalid("budget %s has no items", budget.BudgetNumber)
	}

	content, err := s.renderer.RenderBudget(model.BudgetDocument{Budget: *budget, Company: s.company})
	if err != nil {
		return nil, fmt.Errorf("render budget: %w", err)
	}
	key := fmt.Sprintf("budgets/%s/%s", budget.ID, budgetFileName(*budget))
	url, err := s.blob.Put(ctx, key, contentTypePDF, content)
	if err != nil {
		return nil, &WorkflowError{Workflow: "send budget", Step: stepUploadBudget, Err: err}
	}

	ok, err := s.repo.TransitionBudget(ctx, budget.ID, budget.Status, model.BudgetStatusSent, map[string]interface{}{
		"document_url": url,
	})
	if err == nil && !ok {
		err = conflict("budget %s changed status concurrently", budget.BudgetNumber)
	}
	if err != nil {
		return nil, &WorkflowError{
			Workflow:  "send budget",
			Step:      stepMarkSent,
			Committed: []string{stepUploadBudget},
			Err:       storeErr("budget", err),
		}
	}
	budget.Status = model.BudgetStatusSent
	budget.DocumentURL = url

	message := notify.BudgetMessage(s.company.Name, budget.BudgetNumber, url)
	result := &ShareResult{
		Budget:       budget,
		DocumentURL:  url,
		WhatsAppLink: notify.WhatsAppLink(budget.ClientContact, message),
	}
	if s.sender != nil && budget.ClientContact != "" {
		if err := s.sender.SendWhatsApp(ctx, budget.ClientContact, message); err != nil {
			s.log.Warn().Err(err).Str("budget_id", budget.ID.String()).Msg("budget message not delivered")
			result.MessageError = err.Error()
		} else {
			result.MessageSent = true
		}
	}

	s.log.Info().
		Str("budget_id", budget.ID.String()).
		Str("document_url", url).
		Bool("message_sent", result.MessageSent).
		Msg("budget sent")
	return result, nil
}

// DecideBudget records the client's answer on a sent budget.
func (s *BudgetService) DecideBudget(ctx context.Context, principal model.Principal, budgetID uuid.UUID, approved bool) (*model.Budget, error) {
	if err := Authorize(principal, ActionManageBudgets); err != nil {
		return nil, err
	}
	to := model.BudgetStatusRejected
	if approved {
		to = model.BudgetStatusApproved
	}
	ok, err := s.repo.TransitionBudget(ctx, budgetID, model.BudgetStatusSent, to, nil)
	if err != nil {
		return nil, storeErr("budget", err)
	}
	budget, err := s.repo.GetBudget(ctx, budgetID)
	if err != nil {
		return nil, storeErr("budget", err)
	}
	if !ok {
		return nil, conflict("budget %s is %s, only sent budgets can be answered", budget.BudgetNumber, budget.Status)
	}
	return budget, nil
}

// ExpireBudgets marks sent budgets past their validity as expired.
func (s *BudgetService) ExpireBudgets(ctx context.Context) (int64, error) {
	count, err := s.repo.ExpireBudgets(ctx, dateOnly(s.now()))
	if err != nil {
		return 0, storeErr("budgets", err)
	}
	return count, nil
}

func buildBudgetItems(inputs []BudgetItemInput) ([]model.BudgetItem, error) {
	items := make([]model.BudgetItem, 0, len(inputs))
	for i, input := range inputs {
		name := strings.TrimSpace(input.ServiceName)
		if name == "" {
			return nil, invalid("item %d needs a service name", i+1)
		}
		if input.Quantity.IsNegative() {
			return nil, invalid("item %d quantity must not be negative", i+1)
		}
		if input.UnitPrice.IsNegative() {
			return nil, invalid("item %d unit price must not be negative", i+1)
		}
		items = append(items, model.BudgetItem{
			ServiceName: name,
			Description: strings.TrimSpace(input.Description),
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
		})
	}
	return items, nil
}
