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
)

func sampleItems() []BudgetItemInput {
	return []BudgetItemInput{
		{ServiceName: "Corte de vidro", Quantity: decimal.NewFromInt(2), UnitPrice: decimal.RequireFromString("10.50")},
		{ServiceName: "Instalação", Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5)},
	}
}

func (f *fixture) createBudget(items []BudgetItemInput) *model.Budget {
	f.t.Helper()
	client := f.createClient("Vidraçaria Sol")
	budget, err := f.budgets.CreateBudget(f.ctx, CreateBudgetInput{
		Principal: f.manager,
		ClientID:  &client.ID,
		Items:     items,
	})
	require.NoError(f.t, err)
	return budget
}

func TestCreateBudgetTotals(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(sampleItems())

	assert.Equal(t, "ORC001", budget.BudgetNumber)
	assert.Equal(t, model.BudgetStatusDraft, budget.Status)
	assert.Equal(t, "26.00", budget.TotalValue.StringFixed(2))
	require.Len(t, budget.Items, 2)
	assert.Equal(t, "21.00", budget.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "5.00", budget.Items[1].TotalPrice.StringFixed(2))
	assert.Equal(t, "Vidraçaria Sol", budget.ClientName)
	require.NotNil(t, budget.ValidUntil)
	assert.Equal(t, time.Date(2026, 3, 25, 0, 0, 0, 0, time.UTC), *budget.ValidUntil)

	stored, err := f.budgets.GetBudget(f.ctx, f.manager, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, "26.00", stored.TotalValue.StringFixed(2))

	second := f.createBudget(nil)
	assert.Equal(t, "ORC002", second.BudgetNumber)
	assert.True(t, second.TotalValue.IsZero())
}

func TestCreateBudgetValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.budgets.CreateBudget(f.ctx, CreateBudgetInput{Principal: f.worker, ClientName: "A"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = f.budgets.CreateBudget(f.ctx, CreateBudgetInput{Principal: f.manager})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.budgets.CreateBudget(f.ctx, CreateBudgetInput{
		Principal:  f.manager,
		ClientName: "A",
		Items:      []BudgetItemInput{{ServiceName: "x", Quantity: decimal.NewFromInt(-1), UnitPrice: decimal.NewFromInt(1)}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdateBudgetItems(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(sampleItems())

	updated, err := f.budgets.UpdateBudgetItems(f.ctx, f.manager, budget.ID, []BudgetItemInput{
		{ServiceName: "Espelho", Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.NewFromInt(40)},
	})
	require.NoError(t, err)
	assert.Equal(t, "60.00", updated.TotalValue.StringFixed(2))
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "Espelho", updated.Items[0].ServiceName)
}

func TestSendBudgetWithoutStorage(t *testing.T) {
	f := newFixture(t)
	budget := f.createBudget(sampleItems())

	_, err := f.budgets.SendBudget(f.ctx, f.manager, budget.ID)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSendBudgetSharesLink(t *testing.T) {
	blob := &mockBlobStore{}
	sender := &mockSender{}
	f := newFixture(t, withBlob(blob), withSender(sender))
	budget := f.createBudget(sampleItems())

	url := "https://files.example.com/budgets/ORC001.pdf"
	blob.On("Put", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, "budgets/") && strings.HasSuffix(key, "budget-ORC001.pdf")
	}), contentTypePDF, []byte("%PDF-budget")).Return(url, nil).Once()
	sender.On("SendWhatsApp", mock.Anything, "(11) 98765-4321", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "ORC001") && strings.Contains(body, url)
	})).Return(nil).Once()

	result, err := f.budgets.SendBudget(f.ctx, f.manager, budget.ID)
	require.NoError(t, err)
	assert.True(t, result.MessageSent)
	assert.Equal(t, url, result.DocumentURL)
	assert.True(t, strings.HasPrefix(result.WhatsAppLink, "https://wa.me/5511987654321?text="))
	assert.Equal(t, model.BudgetStatusSent, result.Budget.Status)

	stored, err := f.budgets.GetBudget(f.ctx, f.manager, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusSent, stored.Status)
	assert.Equal(t, url, stored.DocumentURL)

	_, err = f.budgets.UpdateBudgetItems(f.ctx, f.manager, budget.ID, sampleItems())
	assert.ErrorIs(t, err, ErrConflict)

	blob.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestSendBudgetMessageFailureIsReported(t *testing.T) {
	blob := &mockBlobStore{}
	sender := &mockSender{}
	f := newFixture(t, withBlob(blob), withSender(sender))
	budget := f.createBudget(sampleItems())

	blob.On("Put", mock.Anything, mock.Anything, contentTypePDF, mock.Anything).Return("https://files.example.com/b.pdf", nil)
	sender.On("SendWhatsApp", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("twilio down"))

	result, err := f.budgets.SendBudget(f.ctx, f.manager, budget.ID)
	require.NoError(t, err)
	assert.False(t, result.MessageSent)
	assert.Equal(t, "twilio down", result.MessageError)
	assert.Equal(t, model.BudgetStatusSent, result.Budget.Status)
}

func TestSendBudgetUploadFailure(t *testing.T) {
	blob := &mockBlobStore{}
	f := newFixture(t, withBlob(blob))
	budget := f.createBudget(sampleItems())

	blob.On("Put", mock.Anything, mock.Anything, contentTypePDF, mock.Anything).Return("", errors.New("timeout"))

	_, err := f.budgets.SendBudget(f.ctx, f.manager, budget.ID)
	var workflow *WorkflowError
	require.ErrorAs(t, err, &workflow)
	assert.Equal(t, stepUploadBudget, workflow.Step)
	assert.Empty(t, workflow.Committed)

	stored, err := f.budgets.GetBudget(f.ctx, f.manager, budget.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusDraft, stored.Status)
}

func TestDecideAndExpireBudgets(t *testing.T) {
	blob := &mockBlobStore{}
	f := newFixture(t, withBlob(blob))
	blob.On("Put", mock.Anything, mock.Anything, contentTypePDF, mock.Anything).Return("https://files.example.com/b.pdf", nil)

	draft := f.createBudget(sampleItems())
	_, err := f.budgets.DecideBudget(f.ctx, f.manager, draft.ID, true)
	assert.ErrorIs(t, err, ErrConflict)

	approved := f.createBudget(sampleItems())
	_, err = f.budgets.SendBudget(f.ctx, f.manager, approved.ID)
	require.NoError(t, err)
	decided, err := f.budgets.DecideBudget(f.ctx, f.manager, approved.ID, true)
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusApproved, decided.Status)

	rejected := f.createBudget(sampleItems())
	_, err = f.budgets.SendBudget(f.ctx, f.manager, rejected.ID)
	require.NoError(t, err)
	decided, err = f.budgets.DecideBudget(f.ctx, f.manager, rejected.ID, false)
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusRejected, decided.Status)

	stale := f.createBudget(sampleItems())
	_, err = f.budgets.SendBudget(f.ctx, f.manager, stale.ID)
	require.NoError(t, err)

	expired, err := f.budgets.ExpireBudgets(f.ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	f.clock.Advance(16 * 24 * time.Hour)
	expired, err = f.budgets.ExpireBudgets(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), expired)

	stored, err := f.budgets.GetBudget(f.ctx, f.manager, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusExpired, stored.Status)
	stored, err = f.budgets.GetBudget(f.ctx, f.manager, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BudgetStatusApproved, stored.Status)
}
