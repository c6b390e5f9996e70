package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/nurpe/rms-service-orders/internal/model"
)

type DocumentRenderer interface {
	RenderInvoice(doc model.InvoiceDocument) ([]byte, error)
	RenderBudget(doc model.BudgetDocument) ([]byte, error)
}

// BlobStore uploads a rendered document and returns its public URL.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) (string, error)
}

type MessageSender interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

type ExcelGenerator interface {
	Generate(report model.HoursReport) ([]byte, error)
}

// FileResult is a generated file ready to be streamed to the caller.
type FileResult struct {
	FileName    string
	ContentType string
	Content     []byte
}

const contentTypePDF = "application/pdf"

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}

func invoiceFileName(invoice model.Invoice) string {
	client := sanitizeFileName(invoice.ClientName)
	if client == "" {
		client = "client"
	}
	return fmt.Sprintf("invoice-%s-%s-%s.pdf",
		client,
		invoice.StartDate.Format("20060102"),
		invoice.EndDate.Format("20060102"),
	)
}

func budgetFileName(budget model.Budget) string {
	return fmt.Sprintf("budget-%s.pdf", sanitizeFileName(budget.BudgetNumber))
}
