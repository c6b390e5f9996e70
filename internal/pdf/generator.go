package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// document wraps gofpdf with the cp1252 translator so accented text renders
// with the core fonts.
type document struct {
	pdf  *gofpdf.Fpdf
	font string
	tr   func(string) string
}

func (g *Generator) newDocument(orientation string) *document {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	return &document{
		pdf:  pdf,
		font: g.fontName,
		tr:   pdf.UnicodeTranslatorFromDescriptor(""),
	}
}

func (d *document) line(style string, size, height float64, text, align string) {
	d.pdf.SetFont(d.font, style, size)
	d.pdf.CellFormat(0, height, d.tr(text), "", 1, align, false, 0, "")
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) RenderInvoice(doc model.InvoiceDocument) ([]byte, error) {
	d := g.newDocument("P")
	invoice := doc.Invoice

	addCompanyBlock(d, doc.Company)
	d.pdf.Ln(4)
	d.line("B", 14, 10, "FATURA", "C")
	d.line("", 11, 6, fmt.Sprintf("Período de %s a %s", formatDate(invoice.StartDate), formatDate(invoice.EndDate)), "C")
	d.line("", 9, 5, fmt.Sprintf("Emitida em %s", formatDate(invoice.CreatedAt)), "C")
	d.pdf.Ln(4)

	d.line("B", 11, 6, "Cliente", "L")
	d.line("", 10, 5, safeValue(invoice.ClientName), "L")
	d.pdf.Ln(3)

	d.line("B", 12, 8, "Ordens de serviço", "L")
	headers := []string{"Ordem", "Horas", "Valor (R$)"}
	colWidths := []float64{90, 40, 50}
	drawTableRow(d, headers, colWidths, true)
	for _, order := range invoice.Orders {
		drawTableRow(d, []string{
			order.OrderNumber,
			formatHours(order.TotalHours),
			formatAmount(order.SaleValue),
		}, colWidths, false)
	}

	if len(invoice.Extras) > 0 {
		d.pdf.Ln(3)
		d.line("B", 12, 8, "Adicionais", "L")
		extraWidths := []float64{130, 50}
		drawTableRow(d, []string{"Descrição", "Valor (R$)"}, extraWidths, true)
		for _, extra := range invoice.Extras {
			drawTableRow(d, []string{extra.Description, formatAmount(extra.Value)}, extraWidths, false)
		}
	}

	d.pdf.Ln(3)
	d.line("", 11, 6, fmt.Sprintf("Total de horas: %s", formatHours(invoice.TotalTime)), "R")
	d.line("B", 12, 7, fmt.Sprintf("Valor total: R$ %s", formatAmount(invoice.TotalValue)), "R")

	return d.bytes()
}

func (g *Generator) RenderBudget(doc model.BudgetDocument) ([]byte, error) {
	d := g.newDocument("P")
	budget := doc.Budget

	addCompanyBlock(d, doc.Company)
	d.pdf.Ln(4)
	d.line("B", 14, 10, fmt.Sprintf("ORÇAMENTO %s", budget.BudgetNumber), "C")
	d.line("", 10, 5, fmt.Sprintf("Emitido em %s", formatDate(budget.CreatedAt)), "C")
	if budget.ValidUntil != nil {
		d.line("", 10, 5, fmt.Sprintf("Válido até %s", formatDate(*budget.ValidUntil)), "C")
	}
	d.pdf.Ln(4)

	d.line("B", 11, 6, "Cliente", "L")
	d.pdf.SetFont(d.font, "", 10)
	for _, text := range []string{
		safeValue(budget.ClientName),
		fmt.Sprintf("Contato: %s", safeValue(budget.ClientContact)),
		fmt.Sprintf("Endereço: %s", safeValue(budget.ClientAddress)),
	} {
		d.pdf.MultiCell(0, 5, d.tr(text), "", "L", false)
	}
	if strings.TrimSpace(budget.Description) != "" {
		d.pdf.Ln(2)
		d.pdf.MultiCell(0, 5, d.tr(budget.Description), "", "L", false)
	}
	d.pdf.Ln(3)

	headers := []string{"Serviço", "Qtd.", "Unitário (R$)", "Total (R$)"}
	colWidths := []float64{90, 25, 32, 33}
	drawTableRow(d, headers, colWidths, true)
	for _, item := range budget.Items {
		name := item.ServiceName
		if desc := strings.TrimSpace(item.Description); desc != "" {
			name = fmt.Sprintf("%s - %s", name, desc)
		}
		drawTableRow(d, []string{
			truncate(name, 60),
			item.Quantity.String(),
			formatAmount(item.UnitPrice),
			formatAmount(item.TotalPrice),
		}, colWidths, false)
	}

	d.pdf.Ln(3)
	d.line("B", 12, 7, fmt.Sprintf("Total: R$ %s", formatAmount(budget.TotalValue)), "R")

	return d.bytes()
}

func addCompanyBlock(d *document, company model.Company) {
	if strings.TrimSpace(company.Name) == "" {
		return
	}
	d.line("B", 12, 6, company.Name, "L")
	d.pdf.SetFont(d.font, "", 9)
	for _, text := range []string{
		fmt.Sprintf("CNPJ: %s", safeValue(company.Document)),
		fmt.Sprintf("Endereço: %s", safeValue(company.Address)),
		fmt.Sprintf("Telefone: %s", safeValue(company.Phone)),
	} {
		d.pdf.MultiCell(0, 4.5, d.tr(text), "", "L", false)
	}
}

func drawTableRow(d *document, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	d.pdf.SetFont(d.font, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		d.pdf.CellFormat(widths[i], 8, d.tr(col), "1", 0, align, false, 0, "")
	}
	d.pdf.Ln(-1)
}

func truncate(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max-3]) + "..."
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(2)
}

func formatHours(value float64) string {
	return fmt.Sprintf("%.2f", value)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("02/01/2006")
}
