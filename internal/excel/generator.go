package excel

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nurpe/rms-service-orders/internal/model"
)

const (
	summarySheet = "Resumo"
	workersSheet = "Colaboradores"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(report model.HoursReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	g.writeSummary(file, summarySheet, report)

	if _, err := file.NewSheet(workersSheet); err != nil {
		return nil, err
	}
	g.writeWorkers(file, workersSheet, report.Workers)

	usedNames := map[string]struct{}{summarySheet: {}, workersSheet: {}}
	for _, order := range report.Orders {
		if len(order.Workers) == 0 {
			continue
		}
		sheetName := buildSheetName(order, usedNames)
		usedNames[sheetName] = struct{}{}

		if _, err := file.NewSheet(sheetName); err != nil {
			return nil, err
		}
		g.writeOrderDetail(file, sheetName, order)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.HoursReport) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Relatório de horas")
	set("A2", "Início do período")
	set("B2", formatDate(report.PeriodStart))
	set("A3", "Fim do período")
	set("B3", formatDate(report.PeriodEnd))
	set("A4", "Ordens")
	set("B4", len(report.Orders))
	set("A5", "Total de horas")
	set("B5", roundHours(report.TotalHours))

	tableRow := 7
	headers := []string{"Ordem", "Cliente", "Status", "Tarefas", "Horas", "Valor (R$)"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, tableRow)
		set(cell, header)
	}
	for i, order := range report.Orders {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), order.OrderNumber)
		set(fmt.Sprintf("B%d", row), order.ClientName)
		set(fmt.Sprintf("C%d", row), string(order.Status))
		set(fmt.Sprintf("D%d", row), order.TaskCount)
		set(fmt.Sprintf("E%d", row), roundHours(order.Hours))
		set(fmt.Sprintf("F%d", row), order.SaleValue.StringFixed(2))
	}

	_ = file.SetColWidth(sheet, "A", "A", 22)
	_ = file.SetColWidth(sheet, "B", "B", 36)
	_ = file.SetColWidth(sheet, "C", "C", 22)
	_ = file.SetColWidth(sheet, "D", "F", 14)
}

func (g *Generator) writeWorkers(file *excelize.File, sheet string, workers []model.WorkerHours) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Colaborador")
	set("B1", "Registros")
	set("C1", "Horas")
	for i, worker := range workers {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), worker.WorkerID.String())
		set(fmt.Sprintf("B%d", row), worker.LogCount)
		set(fmt.Sprintf("C%d", row), roundHours(worker.Hours))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "C", 14)
}

func (g *Generator) writeOrderDetail(file *excelize.File, sheet string, order model.OrderHours) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Ordem")
	set("B1", order.OrderNumber)
	set("A2", "Cliente")
	set("B2", order.ClientName)
	set("A3", "Horas")
	set("B3", roundHours(order.Hours))

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Colaborador")
	set(fmt.Sprintf("B%d", tableRow), "Registros")
	set(fmt.Sprintf("C%d", tableRow), "Horas")
	for i, worker := range order.Workers {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), worker.WorkerID.String())
		set(fmt.Sprintf("B%d", row), worker.LogCount)
		set(fmt.Sprintf("C%d", row), roundHours(worker.Hours))
	}

	_ = file.SetColWidth(sheet, "A", "A", 40)
	_ = file.SetColWidth(sheet, "B", "C", 14)
}

func buildSheetName(order model.OrderHours, used map[string]struct{}) string {
	base := strings.TrimSpace(order.OrderNumber)
	if base == "" {
		base = order.OrderID.String()
	}
	base = sanitizeSheetName(base)

	if len(base) > 31 {
		base = base[:31]
	}

	nameCandidate := base
	counter := 2
	for {
		if _, exists := used[nameCandidate]; !exists {
			return nameCandidate
		}
		suffix := fmt.Sprintf("-%d", counter)
		trimmed := base
		if len(trimmed)+len(suffix) > 31 {
			trimmed = trimmed[:31-len(suffix)]
		}
		nameCandidate = trimmed + suffix
		counter++
	}
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Ordem"
	}

	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	value = strings.TrimSpace(value)
	if value == "" {
		return "Ordem"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func roundHours(value float64) float64 {
	return float64(int64(value*100+0.5)) / 100
}
