package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

type ReportService struct {
	repo  *repository.Repository
	excel ExcelGenerator
	log   zerolog.Logger
}

func NewReportService(repo *repository.Repository, excel ExcelGenerator, log zerolog.Logger) *ReportService {
	return &ReportService{repo: repo, excel: excel, log: log}
}

type GenerateReportInput struct {
	Principal   model.Principal
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// BuildHoursReport aggregates closed time logs of the period per order and
// per worker.
func (s *ReportService) BuildHoursReport(ctx context.Context, input GenerateReportInput) (*model.HoursReport, error) {
	if err := Authorize(input.Principal, ActionViewReports); err != nil {
		return nil, err
	}
	if input.PeriodStart.IsZero() || input.PeriodEnd.IsZero() {
		return nil, invalid("period dates are required")
	}
	periodStart := dateOnly(input.PeriodStart)
	periodEnd := dateOnly(input.PeriodEnd)
	if periodStart.After(periodEnd) {
		return nil, invalid("period_start must be before or equal to period_end")
	}
	endExclusive := periodEnd.Add(24 * time.Hour)

	var (
		work   []repository.LoggedWork
		orders []model.OrderHours
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		work, err = s.repo.ListLoggedWork(gCtx, periodStart, endExclusive)
		if err != nil {
			return storeErr("time logs", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		orders, err = s.repo.ListActiveOrders(gCtx, periodStart, endExclusive)
		if err != nil {
			return storeErr("service orders", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := aggregateHours(orders, work)
	report.PeriodStart = periodStart
	report.PeriodEnd = periodEnd
	return report, nil
}

func (s *ReportService) GenerateHoursReport(ctx context.Context, input GenerateReportInput) (*FileResult, error) {
	report, err := s.BuildHoursReport(ctx, input)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*report)
	if err != nil {
		return nil, err
	}
	return &FileResult{
		FileName:    buildReportFileName(*report),
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Content:     content,
	}, nil
}

func aggregateHours(orders []model.OrderHours, work []repository.LoggedWork) *model.HoursReport {
	index := make(map[uuid.UUID]int, len(orders))
	for i := range orders {
		index[orders[i].OrderID] = i
	}
	perOrderWorker := make(map[uuid.UUID]map[uuid.UUID]*model.WorkerHours)
	workers := make(map[uuid.UUID]*model.WorkerHours)

	report := &model.HoursReport{}
	for _, entry := range work {
		hours := entry.Hours()
		report.TotalHours += hours

		pos, ok := index[entry.ServiceOrderID]
		if !ok {
			orders = append(orders, model.OrderHours{OrderID: entry.ServiceOrderID})
			pos = len(orders) - 1
			index[entry.ServiceOrderID] = pos
		}
		orders[pos].Hours += hours

		byWorker, ok := perOrderWorker[entry.ServiceOrderID]
		if !ok {
			byWorker = make(map[uuid.UUID]*model.WorkerHours)
			perOrderWorker[entry.ServiceOrderID] = byWorker
		}
		addWorkerHours(byWorker, entry.WorkerID, hours)
		addWorkerHours(workers, entry.WorkerID, hours)
	}

	for i := range orders {
		orders[i].Workers = sortedWorkers(perOrderWorker[orders[i].OrderID])
	}
	report.Orders = orders
	report.Workers = sortedWorkers(workers)
	return report
}

func addWorkerHours(m map[uuid.UUID]*model.WorkerHours, workerID uuid.UUID, hours float64) {
	entry, ok := m[workerID]
	if !ok {
		entry = &model.WorkerHours{WorkerID: workerID}
		m[workerID] = entry
	}
	entry.LogCount++
	entry.Hours += hours
}

func sortedWorkers(m map[uuid.UUID]*model.WorkerHours) []model.WorkerHours {
	result := make([]model.WorkerHours, 0, len(m))
	for _, entry := range m {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Hours != result[j].Hours {
			return result[i].Hours > result[j].Hours
		}
		return result[i].WorkerID.String() < result[j].WorkerID.String()
	})
	return result
}

func buildReportFileName(report model.HoursReport) string {
	period := fmt.Sprintf("%s-%s", report.PeriodStart.Format("20060102"), report.PeriodEnd.Format("20060102"))
	return fmt.Sprintf("hours-report-%s.xlsx", period)
}
