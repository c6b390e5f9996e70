package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nurpe/rms-service-orders/internal/config"
)

type BudgetExpirer interface {
	ExpireBudgets(ctx context.Context) (int64, error)
}

type InvoicePublisher interface {
	PublishPending(ctx context.Context) (int, error)
}

const jobTimeout = 2 * time.Minute

// Scheduler runs the periodic maintenance jobs: expiring stale budgets and
// retrying invoice document uploads that failed after commit.
type Scheduler struct {
	cron *cron.Cron
	log  zerolog.Logger
}

func New(cfg config.SchedulerConfig, budgets BudgetExpirer, invoices InvoicePublisher, log zerolog.Logger) (*Scheduler, error) {
	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	s := &Scheduler{
		cron: cron.New(cron.WithLocation(location)),
		log:  log,
	}

	if budgets != nil && cfg.BudgetExpiry != "" {
		if err := s.add(cfg.BudgetExpiry, "expire_budgets", func(ctx context.Context) (int64, error) {
			return budgets.ExpireBudgets(ctx)
		}); err != nil {
			return nil, err
		}
	}
	if invoices != nil && cfg.PublishRetry != "" {
		if err := s.add(cfg.PublishRetry, "publish_invoices", func(ctx context.Context) (int64, error) {
			n, err := invoices.PublishPending(ctx)
			return int64(n), err
		}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(spec, name string, job func(ctx context.Context) (int64, error)) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(name, job) }); err != nil {
		return fmt.Errorf("schedule %s (%q): %w", name, spec, err)
	}
	return nil
}

func (s *Scheduler) run(name string, job func(ctx context.Context) (int64, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	started := time.Now()
	affected, err := job(ctx)
	event := s.log.Info()
	if err != nil {
		event = s.log.Error().Err(err)
	}
	event.Str("job", name).Int64("affected", affected).Dur("took", time.Since(started)).Msg("scheduled job finished")
}

func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
