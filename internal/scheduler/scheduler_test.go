package scheduler

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/rms-service-orders/internal/config"
)

type fakeExpirer struct{ calls int }

func (f *fakeExpirer) ExpireBudgets(context.Context) (int64, error) {
	f.calls++
	return 3, nil
}

type fakePublisher struct{ calls int }

func (f *fakePublisher) PublishPending(context.Context) (int, error) {
	f.calls++
	return 0, errors.New("storage down")
}

func TestNewRegistersJobs(t *testing.T) {
	cfg := config.SchedulerConfig{BudgetExpiry: "0 3 * * *", PublishRetry: "*/15 * * * *"}

	s, err := New(cfg, &fakeExpirer{}, &fakePublisher{}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Jobs())

	s, err = New(cfg, &fakeExpirer{}, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(config.SchedulerConfig{BudgetExpiry: "every day"}, &fakeExpirer{}, nil, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expire_budgets")
}

func TestRunSwallowsJobErrors(t *testing.T) {
	publisher := &fakePublisher{}
	s, err := New(config.SchedulerConfig{}, nil, nil, zerolog.Nop())
	require.NoError(t, err)

	s.run("publish_invoices", func(ctx context.Context) (int64, error) {
		n, err := publisher.PublishPending(ctx)
		return int64(n), err
	})
	assert.Equal(t, 1, publisher.calls)

	s.Start()
	s.Stop(context.Background())
}
