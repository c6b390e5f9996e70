package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/orders")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, "OS", cfg.Numbering.OrderPrefix)
	assert.Equal(t, "ORC", cfg.Numbering.BudgetPrefix)
	assert.Equal(t, 3, cfg.Numbering.Width)
	assert.Equal(t, 15, cfg.Budgets.ValidityDays)
	assert.False(t, cfg.Storage.Enabled())
	assert.False(t, cfg.Twilio.Enabled())
	assert.NotNil(t, cfg.Scheduler.Location)
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("DB_DSN", "")
	t.Setenv("JWT_ACCESS_SECRET", "secret")

	_, err := Load()
	assert.EqualError(t, err, "DB_DSN is required")

	t.Setenv("DB_DSN", "postgres://localhost/orders")
	t.Setenv("JWT_ACCESS_SECRET", "")

	_, err = Load()
	assert.EqualError(t, err, "JWT_ACCESS_SECRET is required")
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/orders")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("ORDER_NUMBER_PREFIX", "SO")
	t.Setenv("NUMBER_WIDTH", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("STORAGE_BUCKET", "docs")
	t.Setenv("STORAGE_PUBLIC_BASE_URL", "https://cdn.example/docs/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "SO", cfg.Numbering.OrderPrefix)
	assert.Equal(t, 5, cfg.Numbering.Width)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.CORSAllowedOrigins)
	assert.True(t, cfg.Storage.Enabled())
	assert.Equal(t, "https://cdn.example/docs", cfg.Storage.PublicBaseURL)
}

func TestLoadRejectsBadNumberWidth(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/orders")
	t.Setenv("JWT_ACCESS_SECRET", "secret")
	t.Setenv("NUMBER_WIDTH", "20")

	_, err := Load()
	assert.Error(t, err)
}
