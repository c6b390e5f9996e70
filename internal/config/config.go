package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type NumberingConfig struct {
	OrderPrefix  string
	BudgetPrefix string
	Width        int
}

type BudgetConfig struct {
	ValidityDays int
}

type StorageConfig struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicBaseURL   string
	AccessKeyID     string
	SecretAccessKey string
}

func (c StorageConfig) Enabled() bool {
	return c.Bucket != ""
}

type TwilioConfig struct {
	AccountSID   string
	AuthToken    string
	WhatsAppFrom string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.WhatsAppFrom != ""
}

type CompanyConfig struct {
	Name     string
	Document string
	Address  string
	Phone    string
}

type SchedulerConfig struct {
	BudgetExpiry   string
	PublishRetry   string
	Location       *time.Location
	LocationString string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	Numbering   NumberingConfig
	Budgets     BudgetConfig
	Storage     StorageConfig
	Twilio      TwilioConfig
	Company     CompanyConfig
	Scheduler   SchedulerConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Numbering: NumberingConfig{
			OrderPrefix:  v.GetString("ORDER_NUMBER_PREFIX"),
			BudgetPrefix: v.GetString("BUDGET_NUMBER_PREFIX"),
			Width:        v.GetInt("NUMBER_WIDTH"),
		},
		Budgets: BudgetConfig{
			ValidityDays: v.GetInt("BUDGET_VALIDITY_DAYS"),
		},
		Storage: StorageConfig{
			Bucket:          v.GetString("STORAGE_BUCKET"),
			Region:          v.GetString("STORAGE_REGION"),
			Endpoint:        v.GetString("STORAGE_ENDPOINT"),
			PublicBaseURL:   strings.TrimRight(v.GetString("STORAGE_PUBLIC_BASE_URL"), "/"),
			AccessKeyID:     v.GetString("STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("STORAGE_SECRET_ACCESS_KEY"),
		},
		Twilio: TwilioConfig{
			AccountSID:   v.GetString("TWILIO_ACCOUNT_SID"),
			AuthToken:    v.GetString("TWILIO_AUTH_TOKEN"),
			WhatsAppFrom: v.GetString("TWILIO_WHATSAPP_FROM"),
		},
		Company: CompanyConfig{
			Name:     v.GetString("COMPANY_NAME"),
			Document: v.GetString("COMPANY_DOCUMENT"),
			Address:  v.GetString("COMPANY_ADDRESS"),
			Phone:    v.GetString("COMPANY_PHONE"),
		},
		Scheduler: SchedulerConfig{
			BudgetExpiry:   v.GetString("SCHEDULER_BUDGET_EXPIRY"),
			PublishRetry:   v.GetString("SCHEDULER_PUBLISH_RETRY"),
			LocationString: v.GetString("SCHEDULER_TIMEZONE"),
		},
	}

	applyDefaults(cfg)

	loc, err := time.LoadLocation(cfg.Scheduler.LocationString)
	if err != nil {
		return nil, fmt.Errorf("invalid SCHEDULER_TIMEZONE: %w", err)
	}
	cfg.Scheduler.Location = loc

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Numbering.OrderPrefix == "" {
		cfg.Numbering.OrderPrefix = "OS"
	}
	if cfg.Numbering.BudgetPrefix == "" {
		cfg.Numbering.BudgetPrefix = "ORC"
	}
	if cfg.Numbering.Width == 0 {
		cfg.Numbering.Width = 3
	}
	if cfg.Budgets.ValidityDays == 0 {
		cfg.Budgets.ValidityDays = 15
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Company.Name == "" {
		cfg.Company.Name = "RM Soluções"
	}
	if cfg.Scheduler.BudgetExpiry == "" {
		cfg.Scheduler.BudgetExpiry = "0 3 * * *"
	}
	if cfg.Scheduler.PublishRetry == "" {
		cfg.Scheduler.PublishRetry = "*/15 * * * *"
	}
	if cfg.Scheduler.LocationString == "" {
		cfg.Scheduler.LocationString = "America/Sao_Paulo"
	}
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.Numbering.Width < 1 || cfg.Numbering.Width > 12 {
		return fmt.Errorf("NUMBER_WIDTH must be between 1 and 12")
	}
	if cfg.Budgets.ValidityDays < 0 {
		return fmt.Errorf("BUDGET_VALIDITY_DAYS must not be negative")
	}
	if cfg.Storage.Enabled() && cfg.Storage.PublicBaseURL == "" && cfg.Storage.Endpoint == "" {
		return fmt.Errorf("STORAGE_PUBLIC_BASE_URL is required when STORAGE_BUCKET is set")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
