package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/rms-service-orders/internal/model"
)

var migrationModels = []interface{}{
	&model.Sequence{},
	&model.Client{},
	&model.ServiceOrder{},
	&model.ServiceOrderTask{},
	&model.TaskTimeLog{},
	&model.Invoice{},
	&model.InvoiceOrder{},
	&model.InvoiceExtra{},
	&model.Budget{},
	&model.BudgetItem{},
	&model.InventoryItem{},
	&model.InventoryMovement{},
	&model.TaskProductUsage{},
	&model.OrderCall{},
}

// Statements that AutoMigrate cannot express. They must stay valid on both
// PostgreSQL and SQLite.
var migrationStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_task_time_logs_open
		ON task_time_logs (task_id, worker_id)
		WHERE end_time IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_service_orders_client_status
		ON service_orders (client_id, status)
		WHERE invoice_id IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_task_time_logs_open_worker
		ON task_time_logs (worker_id)
		WHERE end_time IS NULL;`,
	`CREATE INDEX IF NOT EXISTS idx_budgets_valid_until
		ON budgets (valid_until)
		WHERE status = 'sent';`,
	`INSERT INTO sequences (name, value)
		VALUES ('service_order', 0), ('budget', 0)
		ON CONFLICT DO NOTHING;`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(migrationModels...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
