package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository groups the store operations of the service. A Repository bound
// to a transaction is handed to Transaction callbacks.
type Repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Transaction runs fn inside one database transaction. Returning an error
// from fn rolls back every write made through tx.
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}
