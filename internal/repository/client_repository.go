package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/nurpe/rms-service-orders/internal/model"
)

func (r *Repository) CreateClient(ctx context.Context, client *model.Client) error {
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *Repository) GetClient(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	var client model.Client
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error; err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *Repository) ListClients(ctx context.Context, search string) ([]model.Client, error) {
	query := r.db.WithContext(ctx).Model(&model.Client{})
	if search = strings.TrimSpace(search); search != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}

	var clients []model.Client
	if err := query.Order("name ASC").Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}
