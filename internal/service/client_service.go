package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

type ClientService struct {
	repo *repository.Repository
	log  zerolog.Logger
}

func NewClientService(repo *repository.Repository, log zerolog.Logger) *ClientService {
	return &ClientService{repo: repo, log: log}
}

type CreateClientInput struct {
	Principal model.Principal
	Name      string
	Contact   string
	Address   string
	Document  string
}

func (s *ClientService) CreateClient(ctx context.Context, input CreateClientInput) (*model.Client, error) {
	if err := Authorize(input.Principal, ActionManageClients); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("client name is required")
	}

	client := &model.Client{
		Name:     name,
		Contact:  strings.TrimSpace(input.Contact),
		Address:  strings.TrimSpace(input.Address),
		Document: strings.TrimSpace(input.Document),
	}
	if err := s.repo.CreateClient(ctx, client); err != nil {
		return nil, storeErr("client", err)
	}
	return client, nil
}

func (s *ClientService) GetClient(ctx context.Context, principal model.Principal, id uuid.UUID) (*model.Client, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, storeErr("client", err)
	}
	return client, nil
}

func (s *ClientService) ListClients(ctx context.Context, principal model.Principal, search string) ([]model.Client, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	clients, err := s.repo.ListClients(ctx, search)
	if err != nil {
		return nil, storeErr("clients", err)
	}
	return clients, nil
}
