package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/rms-service-orders/internal/model"
	"github.com/nurpe/rms-service-orders/internal/repository"
)

type InventoryService struct {
	repo *repository.Repository
	log  zerolog.Logger
}

func NewInventoryService(repo *repository.Repository, log zerolog.Logger) *InventoryService {
	return &InventoryService{repo: repo, log: log}
}

type CreateItemInput struct {
	Principal       model.Principal
	Name            string
	Unit            string
	InitialQuantity decimal.Decimal
	MinimumQuantity decimal.Decimal
}

func (s *InventoryService) CreateItem(ctx context.Context, input CreateItemInput) (*model.InventoryItem, error) {
	if err := Authorize(input.Principal, ActionManageInventory); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("item name is required")
	}
	if input.InitialQuantity.IsNegative() || input.MinimumQuantity.IsNegative() {
		return nil, invalid("quantities must not be negative")
	}

	item := &model.InventoryItem{
		Name:            name,
		Unit:            strings.TrimSpace(input.Unit),
		CurrentQuantity: input.InitialQuantity,
		MinimumQuantity: input.MinimumQuantity,
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.CreateInventoryItem(ctx, item); err != nil {
			return storeErr("inventory item", err)
		}
		if !item.CurrentQuantity.IsPositive() {
			return nil
		}
		return storeErr("inventory movement", tx.CreateInventoryMovement(ctx, &model.InventoryMovement{
			ItemID:   item.ID,
			Type:     model.MovementIn,
			Quantity: item.CurrentQuantity,
			UserID:   input.Principal.UserID,
			Notes:    "initial stock",
		}))
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context, principal model.Principal) ([]model.InventoryItem, error) {
	if err := Authorize(principal, ActionUseInventory); err != nil {
		return nil, err
	}
	items, err := s.repo.ListInventoryItems(ctx)
	if err != nil {
		return nil, storeErr("inventory items", err)
	}
	return items, nil
}

type RestockInput struct {
	Principal model.Principal
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	Notes     string
}

func (s *InventoryService) Restock(ctx context.Context, input RestockInput) (*model.InventoryItem, error) {
	if err := Authorize(input.Principal, ActionManageInventory); err != nil {
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		return nil, invalid("quantity must be positive")
	}

	var item *model.InventoryItem
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.IncrementStock(ctx, input.ItemID, input.Quantity); err != nil {
			return storeErr("inventory item", err)
		}
		if err := tx.CreateInventoryMovement(ctx, &model.InventoryMovement{
			ItemID:   input.ItemID,
			Type:     model.MovementIn,
			Quantity: input.Quantity,
			UserID:   input.Principal.UserID,
			Notes:    strings.TrimSpace(input.Notes),
		}); err != nil {
			return storeErr("inventory movement", err)
		}
		var err error
		item, err = tx.GetInventoryItem(ctx, input.ItemID)
		return storeErr("inventory item", err)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

type RecordUsageInput struct {
	Principal model.Principal
	TaskID    uuid.UUID
	ItemID    uuid.UUID
	Quantity  decimal.Decimal
	Notes     string
}

// RecordUsage books material consumed by a task: stock goes down, a usage
// row and an outgoing movement tagged with the order are written.
func (s *InventoryService) RecordUsage(ctx context.Context, input RecordUsageInput) (*model.TaskProductUsage, error) {
	if err := Authorize(input.Principal, ActionUseInventory); err != nil {
		return nil, err
	}
	if !input.Quantity.IsPositive() {
		return nil, invalid("quantity must be positive")
	}

	usage := &model.TaskProductUsage{
		TaskID:     input.TaskID,
		ItemID:     input.ItemID,
		Quantity:   input.Quantity,
		RecordedBy: input.Principal.UserID,
	}
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		task, err := tx.GetTask(ctx, input.TaskID)
		if err != nil {
			return storeErr("task", err)
		}
		if input.Principal.IsWorker() && !task.IsAssignedTo(input.Principal.UserID) {
			return denied("task is not assigned to you")
		}
		order, err := tx.GetOrder(ctx, task.ServiceOrderID)
		if err != nil {
			return storeErr("service order", err)
		}
		if order.Status.IsClosed() {
			return conflict("order %s is %s", order.OrderNumber, order.Status)
		}

		item, err := tx.GetInventoryItem(ctx, input.ItemID)
		if err != nil {
			return storeErr("inventory item", err)
		}
		ok, err := tx.DecrementStock(ctx, item.ID, input.Quantity)
		if err != nil {
			return storeErr("inventory item", err)
		}
		if !ok {
			return conflict("not enough %s in stock", item.Name)
		}

		if err := tx.CreateTaskProductUsage(ctx, usage); err != nil {
			return storeErr("product usage", err)
		}
		return storeErr("inventory movement", tx.CreateInventoryMovement(ctx, &model.InventoryMovement{
			ItemID:         item.ID,
			Type:           model.MovementOut,
			Quantity:       input.Quantity,
			ServiceOrderID: &order.ID,
			TaskID:         &task.ID,
			UserID:         input.Principal.UserID,
			Notes:          strings.TrimSpace(input.Notes),
		}))
	})
	if err != nil {
		return nil, err
	}
	return usage, nil
}

func (s *InventoryService) ListTaskUsage(ctx context.Context, principal model.Principal, taskID uuid.UUID) ([]model.TaskProductUsage, error) {
	if err := Authorize(principal, ActionViewOrders); err != nil {
		return nil, err
	}
	usage, err := s.repo.ListTaskProductUsage(ctx, taskID)
	if err != nil {
		return nil, storeErr("product usage", err)
	}
	return usage, nil
}
