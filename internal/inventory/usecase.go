package inventory

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/inventory/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

type UseCase interface {
	GetStock(ctx context.Context, merchantID string, key model.StockKey) (*model.StockLevel, error)
	ListLowStock(ctx context.Context, merchantID, locationID string, page, pageSize int) ([]model.StockLevel, int, error)
	AdjustInventory(ctx context.Context, input *dto.AdjustInventoryInput) (*model.StockLevel, error)
	SetReorderPoint(ctx context.Context, input *dto.SetReorderPointInput) (*model.StockLevel, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
