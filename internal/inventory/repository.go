package inventory

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/inventory/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
)

type Repository interface {
	// Stock positions
	GetStock(ctx context.Context, merchantID string, key model.StockKey) (*model.StockLevel, error)
	ListStock(ctx context.Context, filters *dto.StockFilters) ([]model.StockLevel, int, error)
	SetReorderPoint(ctx context.Context, merchantID string, key model.StockKey, point int) error

	// Movements / Audit
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)

	// PostMovement upserts the item for the movement's key and inserts the movement in one transaction.
	PostMovement(ctx context.Context, movement *model.InventoryMovement) error
}
