package stocktake

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake/dto"
)

var (
	ErrNotInProgress = errors.New("stock take is not in progress")
	ErrItemNotFound  = errors.New("stock take item not found")
	ErrUncounted     = errors.New("stock take has uncounted items")
)

type Repository interface {
	// Create fills each item's ExpectedQty from current stock and inserts the
	// stock take in the same transaction.
	Create(ctx context.Context, st *model.StockTake) error
	FindByID(ctx context.Context, merchantID, id string) (*model.StockTake, error)
	FindAll(ctx context.Context, filters *dto.StockTakeFilters) ([]model.StockTake, int, error)
	RecordCounts(ctx context.Context, input *dto.RecordCountInput) error
	// Complete returns the adjustment movements it posted.
	Complete(ctx context.Context, input *dto.CompleteInput) ([]model.InventoryMovement, error)
	Cancel(ctx context.Context, merchantID, id string) error
}
