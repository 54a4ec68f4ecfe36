package stocktake

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake/dto"
)

type UseCase interface {
	CreateStockTake(ctx context.Context, input *dto.CreateStockTakeInput) (*model.StockTake, error)
	GetStockTake(ctx context.Context, merchantID, id string) (*model.StockTake, error)
	ListStockTakes(ctx context.Context, filters *dto.StockTakeFilters) ([]model.StockTake, int, error)
	RecordCount(ctx context.Context, input *dto.RecordCountInput) (*model.StockTake, error)
	CompleteStockTake(ctx context.Context, input *dto.CompleteInput) (*model.StockTake, error)
	CancelStockTake(ctx context.Context, merchantID, id string) (*model.StockTake, error)
}
