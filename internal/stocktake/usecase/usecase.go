package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake/dto"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrStockTakeNotFound = apperror.NotFound("StockTakeNotFound", "Stock take not found")
	ErrItemNotFound      = apperror.NotFound("StockTakeItemNotFound", "Stock take item not found")
	ErrNegativeCount     = apperror.BadRequest("StockTakeNegativeCount", "Counted quantity must not be negative")
	ErrNoCounts          = apperror.BadRequest("StockTakeNoCounts", "At least one count is required")
	ErrUncounted         = apperror.Unprocessable("StockTakeUncounted", "All items must be counted before completing the stock take")
	ErrNoProducts        = apperror.Unprocessable("StockTakeNoProducts", "No active products to count")
)

// States is the stock take lifecycle.
var States = statemachine.New("stock_take", map[model.StockTakeStatus][]model.StockTakeStatus{
	model.StockTakeInProgress: {model.StockTakeCompleted, model.StockTakeCancelled},
})

// Catalog lists what a stock take counts. product.UseCase satisfies it.
type Catalog interface {
	ListActiveCatalog(ctx context.Context, merchantID string, categoryID *string) ([]model.Product, error)
}

type stockTakeUseCase struct {
	repo    stocktake.Repository
	catalog Catalog
	logger  logger.ZapLogger
	now     func() time.Time
}

func NewStockTakeUseCase(repo stocktake.Repository, catalog Catalog, log logger.ZapLogger) stocktake.UseCase {
	return &stockTakeUseCase{
		repo:    repo,
		catalog: catalog,
		logger:  log,
		now:     time.Now,
	}
}

// snapshotItems has one line per active variant, or one per product without variants.
func snapshotItems(merchantID, stockTakeID string, products []model.Product) []model.StockTakeItem {
	var items []model.StockTakeItem
	for _, p := range products {
		if len(p.Variants) == 0 {
			items = append(items, model.StockTakeItem{
				ID:          uuid.New().String(),
				MerchantID:  merchantID,
				StockTakeID: stockTakeID,
				ProductID:   p.ID,
				Name:        p.Name,
			})
			continue
		}
		for _, v := range p.Variants {
			variantID := v.ID
			items = append(items, model.StockTakeItem{
				ID:          uuid.New().String(),
				MerchantID:  merchantID,
				StockTakeID: stockTakeID,
				ProductID:   p.ID,
				VariantID:   &variantID,
				Name:        p.Name + " - " + v.VariantName,
			})
		}
	}
	return items
}

func (uc *stockTakeUseCase) CreateStockTake(ctx context.Context, input *dto.CreateStockTakeInput) (*model.StockTake, error) {
	products, err := uc.catalog.ListActiveCatalog(ctx, input.MerchantID, input.CategoryID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	st := &model.StockTake{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID: input.MerchantID,
		LocationID: input.LocationID,
		CategoryID: input.CategoryID,
		Status:     model.StockTakeInProgress,
		Notes:      input.Notes,
	}
	if st.LocationID == "" {
		st.LocationID = model.DefaultLocation
	}
	if input.UserID != "" {
		st.CreatedBy = &input.UserID
	}
	st.Items = snapshotItems(input.MerchantID, st.ID, products)
	if len(st.Items) == 0 {
		return nil, ErrNoProducts
	}

	if err := uc.repo.Create(ctx, st); err != nil {
		return nil, err
	}

	uc.logger.Info("stock take started",
		zap.String("merchant_id", st.MerchantID),
		zap.String("stock_take_id", st.ID),
		zap.String("location_id", st.LocationID),
		zap.Int("items", len(st.Items)),
	)
	return st, nil
}

func (uc *stockTakeUseCase) GetStockTake(ctx context.Context, merchantID, id string) (*model.StockTake, error) {
	st, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, ErrStockTakeNotFound
	}
	return st, nil
}

func (uc *stockTakeUseCase) ListStockTakes(ctx context.Context, filters *dto.StockTakeFilters) ([]model.StockTake, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func notInProgress(st *model.StockTake, to model.StockTakeStatus) error {
	return apperror.ErrInvalidTransition.Wrap(stocktake.ErrNotInProgress).
		WithDetails(map[string]string{"from": string(st.Status), "to": string(to)})
}

func (uc *stockTakeUseCase) RecordCount(ctx context.Context, input *dto.RecordCountInput) (*model.StockTake, error) {
	if len(input.Lines) == 0 {
		return nil, ErrNoCounts
	}
	for _, line := range input.Lines {
		if line.Counted < 0 {
			return nil, ErrNegativeCount
		}
	}

	st, err := uc.GetStockTake(ctx, input.MerchantID, input.StockTakeID)
	if err != nil {
		return nil, err
	}
	if st.Status != model.StockTakeInProgress {
		return nil, notInProgress(st, st.Status)
	}
	for _, line := range input.Lines {
		if st.FindItem(line.ItemID) == nil {
			return nil, ErrItemNotFound.WithDetails(map[string]string{"item_id": line.ItemID})
		}
	}

	err = uc.repo.RecordCounts(ctx, input)
	switch {
	case errors.Is(err, stocktake.ErrNotInProgress):
		return nil, notInProgress(st, st.Status)
	case errors.Is(err, stocktake.ErrItemNotFound):
		return nil, ErrItemNotFound
	case err != nil:
		return nil, err
	}

	return uc.GetStockTake(ctx, input.MerchantID, input.StockTakeID)
}

// CompleteStockTake leaves the stock take untouched when any item is uncounted.
func (uc *stockTakeUseCase) CompleteStockTake(ctx context.Context, input *dto.CompleteInput) (*model.StockTake, error) {
	st, err := uc.GetStockTake(ctx, input.MerchantID, input.StockTakeID)
	if err != nil {
		return nil, err
	}
	if err := States.Transition(st.Status, model.StockTakeCompleted); err != nil {
		return nil, apperror.ErrInvalidTransition.Wrap(err).
			WithDetails(map[string]string{"from": string(st.Status), "to": string(model.StockTakeCompleted)})
	}

	var uncounted []string
	for _, it := range st.Items {
		if it.CountedQty == nil {
			uncounted = append(uncounted, it.ID)
		}
	}
	if len(uncounted) > 0 {
		return nil, ErrUncounted.WithDetails(map[string]any{"uncounted_items": uncounted})
	}

	posted, err := uc.repo.Complete(ctx, input)
	switch {
	case errors.Is(err, stocktake.ErrUncounted):
		return nil, ErrUncounted
	case errors.Is(err, stocktake.ErrNotInProgress):
		return nil, notInProgress(st, model.StockTakeCompleted)
	case err != nil:
		return nil, err
	}

	uc.logger.Info("stock take completed",
		zap.String("merchant_id", input.MerchantID),
		zap.String("stock_take_id", input.StockTakeID),
		zap.Bool("apply_adjustments", input.ApplyAdjustments),
		zap.Int("adjustments", len(posted)),
	)
	return uc.GetStockTake(ctx, input.MerchantID, input.StockTakeID)
}

func (uc *stockTakeUseCase) CancelStockTake(ctx context.Context, merchantID, id string) (*model.StockTake, error) {
	st, err := uc.GetStockTake(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if err := States.Transition(st.Status, model.StockTakeCancelled); err != nil {
		return nil, apperror.ErrInvalidTransition.Wrap(err).
			WithDetails(map[string]string{"from": string(st.Status), "to": string(model.StockTakeCancelled)})
	}

	if err := uc.repo.Cancel(ctx, merchantID, id); err != nil {
		if errors.Is(err, stocktake.ErrNotInProgress) {
			return nil, notInProgress(st, model.StockTakeCancelled)
		}
		return nil, err
	}

	st.Status = model.StockTakeCancelled
	st.UpdatedAt = uc.now()
	return st, nil
}
