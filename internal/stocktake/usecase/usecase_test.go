package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake"
	"github.com/fekuna/omnipos-backoffice/internal/stocktake/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo keeps stock per product and mirrors the transactional checks.
type memRepo struct {
	takes     map[string]*model.StockTake
	stock     map[string]int
	movements []model.InventoryMovement
}

func (r *memRepo) Create(_ context.Context, st *model.StockTake) error {
	for i := range st.Items {
		st.Items[i].ExpectedQty = r.stock[st.Items[i].ProductID]
	}
	r.takes[st.ID] = st
	return nil
}

func (r *memRepo) FindByID(_ context.Context, _, id string) (*model.StockTake, error) {
	st, ok := r.takes[id]
	if !ok {
		return nil, nil
	}
	cp := *st
	cp.Items = append([]model.StockTakeItem(nil), st.Items...)
	return &cp, nil
}

func (r *memRepo) FindAll(context.Context, *dto.StockTakeFilters) ([]model.StockTake, int, error) {
	return nil, 0, nil
}

func (r *memRepo) RecordCounts(_ context.Context, input *dto.RecordCountInput) error {
	st := r.takes[input.StockTakeID]
	if st.Status != model.StockTakeInProgress {
		return stocktake.ErrNotInProgress
	}
	for _, line := range input.Lines {
		it := st.FindItem(line.ItemID)
		if it == nil {
			return stocktake.ErrItemNotFound
		}
		counted := line.Counted
		variance := counted - it.ExpectedQty
		it.CountedQty, it.Variance = &counted, &variance
	}
	return nil
}

func (r *memRepo) Complete(_ context.Context, input *dto.CompleteInput) ([]model.InventoryMovement, error) {
	st := r.takes[input.StockTakeID]
	if st.Status != model.StockTakeInProgress {
		return nil, stocktake.ErrNotInProgress
	}
	var posted []model.InventoryMovement
	for _, it := range st.Items {
		if it.CountedQty == nil {
			return nil, stocktake.ErrUncounted
		}
		if input.ApplyAdjustments && *it.Variance != 0 {
			posted = append(posted, model.InventoryMovement{
				ProductID:    it.ProductID,
				MovementType: model.MovementAdjustment,
				Quantity:     *it.Variance,
			})
		}
	}
	for _, m := range posted {
		r.stock[m.ProductID] += m.Quantity
	}
	r.movements = append(r.movements, posted...)
	st.Status = model.StockTakeCompleted
	return posted, nil
}

func (r *memRepo) Cancel(_ context.Context, _, id string) error {
	st := r.takes[id]
	if st.Status != model.StockTakeInProgress {
		return stocktake.ErrNotInProgress
	}
	st.Status = model.StockTakeCancelled
	return nil
}

type fakeCatalog []model.Product

func (c fakeCatalog) ListActiveCatalog(context.Context, string, *string) ([]model.Product, error) {
	return c, nil
}

func newTestUseCase(catalog fakeCatalog, stock map[string]int) (*stockTakeUseCase, *memRepo) {
	repo := &memRepo{takes: map[string]*model.StockTake{}, stock: stock}
	return &stockTakeUseCase{
		repo:    repo,
		catalog: catalog,
		logger:  logger.NewNop(),
		now:     time.Now,
	}, repo
}

func twoProducts() fakeCatalog {
	return fakeCatalog{
		{BaseModel: model.BaseModel{ID: "p-beans"}, Name: "Beans"},
		{BaseModel: model.BaseModel{ID: "p-milk"}, Name: "Milk"},
	}
}

func TestSnapshotItems(t *testing.T) {
	items := snapshotItems("m-1", "st-1", []model.Product{
		{BaseModel: model.BaseModel{ID: "p-1"}, Name: "Tea"},
		{
			BaseModel: model.BaseModel{ID: "p-2"},
			Name:      "Shirt",
			Variants: []model.ProductVariant{
				{BaseModel: model.BaseModel{ID: "v-s"}, VariantName: "S"},
				{BaseModel: model.BaseModel{ID: "v-m"}, VariantName: "M"},
			},
		},
	})

	require.Len(t, items, 3)
	assert.Nil(t, items[0].VariantID)
	assert.Equal(t, "Shirt - S", items[1].Name)
	assert.Equal(t, "v-m", *items[2].VariantID)
	for _, it := range items {
		assert.Equal(t, "st-1", it.StockTakeID)
		assert.NotEmpty(t, it.ID)
	}
}

func TestCreateStockTake_NoProducts(t *testing.T) {
	uc, _ := newTestUseCase(nil, map[string]int{})
	_, err := uc.CreateStockTake(context.Background(), &dto.CreateStockTakeInput{MerchantID: "m-1"})
	assert.ErrorIs(t, err, ErrNoProducts)
}

func TestStockTake_CompleteAppliesVariance(t *testing.T) {
	uc, repo := newTestUseCase(twoProducts(), map[string]int{"p-beans": 12, "p-milk": 5})
	ctx := context.Background()

	st, err := uc.CreateStockTake(ctx, &dto.CreateStockTakeInput{MerchantID: "m-1", UserID: "u-1"})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultLocation, st.LocationID)
	beans, milk := st.Items[0].ID, st.Items[1].ID

	counted, err := uc.RecordCount(ctx, &dto.RecordCountInput{
		MerchantID: "m-1", StockTakeID: st.ID,
		Lines: []dto.CountLine{{ItemID: beans, Counted: 10}, {ItemID: milk, Counted: 5}},
	})
	require.NoError(t, err)
	assert.Equal(t, -2, *counted.FindItem(beans).Variance)
	assert.Equal(t, 0, *counted.FindItem(milk).Variance)

	done, err := uc.CompleteStockTake(ctx, &dto.CompleteInput{MerchantID: "m-1", StockTakeID: st.ID, ApplyAdjustments: true})
	require.NoError(t, err)
	assert.Equal(t, model.StockTakeCompleted, done.Status)

	require.Len(t, repo.movements, 1)
	assert.Equal(t, -2, repo.movements[0].Quantity)
	assert.Equal(t, 10, repo.stock["p-beans"])
	assert.Equal(t, 5, repo.stock["p-milk"])
}

func TestStockTake_CompleteWithoutAdjustments(t *testing.T) {
	uc, repo := newTestUseCase(twoProducts(), map[string]int{"p-beans": 3})
	ctx := context.Background()

	st, err := uc.CreateStockTake(ctx, &dto.CreateStockTakeInput{MerchantID: "m-1"})
	require.NoError(t, err)
	_, err = uc.RecordCount(ctx, &dto.RecordCountInput{
		MerchantID: "m-1", StockTakeID: st.ID,
		Lines: []dto.CountLine{{ItemID: st.Items[0].ID, Counted: 7}, {ItemID: st.Items[1].ID, Counted: 1}},
	})
	require.NoError(t, err)

	_, err = uc.CompleteStockTake(ctx, &dto.CompleteInput{MerchantID: "m-1", StockTakeID: st.ID})
	require.NoError(t, err)
	assert.Empty(t, repo.movements)
	assert.Equal(t, 3, repo.stock["p-beans"])
}

func TestStockTake_CompleteRejectsUncounted(t *testing.T) {
	uc, repo := newTestUseCase(twoProducts(), map[string]int{})
	ctx := context.Background()

	st, err := uc.CreateStockTake(ctx, &dto.CreateStockTakeInput{MerchantID: "m-1"})
	require.NoError(t, err)
	_, err = uc.RecordCount(ctx, &dto.RecordCountInput{
		MerchantID: "m-1", StockTakeID: st.ID,
		Lines: []dto.CountLine{{ItemID: st.Items[0].ID, Counted: 1}},
	})
	require.NoError(t, err)

	_, err = uc.CompleteStockTake(ctx, &dto.CompleteInput{MerchantID: "m-1", StockTakeID: st.ID, ApplyAdjustments: true})
	require.ErrorIs(t, err, ErrUncounted)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"uncounted_items": []string{st.Items[1].ID}}, appErr.Details)
	assert.Equal(t, model.StockTakeInProgress, repo.takes[st.ID].Status)
	assert.Empty(t, repo.movements)
}

func TestStockTake_RecordCountRejections(t *testing.T) {
	uc, _ := newTestUseCase(twoProducts(), map[string]int{})
	ctx := context.Background()
	st, err := uc.CreateStockTake(ctx, &dto.CreateStockTakeInput{MerchantID: "m-1"})
	require.NoError(t, err)

	_, err = uc.RecordCount(ctx, &dto.RecordCountInput{MerchantID: "m-1", StockTakeID: st.ID})
	assert.ErrorIs(t, err, ErrNoCounts)

	_, err = uc.RecordCount(ctx, &dto.RecordCountInput{MerchantID: "m-1", StockTakeID: st.ID, Lines: []dto.CountLine{{ItemID: st.Items[0].ID, Counted: -1}}})
	assert.ErrorIs(t, err, ErrNegativeCount)

	_, err = uc.RecordCount(ctx, &dto.RecordCountInput{MerchantID: "m-1", StockTakeID: st.ID, Lines: []dto.CountLine{{ItemID: "ghost", Counted: 1}}})
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = uc.CancelStockTake(ctx, "m-1", st.ID)
	require.NoError(t, err)

	_, err = uc.RecordCount(ctx, &dto.RecordCountInput{MerchantID: "m-1", StockTakeID: st.ID, Lines: []dto.CountLine{{ItemID: st.Items[0].ID, Counted: 1}}})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = uc.CompleteStockTake(ctx, &dto.CompleteInput{MerchantID: "m-1", StockTakeID: st.ID})
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	_, err = uc.CancelStockTake(ctx, "m-1", st.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)
}
