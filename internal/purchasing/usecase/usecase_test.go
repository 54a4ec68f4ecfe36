package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	orders    map[string]*model.PurchaseOrder
	movements []model.InventoryMovement
}

func (r *memRepo) Create(_ context.Context, po *model.PurchaseOrder) error {
	r.orders[po.ID] = po
	return nil
}

func (r *memRepo) FindByID(_ context.Context, _, id string) (*model.PurchaseOrder, error) {
	po, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *po
	cp.Items = append([]model.PurchaseOrderItem(nil), po.Items...)
	return &cp, nil
}

func (r *memRepo) FindAll(context.Context, *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error) {
	return nil, 0, nil
}

func (r *memRepo) UpdateStatus(_ context.Context, _, id string, from, to model.PurchaseOrderStatus) error {
	po := r.orders[id]
	if po.Status != from {
		return purchasing.ErrStatusChanged
	}
	po.Status = to
	return nil
}

func (r *memRepo) Receive(_ context.Context, input *dto.ReceiveInput) (*model.PurchaseOrder, error) {
	po := r.orders[input.PurchaseOrderID]
	if po.Status != model.POSent && po.Status != model.POPartial {
		return nil, purchasing.ErrNotReceivable
	}
	ref := model.ReferencePurchaseOrder
	for _, line := range input.Lines {
		it := po.FindItem(line.ItemID)
		if it == nil {
			return nil, purchasing.ErrItemNotFound
		}
		it.ReceivedQty += line.Quantity
		r.movements = append(r.movements, model.InventoryMovement{
			ProductID:     it.ProductID,
			VariantID:     it.VariantID,
			LocationID:    po.LocationID,
			MovementType:  model.MovementPurchase,
			Quantity:      line.Quantity,
			UnitCost:      decimal.NewNullDecimal(it.UnitCost),
			ReferenceType: &ref,
			ReferenceID:   &po.ID,
		})
	}
	po.Status = purchasing.ReceiptStatus(po.Items, po.Status)
	return r.FindByID(context.Background(), input.MerchantID, po.ID)
}

type fakeSuppliers struct{}

func (fakeSuppliers) GetSupplier(_ context.Context, _, id string) (*model.Supplier, error) {
	if id != "s-1" {
		return nil, apperror.NotFound("SupplierNotFound", "Supplier not found")
	}
	return &model.Supplier{}, nil
}

type fakeProducts struct{}

func (fakeProducts) GetProduct(_ context.Context, _, id string) (*model.Product, error) {
	return &model.Product{
		BaseModel: model.BaseModel{ID: id},
		Variants:  []model.ProductVariant{{BaseModel: model.BaseModel{ID: "v-1"}}},
	}, nil
}

func newTestUseCase() (*purchasingUseCase, *memRepo) {
	repo := &memRepo{orders: map[string]*model.PurchaseOrder{}}
	return &purchasingUseCase{
		repo:      repo,
		suppliers: fakeSuppliers{},
		products:  fakeProducts{},
		logger:    logger.NewNop(),
		now:       func() time.Time { return time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC) },
	}, repo
}

func createSent(t *testing.T, uc *purchasingUseCase) *model.PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po, err := uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{
		MerchantID: "m-1",
		SupplierID: "s-1",
		Items: []dto.PurchaseOrderItemInput{
			{ProductID: "p-1", Quantity: 10, UnitCost: decimal.RequireFromString("2.25")},
			{ProductID: "p-2", VariantID: strPtr("v-1"), Quantity: 4, UnitCost: decimal.RequireFromString("5")},
		},
	})
	require.NoError(t, err)
	_, err = uc.SendPurchaseOrder(ctx, "m-1", po.ID)
	require.NoError(t, err)
	return po
}

func strPtr(s string) *string { return &s }

func TestCreatePurchaseOrder(t *testing.T) {
	uc, _ := newTestUseCase()
	po := createSent(t, uc)

	assert.Regexp(t, `^PO-20250203-[0-9A-F]{6}$`, po.PONumber)
	assert.True(t, decimal.RequireFromString("42.50").Equal(po.TotalCost), po.TotalCost.String())
	assert.Equal(t, model.DefaultLocation, po.LocationID)
}

func TestCreatePurchaseOrder_Rejections(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	_, err := uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{SupplierID: "s-1"})
	assert.ErrorIs(t, err, ErrNoItems)

	_, err = uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{SupplierID: "s-1", Items: []dto.PurchaseOrderItemInput{{ProductID: "p-1", Quantity: 0}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{SupplierID: "s-1", Items: []dto.PurchaseOrderItemInput{{ProductID: "p-1", Quantity: 1, UnitCost: decimal.NewFromInt(-1)}}})
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{SupplierID: "s-1", Items: []dto.PurchaseOrderItemInput{{ProductID: "p-1", VariantID: strPtr("v-9"), Quantity: 1}}})
	assert.ErrorIs(t, err, ErrVariantNotFound)

	_, err = uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{SupplierID: "s-404", Items: []dto.PurchaseOrderItemInput{{ProductID: "p-1", Quantity: 1}}})
	assert.Error(t, err)
}

func TestReceivePurchaseOrder_PartialThenFull(t *testing.T) {
	uc, repo := newTestUseCase()
	po := createSent(t, uc)
	ctx := context.Background()
	first, second := po.Items[0].ID, po.Items[1].ID

	updated, err := uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{
		MerchantID: "m-1", PurchaseOrderID: po.ID,
		Lines: []dto.ReceiveLine{{ItemID: first, Quantity: 6}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.POPartial, updated.Status)
	assert.Equal(t, 6, updated.FindItem(first).ReceivedQty)

	updated, err = uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{
		MerchantID: "m-1", PurchaseOrderID: po.ID,
		Lines: []dto.ReceiveLine{{ItemID: first, Quantity: 4}, {ItemID: second, Quantity: 4}},
	})
	require.NoError(t, err)
	assert.Equal(t, model.POReceived, updated.Status)

	received := 0
	for _, m := range repo.movements {
		assert.Equal(t, model.MovementPurchase, m.MovementType)
		assert.Equal(t, po.ID, *m.ReferenceID)
		received += m.Quantity
	}
	assert.Equal(t, 14, received)

	_, err = uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{
		MerchantID: "m-1", PurchaseOrderID: po.ID,
		Lines: []dto.ReceiveLine{{ItemID: first, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrNotReceivable)
}

func TestReceivePurchaseOrder_Rejections(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()

	draft, err := uc.CreatePurchaseOrder(ctx, &dto.CreatePurchaseOrderInput{
		MerchantID: "m-1", SupplierID: "s-1",
		Items: []dto.PurchaseOrderItemInput{{ProductID: "p-1", Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{MerchantID: "m-1", PurchaseOrderID: draft.ID, Lines: []dto.ReceiveLine{{ItemID: draft.Items[0].ID, Quantity: 1}}})
	assert.ErrorIs(t, err, ErrNotReceivable)

	sent := createSent(t, uc)
	_, err = uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{MerchantID: "m-1", PurchaseOrderID: sent.ID, Lines: []dto.ReceiveLine{{ItemID: "nope", Quantity: 1}}})
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{MerchantID: "m-1", PurchaseOrderID: sent.ID, Lines: []dto.ReceiveLine{{ItemID: sent.Items[0].ID, Quantity: 0}}})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = uc.ReceivePurchaseOrder(ctx, &dto.ReceiveInput{MerchantID: "m-1", PurchaseOrderID: sent.ID})
	assert.ErrorIs(t, err, ErrNoItems)
}

func TestPurchaseOrderTransitions(t *testing.T) {
	uc, _ := newTestUseCase()
	ctx := context.Background()
	po := createSent(t, uc)

	_, err := uc.SendPurchaseOrder(ctx, "m-1", po.ID)
	assert.ErrorIs(t, err, apperror.ErrInvalidTransition)

	cancelled, err := uc.CancelPurchaseOrder(ctx, "m-1", po.ID)
	require.NoError(t, err)
	assert.Equal(t, model.POCancelled, cancelled.Status)
	assert.True(t, States.IsTerminal(model.POCancelled))
	assert.True(t, States.IsTerminal(model.POReceived))

	_, err = uc.CancelPurchaseOrder(ctx, "m-1", "missing")
	assert.ErrorIs(t, err, ErrPurchaseOrderNotFound)
}
