package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	discountdto "github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	discountuc "github.com/fekuna/omnipos-backoffice/internal/discount/usecase"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/order"
	"github.com/fekuna/omnipos-backoffice/internal/order/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	orders    map[string]*model.Order
	movements []model.InventoryMovement
	stale     bool
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]*model.Order{}}
}

func (r *memRepo) Create(_ context.Context, o *model.Order, movements []model.InventoryMovement) error {
	cp := *o
	r.orders[o.ID] = &cp
	r.movements = append(r.movements, movements...)
	return nil
}

func (r *memRepo) FindByID(_ context.Context, _, id string) (*model.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	return &cp, nil
}

func (r *memRepo) FindAll(context.Context, *dto.OrderFilters) ([]model.Order, int, error) {
	return nil, 0, nil
}

func (r *memRepo) Transition(_ context.Context, o *model.Order, from model.OrderStatus, compensate model.MovementType, actor *string) ([]model.InventoryMovement, error) {
	stored := r.orders[o.ID]
	if r.stale || stored.Status != from {
		return nil, order.ErrStatusChanged
	}
	stored.Status = o.Status

	var posted []model.InventoryMovement
	if compensate != "" {
		for _, m := range r.movements {
			if m.MovementType != model.MovementSale || m.ReferenceID == nil || *m.ReferenceID != o.ID {
				continue
			}
			rev := m
			rev.MovementType = compensate
			rev.Quantity = -m.Quantity
			rev.CreatedBy = actor
			posted = append(posted, rev)
		}
		r.movements = append(r.movements, posted...)
	}
	return posted, nil
}

func (r *memRepo) Delete(_ context.Context, _, id string) error {
	delete(r.orders, id)
	return nil
}

// stock sums movements for a product.
func (r *memRepo) stock(productID string) int {
	total := 0
	for _, m := range r.movements {
		if m.ProductID == productID {
			total += m.Quantity
		}
	}
	return total
}

type fakeCatalog map[string]*model.Product

func (c fakeCatalog) GetProduct(_ context.Context, _, id string) (*model.Product, error) {
	p, ok := c[id]
	if !ok {
		return nil, apperror.NotFound("ProductNotFound", "Product not found")
	}
	return p, nil
}

type fakeDiscounts struct {
	result *discountdto.ValidationResult
	got    *discountdto.ValidateInput
}

func (d *fakeDiscounts) ValidateDiscount(_ context.Context, input *discountdto.ValidateInput) (*discountdto.ValidationResult, error) {
	d.got = input
	return d.result, nil
}

type capturePublisher struct {
	keys   []string
	values [][]byte
	err    error
}

func (p *capturePublisher) Publish(_ context.Context, key string, value []byte) error {
	p.keys = append(p.keys, key)
	p.values = append(p.values, value)
	return p.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func catalog() fakeCatalog {
	return fakeCatalog{
		"p-coffee": {
			BaseModel:      model.BaseModel{ID: "p-coffee"},
			Name:           "Coffee",
			BasePrice:      dec("3.50"),
			CostPrice:      decimal.NewNullDecimal(dec("1.20")),
			TaxRate:        dec("10"),
			TrackInventory: true,
			IsActive:       true,
			HasVariants:    true,
			Variants: []model.ProductVariant{
				{BaseModel: model.BaseModel{ID: "v-large"}, VariantName: "Large", PriceAdjustment: dec("1.00"), IsActive: true},
				{BaseModel: model.BaseModel{ID: "v-old"}, VariantName: "Old", IsActive: false},
			},
		},
		"p-service": {
			BaseModel: model.BaseModel{ID: "p-service"},
			Name:      "Gift wrap",
			BasePrice: dec("2.00"),
			TaxRate:   decimal.Zero,
			IsActive:  true,
		},
		"p-retired": {
			BaseModel: model.BaseModel{ID: "p-retired"},
			Name:      "Retired",
			BasePrice: dec("1.00"),
			IsActive:  false,
		},
	}
}

type fixture struct {
	uc        *orderUseCase
	repo      *memRepo
	discounts *fakeDiscounts
	publisher *capturePublisher
}

func newFixture() *fixture {
	f := &fixture{repo: newMemRepo(), discounts: &fakeDiscounts{}, publisher: &capturePublisher{}}
	f.uc = &orderUseCase{
		repo:      f.repo,
		catalog:   catalog(),
		discounts: f.discounts,
		publisher: f.publisher,
		logger:    logger.NewNop(),
		now:       func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
	}
	return f
}

func strPtr(s string) *string { return &s }

func TestCreateOrder_Totals(t *testing.T) {
	f := newFixture()

	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		MerchantID: "m-1",
		UserID:     "u-1",
		Items: []dto.OrderItemInput{
			{ProductID: "p-coffee", Quantity: 2},
			{ProductID: "p-coffee", VariantID: strPtr("v-large"), Quantity: 1},
			{ProductID: "p-service", Quantity: 3},
		},
	})
	require.NoError(t, err)

	// 2 x 3.50 + 1 x 4.50 + 3 x 2.00
	assert.True(t, dec("17.50").Equal(o.Subtotal), o.Subtotal.String())
	assert.True(t, dec("1.15").Equal(o.Tax), o.Tax.String())
	assert.True(t, dec("3.60").Equal(o.Cost), o.Cost.String())
	assert.True(t, o.Total.Equal(o.Subtotal.Add(o.Tax).Sub(o.Discount)))
	assert.Equal(t, model.OrderPending, o.Status)
	assert.Equal(t, model.DefaultLocation, o.LocationID)
	assert.Regexp(t, `^ORD-20250601-[0-9A-F]{8}$`, o.OrderNumber)
	assert.Equal(t, "Coffee - Large", o.Items[1].Name)

	// tracked lines only, each as a negative sale
	require.Len(t, f.repo.movements, 2)
	for _, m := range f.repo.movements {
		assert.Equal(t, model.MovementSale, m.MovementType)
		assert.Equal(t, o.ID, *m.ReferenceID)
	}
	assert.Equal(t, -3, f.repo.stock("p-coffee"))
	assert.Empty(t, f.publisher.values, "pending orders are not announced")
}

func TestCreateOrder_WithDiscount(t *testing.T) {
	f := newFixture()
	f.discounts.result = &discountdto.ValidationResult{
		Valid:          true,
		DiscountAmount: dec("0.70"),
		Discount:       &model.Discount{BaseModel: model.BaseModel{ID: "d-save10"}},
	}

	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		MerchantID:   "m-1",
		CustomerID:   strPtr("c-1"),
		DiscountCode: "SAVE10",
		Completed:    true,
		Items:        []dto.OrderItemInput{{ProductID: "p-coffee", Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", f.discounts.got.Code)
	assert.True(t, dec("7.00").Equal(f.discounts.got.Subtotal))
	assert.Equal(t, []string{"p-coffee"}, f.discounts.got.ProductIDs)

	assert.Equal(t, "d-save10", *o.DiscountID)
	// 7.00 + 0.70 tax - 0.70 discount
	assert.True(t, dec("7.00").Equal(o.Total), o.Total.String())

	require.Len(t, f.publisher.values, 1)
	var event order.CompletedEvent
	require.NoError(t, json.Unmarshal(f.publisher.values[0], &event))
	assert.Equal(t, order.EventOrderCompleted, event.EventType)
	assert.Equal(t, o.ID, event.OrderID)
	assert.Equal(t, "d-save10", *event.DiscountID)
	assert.Equal(t, "c-1", *event.CustomerID)
	assert.True(t, o.Total.Equal(event.Total))
}

func TestCreateOrder_InvalidDiscount(t *testing.T) {
	f := newFixture()
	f.discounts.result = &discountdto.ValidationResult{Valid: false, Reason: discountuc.ErrExpired}

	_, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		MerchantID:   "m-1",
		DiscountCode: "OLD",
		Items:        []dto.OrderItemInput{{ProductID: "p-service", Quantity: 1}},
	})
	assert.ErrorIs(t, err, discountuc.ErrExpired)
	assert.Empty(t, f.repo.orders)
}

func TestCreateOrder_Rejections(t *testing.T) {
	tests := []struct {
		name  string
		items []dto.OrderItemInput
		want  error
	}{
		{"no items", nil, ErrNoItems},
		{"zero quantity", []dto.OrderItemInput{{ProductID: "p-service", Quantity: 0}}, ErrInvalidQuantity},
		{"inactive product", []dto.OrderItemInput{{ProductID: "p-retired", Quantity: 1}}, ErrProductUnavailable},
		{"inactive variant", []dto.OrderItemInput{{ProductID: "p-coffee", VariantID: strPtr("v-old"), Quantity: 1}}, ErrVariantUnavailable},
		{"unknown variant", []dto.OrderItemInput{{ProductID: "p-coffee", VariantID: strPtr("v-x"), Quantity: 1}}, ErrVariantUnavailable},
		{
			"negative price",
			[]dto.OrderItemInput{{ProductID: "p-service", Quantity: 1, UnitPrice: decimal.NewNullDecimal(dec("-1"))}},
			ErrInvalidPrice,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			_, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{MerchantID: "m-1", Items: tt.items})
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, f.repo.movements)
		})
	}
}

func TestCreateOrder_PriceOverride(t *testing.T) {
	f := newFixture()
	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		MerchantID: "m-1",
		Items:      []dto.OrderItemInput{{ProductID: "p-service", Quantity: 3, UnitPrice: decimal.NewNullDecimal(dec("1.333"))}},
	})
	require.NoError(t, err)
	assert.True(t, dec("4.00").Equal(o.Items[0].LineTotal), o.Items[0].LineTotal.String())
}

func createPending(t *testing.T, f *fixture) *model.Order {
	t.Helper()
	o, err := f.uc.CreateOrder(context.Background(), &dto.CreateOrderInput{
		MerchantID: "m-1",
		CustomerID: strPtr("c-1"),
		Items:      []dto.OrderItemInput{{ProductID: "p-coffee", Quantity: 4}},
	})
	require.NoError(t, err)
	return o
}

func updateStatus(f *fixture, id string, status model.OrderStatus) (*model.Order, error) {
	return f.uc.UpdateOrderStatus(context.Background(), &dto.UpdateStatusInput{MerchantID: "m-1", OrderID: id, Status: status, UserID: "u-2"})
}

func TestUpdateOrderStatus_CancelRestoresStock(t *testing.T) {
	f := newFixture()
	o := createPending(t, f)
	assert.Equal(t, -4, f.repo.stock("p-coffee"))

	_, err := updateStatus(f, o.ID, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, 0, f.repo.stock("p-coffee"))

	last := f.repo.movements[len(f.repo.movements)-1]
	assert.Equal(t, model.MovementReturnStock, last.MovementType)
	assert.Equal(t, "u-2", *last.CreatedBy)
}

func TestUpdateOrderStatus_RefundRestoresStockAndCompletesOnce(t *testing.T) {
	f := newFixture()
	o := createPending(t, f)

	_, err := updateStatus(f, o.ID, model.OrderCompleted)
	require.NoError(t, err)
	require.Len(t, f.publisher.values, 1)

	_, err = updateStatus(f, o.ID, model.OrderRefunded)
	require.NoError(t, err)
	assert.Equal(t, 0, f.repo.stock("p-coffee"))
	assert.Len(t, f.publisher.values, 1)
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	f := newFixture()
	o := createPending(t, f)
	_, err := updateStatus(f, o.ID, model.OrderCancelled)
	require.NoError(t, err)

	_, err = updateStatus(f, o.ID, model.OrderCompleted)
	require.ErrorIs(t, err, apperror.ErrInvalidTransition)
	assert.True(t, errors.Is(err, statemachine.ErrInvalidTransition))

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]string{"from": "cancelled", "to": "completed"}, appErr.Details)
}

func TestUpdateOrderStatus_Concurrent(t *testing.T) {
	f := newFixture()
	o := createPending(t, f)
	f.repo.stale = true

	_, err := updateStatus(f, o.ID, model.OrderConfirmed)
	assert.ErrorIs(t, err, ErrConcurrentUpdate)
}

func TestUpdateOrderStatus_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("broker down")
	o := createPending(t, f)

	updated, err := updateStatus(f, o.ID, model.OrderCompleted)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCompleted, updated.Status)
}

func TestDeleteOrder(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	pending := createPending(t, f)
	require.NoError(t, f.uc.DeleteOrder(ctx, "m-1", pending.ID))
	assert.Empty(t, f.repo.orders)

	done := createPending(t, f)
	_, err := updateStatus(f, done.ID, model.OrderCompleted)
	require.NoError(t, err)
	assert.ErrorIs(t, f.uc.DeleteOrder(ctx, "m-1", done.ID), ErrOrderNotPending)

	assert.ErrorIs(t, f.uc.DeleteOrder(ctx, "m-1", "missing"), ErrOrderNotFound)
}

func TestStates(t *testing.T) {
	assert.True(t, States.IsTerminal(model.OrderCancelled))
	assert.True(t, States.IsTerminal(model.OrderRefunded))
	assert.False(t, States.Can(model.OrderPending, model.OrderRefunded))
	assert.True(t, States.Can(model.OrderCompleted, model.OrderRefunded))
}

func TestCompensation(t *testing.T) {
	assert.Equal(t, model.MovementReturnStock, compensation(model.OrderCancelled))
	assert.Equal(t, model.MovementRefund, compensation(model.OrderRefunded))
	assert.Equal(t, model.MovementType(""), compensation(model.OrderCompleted))
}
