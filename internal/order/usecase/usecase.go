package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	discountdto "github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/order"
	"github.com/fekuna/omnipos-backoffice/internal/order/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/broker"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound      = apperror.NotFound("OrderNotFound", "Order not found")
	ErrNoItems            = apperror.BadRequest("OrderNoItems", "Order must have at least one item")
	ErrInvalidQuantity    = apperror.BadRequest("OrderInvalidQuantity", "Quantity must be greater than 0")
	ErrInvalidPrice       = apperror.BadRequest("OrderInvalidPrice", "Unit price must not be negative")
	ErrProductUnavailable = apperror.Unprocessable("OrderProductUnavailable", "Product is not available for sale")
	ErrVariantUnavailable = apperror.Unprocessable("OrderVariantUnavailable", "Product variant is not available for sale")
	ErrOrderNotPending    = apperror.Conflict("OrderNotPending", "Only pending orders can be deleted")
	ErrConcurrentUpdate   = apperror.Conflict("OrderConcurrentUpdate", "Order was modified by another request")
)

// States is the order lifecycle.
var States = statemachine.New("order", map[model.OrderStatus][]model.OrderStatus{
	model.OrderPending:    {model.OrderConfirmed, model.OrderProcessing, model.OrderCompleted, model.OrderCancelled},
	model.OrderConfirmed:  {model.OrderProcessing, model.OrderCompleted, model.OrderCancelled},
	model.OrderProcessing: {model.OrderCompleted, model.OrderCancelled},
	model.OrderCompleted:  {model.OrderCancelled, model.OrderRefunded},
})

var hundred = decimal.NewFromInt(100)

// Catalog resolves order lines. product.UseCase satisfies it.
type Catalog interface {
	GetProduct(ctx context.Context, merchantID, id string) (*model.Product, error)
}

// DiscountValidator is the read-only half of discount.UseCase.
type DiscountValidator interface {
	ValidateDiscount(ctx context.Context, input *discountdto.ValidateInput) (*discountdto.ValidationResult, error)
}

type orderUseCase struct {
	repo      order.Repository
	catalog   Catalog
	discounts DiscountValidator
	publisher broker.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewOrderUseCase(repo order.Repository, catalog Catalog, discounts DiscountValidator, publisher broker.Publisher, log logger.ZapLogger) order.UseCase {
	return &orderUseCase{
		repo:      repo,
		catalog:   catalog,
		discounts: discounts,
		publisher: publisher,
		logger:    log,
		now:       time.Now,
	}
}

func orderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:8]))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (uc *orderUseCase) CreateOrder(ctx context.Context, input *dto.CreateOrderInput) (*model.Order, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}

	now := uc.now()
	o := &model.Order{
		BaseModel:   model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:  input.MerchantID,
		OrderNumber: orderNumber(now),
		CustomerID:  input.CustomerID,
		LocationID:  input.LocationID,
		Status:      model.OrderPending,
		Notes:       input.Notes,
		CreatedBy:   optional(input.UserID),
	}
	if o.LocationID == "" {
		o.LocationID = model.DefaultLocation
	}
	if input.Completed {
		o.Status = model.OrderCompleted
	}

	var (
		subtotal, tax, cost decimal.Decimal
		movements           []model.InventoryMovement
		productIDs          []string
		ref                 = model.ReferenceOrder
	)
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		p, err := uc.catalog.GetProduct(ctx, input.MerchantID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, ErrProductUnavailable.WithDetails(map[string]string{"product_id": p.ID})
		}

		var v *model.ProductVariant
		name := p.Name
		if line.VariantID != nil {
			v = p.FindVariant(*line.VariantID)
			if v == nil || !v.IsActive {
				return nil, ErrVariantUnavailable.WithDetails(map[string]string{"variant_id": *line.VariantID})
			}
			name += " - " + v.VariantName
		}

		price := p.UnitPrice(v)
		if line.UnitPrice.Valid {
			if line.UnitPrice.Decimal.IsNegative() {
				return nil, ErrInvalidPrice
			}
			price = line.UnitPrice.Decimal
		}
		qty := decimal.NewFromInt(int64(line.Quantity))
		unitCost := p.UnitCost(v)
		lineTotal := price.Mul(qty).Round(2)

		o.Items = append(o.Items, model.OrderItem{
			ID:         uuid.New().String(),
			MerchantID: input.MerchantID,
			OrderID:    o.ID,
			ProductID:  p.ID,
			VariantID:  line.VariantID,
			Name:       name,
			Quantity:   line.Quantity,
			UnitPrice:  price,
			UnitCost:   unitCost,
			TaxRate:    p.TaxRate,
			LineTotal:  lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
		tax = tax.Add(lineTotal.Mul(p.TaxRate).Div(hundred))
		cost = cost.Add(unitCost.Mul(qty))
		productIDs = append(productIDs, p.ID)

		if p.TrackInventory {
			movements = append(movements, model.InventoryMovement{
				MerchantID:    input.MerchantID,
				ProductID:     p.ID,
				VariantID:     line.VariantID,
				LocationID:    o.LocationID,
				MovementType:  model.MovementSale,
				Quantity:      -line.Quantity,
				UnitCost:      decimal.NewNullDecimal(unitCost),
				ReferenceType: &ref,
				ReferenceID:   &o.ID,
				Notes:         "Order " + o.OrderNumber,
				CreatedBy:     o.CreatedBy,
				CreatedAt:     now,
			})
		}
	}

	o.Subtotal = subtotal.Round(2)
	o.Tax = tax.Round(2)
	o.Cost = cost.Round(2)

	if code := strings.TrimSpace(input.DiscountCode); code != "" {
		result, err := uc.discounts.ValidateDiscount(ctx, &discountdto.ValidateInput{
			MerchantID: input.MerchantID,
			Code:       code,
			Subtotal:   o.Subtotal,
			CustomerID: input.CustomerID,
			ProductIDs: productIDs,
		})
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, result.Reason
		}
		o.DiscountID = &result.Discount.ID
		o.Discount = result.DiscountAmount
	}
	o.Total = o.Subtotal.Add(o.Tax).Sub(o.Discount)

	if err := uc.repo.Create(ctx, o, movements); err != nil {
		return nil, err
	}

	uc.logger.Info("order created",
		zap.String("merchant_id", o.MerchantID),
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.String("status", string(o.Status)),
		zap.String("total", o.Total.StringFixed(2)),
		zap.Int("movements", len(movements)),
	)

	if o.Status == model.OrderCompleted {
		uc.publishCompleted(ctx, o)
	}
	return o, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, merchantID, id string) (*model.Order, error) {
	o, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, filters *dto.OrderFilters) ([]model.Order, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// compensation is the movement type that reverses sales when entering status.
func compensation(status model.OrderStatus) model.MovementType {
	switch status {
	case model.OrderCancelled:
		return model.MovementReturnStock
	case model.OrderRefunded:
		return model.MovementRefund
	}
	return ""
}

func (uc *orderUseCase) UpdateOrderStatus(ctx context.Context, input *dto.UpdateStatusInput) (*model.Order, error) {
	o, err := uc.GetOrder(ctx, input.MerchantID, input.OrderID)
	if err != nil {
		return nil, err
	}

	from := o.Status
	if err := States.Transition(from, input.Status); err != nil {
		return nil, apperror.ErrInvalidTransition.Wrap(err).
			WithDetails(map[string]string{"from": string(from), "to": string(input.Status)})
	}

	o.Status = input.Status
	o.UpdatedAt = uc.now()
	posted, err := uc.repo.Transition(ctx, o, from, compensation(input.Status), optional(input.UserID))
	if err != nil {
		if errors.Is(err, order.ErrStatusChanged) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	uc.logger.Info("order status updated",
		zap.String("merchant_id", o.MerchantID),
		zap.String("order_id", o.ID),
		zap.String("from", string(from)),
		zap.String("to", string(o.Status)),
		zap.Int("compensations", len(posted)),
	)

	if o.Status == model.OrderCompleted {
		uc.publishCompleted(ctx, o)
	}
	return o, nil
}

func (uc *orderUseCase) DeleteOrder(ctx context.Context, merchantID, id string) error {
	o, err := uc.GetOrder(ctx, merchantID, id)
	if err != nil {
		return err
	}
	if o.Status != model.OrderPending {
		return ErrOrderNotPending
	}

	if err := uc.repo.Delete(ctx, merchantID, id); err != nil {
		if errors.Is(err, order.ErrNotPending) {
			return ErrOrderNotPending
		}
		return err
	}
	return nil
}

// publishCompleted is best effort: the order is already committed.
func (uc *orderUseCase) publishCompleted(ctx context.Context, o *model.Order) {
	if uc.publisher == nil {
		return
	}

	payload, err := json.Marshal(order.CompletedEvent{
		EventID:    uuid.New().String(),
		EventType:  order.EventOrderCompleted,
		OrderID:    o.ID,
		MerchantID: o.MerchantID,
		CustomerID: o.CustomerID,
		DiscountID: o.DiscountID,
		Total:      o.Total,
		Timestamp:  uc.now(),
	})
	if err != nil {
		uc.logger.Error("failed to encode order event", zap.Error(err))
		return
	}

	if err := uc.publisher.Publish(ctx, o.ID, payload); err != nil {
		uc.logger.Error("failed to publish order event",
			zap.String("order_id", o.ID),
			zap.String("event_type", order.EventOrderCompleted),
			zap.Error(err),
		)
	}
}
