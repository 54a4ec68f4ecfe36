package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrPurchaseOrderNotFound = apperror.NotFound("PurchaseOrderNotFound", "Purchase order not found")
	ErrItemNotFound          = apperror.NotFound("PurchaseOrderItemNotFound", "Purchase order item not found")
	ErrNoItems               = apperror.BadRequest("PurchaseOrderNoItems", "Purchase order must have at least one item")
	ErrInvalidQuantity       = apperror.BadRequest("PurchaseOrderInvalidQuantity", "Quantity must be greater than 0")
	ErrInvalidCost           = apperror.BadRequest("PurchaseOrderInvalidCost", "Unit cost must not be negative")
	ErrVariantNotFound       = apperror.NotFound("VariantNotFound", "Variant not found")
	ErrNotReceivable         = apperror.Conflict("PurchaseOrderNotReceivable", "Only sent or partially received purchase orders can be received")
	ErrConcurrentUpdate      = apperror.Conflict("PurchaseOrderConcurrentUpdate", "Purchase order was modified by another request")
)

// States is the purchase order lifecycle.
var States = statemachine.New("purchase_order", map[model.PurchaseOrderStatus][]model.PurchaseOrderStatus{
	model.PODraft:   {model.POSent, model.POCancelled},
	model.POSent:    {model.POPartial, model.POReceived, model.POCancelled},
	model.POPartial: {model.POPartial, model.POReceived},
})

type SupplierReader interface {
	GetSupplier(ctx context.Context, merchantID, id string) (*model.Supplier, error)
}

type ProductReader interface {
	GetProduct(ctx context.Context, merchantID, id string) (*model.Product, error)
}

type purchasingUseCase struct {
	repo      purchasing.Repository
	suppliers SupplierReader
	products  ProductReader
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewPurchasingUseCase(repo purchasing.Repository, suppliers SupplierReader, products ProductReader, log logger.ZapLogger) purchasing.UseCase {
	return &purchasingUseCase{
		repo:      repo,
		suppliers: suppliers,
		products:  products,
		logger:    log,
		now:       time.Now,
	}
}

func (uc *purchasingUseCase) CreatePurchaseOrder(ctx context.Context, input *dto.CreatePurchaseOrderInput) (*model.PurchaseOrder, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	if _, err := uc.suppliers.GetSupplier(ctx, input.MerchantID, input.SupplierID); err != nil {
		return nil, err
	}

	now := uc.now()
	po := &model.PurchaseOrder{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:   input.MerchantID,
		PONumber:     fmt.Sprintf("PO-%s-%s", now.Format("20060102"), strings.ToUpper(uuid.New().String()[:6])),
		SupplierID:   input.SupplierID,
		LocationID:   input.LocationID,
		Status:       model.PODraft,
		ExpectedDate: input.ExpectedDate,
		Notes:        input.Notes,
	}
	if po.LocationID == "" {
		po.LocationID = model.DefaultLocation
	}
	if input.UserID != "" {
		po.CreatedBy = &input.UserID
	}

	total := decimal.Zero
	for _, line := range input.Items {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if line.UnitCost.IsNegative() {
			return nil, ErrInvalidCost
		}

		p, err := uc.products.GetProduct(ctx, input.MerchantID, line.ProductID)
		if err != nil {
			return nil, err
		}
		if line.VariantID != nil && p.FindVariant(*line.VariantID) == nil {
			return nil, ErrVariantNotFound
		}

		po.Items = append(po.Items, model.PurchaseOrderItem{
			ID:              uuid.New().String(),
			MerchantID:      input.MerchantID,
			PurchaseOrderID: po.ID,
			ProductID:       line.ProductID,
			VariantID:       line.VariantID,
			Quantity:        line.Quantity,
			UnitCost:        line.UnitCost,
		})
		total = total.Add(line.UnitCost.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	po.TotalCost = total.Round(2)

	if err := uc.repo.Create(ctx, po); err != nil {
		return nil, err
	}

	uc.logger.Info("purchase order created",
		zap.String("merchant_id", po.MerchantID),
		zap.String("po_number", po.PONumber),
		zap.Int("items", len(po.Items)),
	)
	return po, nil
}

func (uc *purchasingUseCase) GetPurchaseOrder(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error) {
	po, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrPurchaseOrderNotFound
	}
	return po, nil
}

func (uc *purchasingUseCase) ListPurchaseOrders(ctx context.Context, filters *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *purchasingUseCase) SendPurchaseOrder(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error) {
	return uc.transition(ctx, merchantID, id, model.POSent)
}

func (uc *purchasingUseCase) CancelPurchaseOrder(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error) {
	return uc.transition(ctx, merchantID, id, model.POCancelled)
}

func (uc *purchasingUseCase) transition(ctx context.Context, merchantID, id string, to model.PurchaseOrderStatus) (*model.PurchaseOrder, error) {
	po, err := uc.GetPurchaseOrder(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if err := States.Transition(po.Status, to); err != nil {
		return nil, apperror.ErrInvalidTransition.Wrap(err).
			WithDetails(map[string]string{"from": string(po.Status), "to": string(to)})
	}

	if err := uc.repo.UpdateStatus(ctx, merchantID, id, po.Status, to); err != nil {
		if errors.Is(err, purchasing.ErrStatusChanged) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	uc.logger.Info("purchase order status updated",
		zap.String("merchant_id", merchantID),
		zap.String("purchase_order_id", id),
		zap.String("from", string(po.Status)),
		zap.String("to", string(to)),
	)
	po.Status = to
	po.UpdatedAt = uc.now()
	return po, nil
}

// ReceivePurchaseOrder accepts quantities beyond what was ordered.
func (uc *purchasingUseCase) ReceivePurchaseOrder(ctx context.Context, input *dto.ReceiveInput) (*model.PurchaseOrder, error) {
	if len(input.Lines) == 0 {
		return nil, ErrNoItems
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	po, err := uc.GetPurchaseOrder(ctx, input.MerchantID, input.PurchaseOrderID)
	if err != nil {
		return nil, err
	}
	if !States.Can(po.Status, model.POPartial) && !States.Can(po.Status, model.POReceived) {
		return nil, ErrNotReceivable
	}
	for _, line := range input.Lines {
		if po.FindItem(line.ItemID) == nil {
			return nil, ErrItemNotFound.WithDetails(map[string]string{"item_id": line.ItemID})
		}
	}

	updated, err := uc.repo.Receive(ctx, input)
	switch {
	case errors.Is(err, purchasing.ErrNotReceivable):
		return nil, ErrNotReceivable
	case errors.Is(err, purchasing.ErrItemNotFound):
		return nil, ErrItemNotFound
	case err != nil:
		return nil, err
	}

	uc.logger.Info("purchase order received",
		zap.String("merchant_id", input.MerchantID),
		zap.String("purchase_order_id", input.PurchaseOrderID),
		zap.Int("lines", len(input.Lines)),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}
