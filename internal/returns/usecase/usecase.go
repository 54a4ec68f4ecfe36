package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"github.com/fekuna/omnipos-backoffice/internal/returns"
	"github.com/fekuna/omnipos-backoffice/internal/returns/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrReturnNotFound    = apperror.NotFound("ReturnNotFound", "Return not found")
	ErrOrderItemNotFound = apperror.NotFound("ReturnOrderItemNotFound", "Order item not found")
	ErrOrderNotCompleted = apperror.Unprocessable("ReturnOrderNotCompleted", "Only completed orders can be returned")
	ErrExceedsReturnable = apperror.Unprocessable("ReturnExceedsQuantity", "Return quantity exceeds the quantity available to return")
	ErrInvalidReason     = apperror.BadRequest("ReturnInvalidReason", "Invalid return reason")
	ErrInvalidRefund     = apperror.BadRequest("ReturnInvalidRefundMethod", "Invalid refund method")
	ErrNoItems           = apperror.BadRequest("ReturnNoItems", "Return must have at least one item")
	ErrInvalidQuantity   = apperror.BadRequest("ReturnInvalidQuantity", "Quantity must be greater than 0")
)

// States is the return lifecycle.
var States = statemachine.New("return", map[model.ReturnStatus][]model.ReturnStatus{
	model.ReturnPending: {model.ReturnApproved, model.ReturnRejected},
})

var hundred = decimal.NewFromInt(100)

// OrderReader loads the order being returned. order.UseCase satisfies it.
type OrderReader interface {
	GetOrder(ctx context.Context, merchantID, id string) (*model.Order, error)
}

type returnUseCase struct {
	repo   returns.Repository
	orders OrderReader
	logger logger.ZapLogger
	now    func() time.Time
}

func NewReturnUseCase(repo returns.Repository, orders OrderReader, log logger.ZapLogger) returns.UseCase {
	return &returnUseCase{
		repo:   repo,
		orders: orders,
		logger: log,
		now:    time.Now,
	}
}

// LineRefund is qty × unit price including the line's tax, rounded to cents.
func LineRefund(item *model.OrderItem, qty int) decimal.Decimal {
	gross := item.UnitPrice.Mul(hundred.Add(item.TaxRate)).Div(hundred)
	return gross.Mul(decimal.NewFromInt(int64(qty))).Round(2)
}

func (uc *returnUseCase) CreateReturn(ctx context.Context, input *dto.CreateReturnInput) (*model.Return, error) {
	if !input.Reason.Valid() {
		return nil, ErrInvalidReason
	}
	if !input.RefundMethod.Valid() {
		return nil, ErrInvalidRefund
	}
	if len(input.Lines) == 0 {
		return nil, ErrNoItems
	}

	o, err := uc.orders.GetOrder(ctx, input.MerchantID, input.OrderID)
	if err != nil {
		return nil, err
	}
	if o.Status != model.OrderCompleted {
		return nil, ErrOrderNotCompleted
	}

	left, err := uc.repo.Returnable(ctx, input.MerchantID, input.OrderID)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	ret := &model.Return{
		BaseModel:    model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID:   input.MerchantID,
		OrderID:      o.ID,
		CustomerID:   o.CustomerID,
		Reason:       input.Reason,
		RefundMethod: input.RefundMethod,
		Status:       model.ReturnPending,
		Notes:        input.Notes,
	}
	if input.UserID != "" {
		ret.CreatedBy = &input.UserID
	}

	total := decimal.Zero
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		item := o.FindItem(line.OrderItemID)
		if item == nil {
			return nil, ErrOrderItemNotFound.WithDetails(map[string]string{"order_item_id": line.OrderItemID})
		}
		if line.Quantity > left[item.ID] {
			return nil, ErrExceedsReturnable.WithDetails(map[string]any{
				"order_item_id": item.ID,
				"returnable":    max(left[item.ID], 0),
				"requested":     line.Quantity,
			})
		}
		left[item.ID] -= line.Quantity

		restock := true
		if line.Restock != nil {
			restock = *line.Restock
		}
		refund := LineRefund(item, line.Quantity)
		ret.Items = append(ret.Items, model.ReturnItem{
			ID:           uuid.New().String(),
			MerchantID:   input.MerchantID,
			ReturnID:     ret.ID,
			OrderItemID:  item.ID,
			ProductID:    item.ProductID,
			VariantID:    item.VariantID,
			Quantity:     line.Quantity,
			Restock:      restock,
			RefundAmount: refund,
		})
		total = total.Add(refund)
	}
	ret.RefundAmount = total

	if err := uc.repo.Create(ctx, ret); err != nil {
		if errors.Is(err, returns.ErrExceedsReturnable) {
			return nil, ErrExceedsReturnable
		}
		return nil, err
	}

	uc.logger.Info("return created",
		zap.String("merchant_id", ret.MerchantID),
		zap.String("return_id", ret.ID),
		zap.String("order_id", ret.OrderID),
		zap.String("refund_amount", ret.RefundAmount.StringFixed(2)),
	)
	return ret, nil
}

func (uc *returnUseCase) GetReturn(ctx context.Context, merchantID, id string) (*model.Return, error) {
	ret, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if ret == nil {
		return nil, ErrReturnNotFound
	}
	return ret, nil
}

func (uc *returnUseCase) ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.Return, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func invalidTransition(ret *model.Return, to model.ReturnStatus, err error) error {
	return apperror.ErrInvalidTransition.Wrap(err).
		WithDetails(map[string]string{"from": string(ret.Status), "to": string(to)})
}

func (uc *returnUseCase) ApproveReturn(ctx context.Context, merchantID, id, userID string) (*model.Return, error) {
	ret, err := uc.GetReturn(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if err := States.Transition(ret.Status, model.ReturnApproved); err != nil {
		return nil, invalidTransition(ret, model.ReturnApproved, err)
	}

	var actor *string
	if userID != "" {
		actor = &userID
	}
	posted, err := uc.repo.Approve(ctx, merchantID, id, actor)
	if err != nil {
		if errors.Is(err, returns.ErrNotPending) {
			return nil, invalidTransition(ret, model.ReturnApproved, err)
		}
		return nil, err
	}

	uc.logger.Info("return approved",
		zap.String("merchant_id", merchantID),
		zap.String("return_id", id),
		zap.Int("restocked_lines", len(posted)),
		zap.String("refund_method", string(ret.RefundMethod)),
	)
	return uc.GetReturn(ctx, merchantID, id)
}

func (uc *returnUseCase) RejectReturn(ctx context.Context, merchantID, id string) (*model.Return, error) {
	ret, err := uc.GetReturn(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if err := States.Transition(ret.Status, model.ReturnRejected); err != nil {
		return nil, invalidTransition(ret, model.ReturnRejected, err)
	}

	if err := uc.repo.Reject(ctx, merchantID, id); err != nil {
		if errors.Is(err, returns.ErrNotPending) {
			return nil, invalidTransition(ret, model.ReturnRejected, err)
		}
		return nil, err
	}
	return uc.GetReturn(ctx, merchantID, id)
}
