package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/discount"
	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Rejection reasons, checked in this order by ValidateDiscount.
var (
	ErrCodeNotFound       = apperror.NotFound("DiscountNotFound", "Discount code not found")
	ErrInactive           = apperror.Unprocessable("DiscountInactive", "Discount code is inactive")
	ErrNotYetValid        = apperror.Unprocessable("DiscountNotYetValid", "Discount code is not yet valid")
	ErrExpired            = apperror.Unprocessable("DiscountExpired", "Discount code has expired")
	ErrUsageLimit         = apperror.Unprocessable("DiscountUsageLimit", "Discount code has reached its usage limit")
	ErrCustomerUsageLimit = apperror.Unprocessable("DiscountCustomerLimit", "You have reached the usage limit for this discount")
	ErrMinimumOrder       = apperror.Unprocessable("DiscountMinimumOrder", "Minimum order amount of {{.Amount}} required")
	ErrNotApplicable      = apperror.Unprocessable("DiscountNotApplicable", "Discount does not apply to any items in the cart")
	ErrDiscountNotFound   = apperror.NotFound("DiscountIDNotFound", "Discount not found")
	ErrDuplicateCode      = apperror.Conflict("DiscountCodeExists", "Discount code already exists")
	ErrCodeRequired       = apperror.BadRequest("DiscountCodeRequired", "Discount code is required")
	ErrInvalidType        = apperror.BadRequest("DiscountInvalidType", "Discount type must be percentage or fixed")
	ErrPercentageRange    = apperror.BadRequest("DiscountPercentageRange", "Percentage discount must be greater than 0 and at most 100")
	ErrFixedValue         = apperror.BadRequest("DiscountFixedValue", "Fixed discount must be greater than 0")
	ErrNegativeLimit      = apperror.BadRequest("DiscountNegativeLimit", "Limits and amounts must not be negative")
	ErrWindow             = apperror.BadRequest("DiscountWindow", "End date must be after start date")
)

type discountUseCase struct {
	repo   discount.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewDiscountUseCase(repo discount.Repository, log logger.ZapLogger) discount.UseCase {
	return &discountUseCase{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// NormalizeCode is the stored form of a discount code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func validateDefinition(input *dto.DiscountInput) error {
	if NormalizeCode(input.Code) == "" {
		return ErrCodeRequired
	}
	switch input.Type {
	case model.DiscountPercentage:
		if !input.Value.IsPositive() || input.Value.GreaterThan(decimal.NewFromInt(100)) {
			return ErrPercentageRange
		}
	case model.DiscountFixed:
		if !input.Value.IsPositive() {
			return ErrFixedValue
		}
	default:
		return ErrInvalidType
	}

	if (input.UsageLimit != nil && *input.UsageLimit < 0) ||
		(input.PerCustomerLimit != nil && *input.PerCustomerLimit < 0) ||
		(input.MinOrderAmount.Valid && input.MinOrderAmount.Decimal.IsNegative()) ||
		(input.MaxDiscount.Valid && input.MaxDiscount.Decimal.IsNegative()) {
		return ErrNegativeLimit
	}
	if input.StartsAt != nil && input.EndsAt != nil && !input.EndsAt.After(*input.StartsAt) {
		return ErrWindow
	}
	return nil
}

func (uc *discountUseCase) CreateDiscount(ctx context.Context, input *dto.DiscountInput) (*model.Discount, error) {
	if err := validateDefinition(input); err != nil {
		return nil, err
	}

	now := uc.now()
	d := &model.Discount{
		BaseModel:  model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		MerchantID: input.MerchantID,
		IsActive:   true,
	}
	applyInput(d, input)

	if err := uc.repo.Create(ctx, d); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}

	uc.logger.Info("discount created", zap.String("merchant_id", d.MerchantID), zap.String("code", d.Code))
	return d, nil
}

func (uc *discountUseCase) UpdateDiscount(ctx context.Context, input *dto.DiscountInput) (*model.Discount, error) {
	if err := validateDefinition(input); err != nil {
		return nil, err
	}
	d, err := uc.GetDiscount(ctx, input.MerchantID, input.ID)
	if err != nil {
		return nil, err
	}

	applyInput(d, input)
	d.UpdatedAt = uc.now()

	if err := uc.repo.Update(ctx, d); err != nil {
		if postgres.IsUniqueViolation(err) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return d, nil
}

func applyInput(d *model.Discount, input *dto.DiscountInput) {
	d.Code = NormalizeCode(input.Code)
	d.Description = input.Description
	d.Type = input.Type
	d.Value = input.Value
	d.MinOrderAmount = input.MinOrderAmount
	d.MaxDiscount = input.MaxDiscount
	d.UsageLimit = input.UsageLimit
	d.PerCustomerLimit = input.PerCustomerLimit
	d.StartsAt = input.StartsAt
	d.EndsAt = input.EndsAt
	if input.IsActive != nil {
		d.IsActive = *input.IsActive
	}
	d.AppliesTo = model.StringList(input.AppliesTo)
	if d.AppliesTo == nil {
		d.AppliesTo = model.StringList{}
	}
}

func (uc *discountUseCase) GetDiscount(ctx context.Context, merchantID, id string) (*model.Discount, error) {
	d, err := uc.repo.FindByID(ctx, merchantID, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrDiscountNotFound
	}
	return d, nil
}

func (uc *discountUseCase) ListDiscounts(ctx context.Context, filters *dto.DiscountFilters) ([]model.Discount, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

// DeleteDiscount removes an unused discount and deactivates a used one.
func (uc *discountUseCase) DeleteDiscount(ctx context.Context, merchantID, id string) error {
	d, err := uc.GetDiscount(ctx, merchantID, id)
	if err != nil {
		return err
	}

	if d.UsageCount > 0 {
		return uc.repo.Deactivate(ctx, merchantID, id)
	}
	if err := uc.repo.Delete(ctx, merchantID, id); err != nil {
		// still referenced by an order that never completed
		if postgres.IsForeignKeyViolation(err) {
			return uc.repo.Deactivate(ctx, merchantID, id)
		}
		return err
	}
	return nil
}

func invalid(reason *apperror.Error) *dto.ValidationResult {
	return &dto.ValidationResult{Valid: false, Error: reason.Message, Reason: reason}
}

func (uc *discountUseCase) ValidateDiscount(ctx context.Context, input *dto.ValidateInput) (*dto.ValidationResult, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return invalid(ErrCodeNotFound), nil
	}

	d, err := uc.repo.FindByCode(ctx, input.MerchantID, code)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return invalid(ErrCodeNotFound), nil
	}
	if !d.IsActive {
		return invalid(ErrInactive), nil
	}

	now := uc.now()
	if d.StartsAt != nil && now.Before(*d.StartsAt) {
		return invalid(ErrNotYetValid), nil
	}
	if d.EndsAt != nil && now.After(*d.EndsAt) {
		return invalid(ErrExpired), nil
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return invalid(ErrUsageLimit), nil
	}

	if input.CustomerID != nil && *input.CustomerID != "" && d.PerCustomerLimit != nil {
		used, err := uc.repo.CountCustomerOrders(ctx, input.MerchantID, d.ID, *input.CustomerID)
		if err != nil {
			return nil, err
		}
		if used >= *d.PerCustomerLimit {
			return invalid(ErrCustomerUsageLimit), nil
		}
	}

	if d.MinOrderAmount.Valid && input.Subtotal.LessThan(d.MinOrderAmount.Decimal) {
		amount := d.MinOrderAmount.Decimal.StringFixed(2)
		reason := ErrMinimumOrder.WithData(map[string]any{"Amount": amount})
		reason.Message = "Minimum order amount of " + amount + " required"
		return invalid(reason), nil
	}

	if len(d.AppliesTo) > 0 {
		ok, err := uc.applies(ctx, input.MerchantID, d.AppliesTo, input.ProductIDs)
		if err != nil {
			return nil, err
		}
		if !ok {
			return invalid(ErrNotApplicable), nil
		}
	}

	return &dto.ValidationResult{
		Valid:          true,
		DiscountAmount: Amount(d, input.Subtotal),
		Discount:       d,
	}, nil
}

// applies reports whether any cart product, or its category, is in the list.
func (uc *discountUseCase) applies(ctx context.Context, merchantID string, list model.StringList, productIDs []string) (bool, error) {
	targets := make(map[string]struct{}, len(list))
	for _, id := range list {
		targets[id] = struct{}{}
	}
	for _, id := range productIDs {
		if _, ok := targets[id]; ok {
			return true, nil
		}
	}

	categories, err := uc.repo.ProductCategoryIDs(ctx, merchantID, productIDs)
	if err != nil {
		return false, err
	}
	for _, id := range categories {
		if _, ok := targets[id]; ok {
			return true, nil
		}
	}
	return false, nil
}

// Amount computes the discount for subtotal: percentage capped by MaxDiscount,
// or the flat value, never more than subtotal, rounded to cents.
func Amount(d *model.Discount, subtotal decimal.Decimal) decimal.Decimal {
	var amount decimal.Decimal
	switch d.Type {
	case model.DiscountPercentage:
		amount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100))
		if d.MaxDiscount.Valid && amount.GreaterThan(d.MaxDiscount.Decimal) {
			amount = d.MaxDiscount.Decimal
		}
	case model.DiscountFixed:
		amount = d.Value
	}

	if amount.GreaterThan(subtotal) {
		amount = subtotal
	}
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return amount.Round(2)
}

func (uc *discountUseCase) RecordUsage(ctx context.Context, input *dto.RecordUsageInput) error {
	recorded, err := uc.repo.RecordRedemption(ctx, &model.DiscountRedemption{
		ID:         uuid.New().String(),
		MerchantID: input.MerchantID,
		DiscountID: input.DiscountID,
		OrderID:    input.OrderID,
		CustomerID: input.CustomerID,
		CreatedAt:  uc.now(),
	})
	if err != nil {
		switch {
		case errors.Is(err, discount.ErrNotFound):
			return ErrDiscountNotFound
		case errors.Is(err, discount.ErrUsageLimitReached):
			return ErrUsageLimit
		}
		return err
	}

	if !recorded {
		uc.logger.Debug("discount usage already recorded",
			zap.String("discount_id", input.DiscountID), zap.String("order_id", input.OrderID))
		return nil
	}

	uc.logger.Info("discount usage recorded",
		zap.String("merchant_id", input.MerchantID),
		zap.String("discount_id", input.DiscountID),
		zap.String("order_id", input.OrderID),
	)
	return nil
}
