package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/loyalty"
	"github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInsufficientPoints = apperror.Unprocessable("InsufficientPoints", "Insufficient points")
	ErrPointsNotPositive  = apperror.BadRequest("PointsNotPositive", "Points must be greater than 0")
	ErrZeroAdjustment     = apperror.BadRequest("PointsZeroAdjustment", "Adjustment must not be zero")
	ErrCustomerNotFound   = apperror.NotFound("CustomerNotFound", "Customer not found")
	ErrAlreadyAwarded     = apperror.Conflict("PointsAlreadyAwarded", "Points were already awarded for this order")
)

type loyaltyUseCase struct {
	repo          loyalty.Repository
	pointsPerUnit decimal.Decimal
	logger        logger.ZapLogger
	now           func() time.Time
}

// NewLoyaltyUseCase earns pointsPerUnit points per currency unit spent.
func NewLoyaltyUseCase(repo loyalty.Repository, pointsPerUnit decimal.Decimal, log logger.ZapLogger) loyalty.UseCase {
	if !pointsPerUnit.IsPositive() {
		pointsPerUnit = decimal.NewFromInt(1)
	}
	return &loyaltyUseCase{
		repo:          repo,
		pointsPerUnit: pointsPerUnit,
		logger:        log,
		now:           time.Now,
	}
}

func (uc *loyaltyUseCase) AwardPoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error) {
	if input.Points <= 0 {
		return nil, ErrPointsNotPositive
	}
	return uc.post(ctx, input, model.LoyaltyEarned, input.Points)
}

// RedeemPoints fails with ErrInsufficientPoints, writing nothing, when the
// balance cannot cover the redemption.
func (uc *loyaltyUseCase) RedeemPoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error) {
	if input.Points <= 0 {
		return nil, ErrPointsNotPositive
	}
	return uc.post(ctx, input, model.LoyaltyRedeemed, -input.Points)
}

func (uc *loyaltyUseCase) AdjustPoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error) {
	if input.Points == 0 {
		return nil, ErrZeroAdjustment
	}
	return uc.post(ctx, input, model.LoyaltyAdjusted, input.Points)
}

func (uc *loyaltyUseCase) ExpirePoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error) {
	if input.Points <= 0 {
		return nil, ErrPointsNotPositive
	}
	return uc.post(ctx, input, model.LoyaltyExpired, -input.Points)
}

func (uc *loyaltyUseCase) post(ctx context.Context, input *dto.PointsInput, kind model.LoyaltyKind, signed int) (*dto.LedgerEntry, error) {
	txn := &model.LoyaltyTransaction{
		ID:          uuid.New().String(),
		MerchantID:  input.MerchantID,
		CustomerID:  input.CustomerID,
		OrderID:     input.OrderID,
		Points:      signed,
		Kind:        kind,
		Description: input.Description,
		CreatedAt:   uc.now(),
	}

	balance, err := uc.repo.Post(ctx, txn)
	switch {
	case errors.Is(err, loyalty.ErrNegativeBalance):
		return nil, ErrInsufficientPoints.WithDetails(map[string]int{"balance": balance, "requested": -signed})
	case errors.Is(err, loyalty.ErrCustomerNotFound):
		return nil, ErrCustomerNotFound
	case errors.Is(err, loyalty.ErrAlreadyPosted):
		return nil, ErrAlreadyAwarded
	case err != nil:
		return nil, err
	}

	uc.logger.Info("loyalty points posted",
		zap.String("merchant_id", input.MerchantID),
		zap.String("customer_id", input.CustomerID),
		zap.String("kind", string(kind)),
		zap.Int("points", signed),
		zap.Int("balance", balance),
	)
	return &dto.LedgerEntry{Transaction: txn, Balance: balance}, nil
}

func (uc *loyaltyUseCase) GetBalance(ctx context.Context, merchantID, customerID string) (int, error) {
	balance, err := uc.repo.GetBalance(ctx, merchantID, customerID)
	if errors.Is(err, loyalty.ErrCustomerNotFound) {
		return 0, ErrCustomerNotFound
	}
	return balance, err
}

func (uc *loyaltyUseCase) ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.LoyaltyTransaction, int, error) {
	return uc.repo.ListTransactions(ctx, filters)
}

// PointsForOrder floors total × pointsPerUnit. Non-positive totals earn nothing.
func (uc *loyaltyUseCase) PointsForOrder(total decimal.Decimal) int {
	if !total.IsPositive() {
		return 0
	}
	return int(total.Mul(uc.pointsPerUnit).Floor().IntPart())
}
