package loyalty

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/shopspring/decimal"
)

type UseCase interface {
	AwardPoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error)
	RedeemPoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error)
	AdjustPoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error)
	ExpirePoints(ctx context.Context, input *dto.PointsInput) (*dto.LedgerEntry, error)
	GetBalance(ctx context.Context, merchantID, customerID string) (int, error)
	ListTransactions(ctx context.Context, filters *dto.TransactionFilters) ([]model.LoyaltyTransaction, int, error)

	PointsForOrder(total decimal.Decimal) int
}
