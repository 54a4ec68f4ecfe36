package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/loyalty"
	"github.com/fekuna/omnipos-backoffice/internal/loyalty/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo applies Post the way the database transaction does.
type memRepo struct {
	loyalty.Repository
	balances map[string]int
	ledger   []model.LoyaltyTransaction
}

func newMemRepo(balances map[string]int) *memRepo {
	return &memRepo{balances: balances}
}

func (r *memRepo) Post(_ context.Context, t *model.LoyaltyTransaction) (int, error) {
	balance, ok := r.balances[t.CustomerID]
	if !ok {
		return 0, loyalty.ErrCustomerNotFound
	}
	if t.Kind == model.LoyaltyEarned && t.OrderID != nil {
		for _, prev := range r.ledger {
			if prev.Kind == model.LoyaltyEarned && prev.OrderID != nil && *prev.OrderID == *t.OrderID {
				return balance, loyalty.ErrAlreadyPosted
			}
		}
	}
	next := balance + t.Points
	if next < 0 {
		return balance, loyalty.ErrNegativeBalance
	}
	r.ledger = append(r.ledger, *t)
	r.balances[t.CustomerID] = next
	return next, nil
}

func (r *memRepo) GetBalance(_ context.Context, _, customerID string) (int, error) {
	balance, ok := r.balances[customerID]
	if !ok {
		return 0, loyalty.ErrCustomerNotFound
	}
	return balance, nil
}

func (r *memRepo) sum(customerID string) int {
	total := 0
	for _, t := range r.ledger {
		if t.CustomerID == customerID {
			total += t.Points
		}
	}
	return total
}

func input(points int) *dto.PointsInput {
	return &dto.PointsInput{MerchantID: "m-1", CustomerID: "c-1", Points: points}
}

func TestLoyalty_LedgerMatchesBalance(t *testing.T) {
	repo := newMemRepo(map[string]int{"c-1": 0})
	uc := NewLoyaltyUseCase(repo, decimal.NewFromInt(1), logger.NewNop())
	ctx := context.Background()

	_, err := uc.AwardPoints(ctx, input(120))
	require.NoError(t, err)
	_, err = uc.RedeemPoints(ctx, input(50))
	require.NoError(t, err)
	_, err = uc.AdjustPoints(ctx, input(-10))
	require.NoError(t, err)
	entry, err := uc.ExpirePoints(ctx, input(20))
	require.NoError(t, err)

	assert.Equal(t, 40, entry.Balance)
	assert.Equal(t, model.LoyaltyExpired, entry.Transaction.Kind)
	assert.Equal(t, -20, entry.Transaction.Points)

	balance, err := uc.GetBalance(ctx, "m-1", "c-1")
	require.NoError(t, err)
	assert.Equal(t, repo.sum("c-1"), balance)
}

func TestLoyalty_InsufficientPoints(t *testing.T) {
	repo := newMemRepo(map[string]int{"c-1": 30})
	uc := NewLoyaltyUseCase(repo, decimal.NewFromInt(1), logger.NewNop())

	_, err := uc.RedeemPoints(context.Background(), input(50))
	require.ErrorIs(t, err, ErrInsufficientPoints)

	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, map[string]int{"balance": 30, "requested": 50}, appErr.Details)
	assert.Empty(t, repo.ledger)
	assert.Equal(t, 30, repo.balances["c-1"])
}

func TestLoyalty_InputValidation(t *testing.T) {
	uc := NewLoyaltyUseCase(newMemRepo(map[string]int{"c-1": 10}), decimal.NewFromInt(1), logger.NewNop())
	ctx := context.Background()

	_, err := uc.AwardPoints(ctx, input(0))
	assert.ErrorIs(t, err, ErrPointsNotPositive)
	_, err = uc.RedeemPoints(ctx, input(-5))
	assert.ErrorIs(t, err, ErrPointsNotPositive)
	_, err = uc.AdjustPoints(ctx, input(0))
	assert.ErrorIs(t, err, ErrZeroAdjustment)
	_, err = uc.AwardPoints(ctx, &dto.PointsInput{CustomerID: "ghost", Points: 1})
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestLoyalty_AwardOncePerOrder(t *testing.T) {
	uc := NewLoyaltyUseCase(newMemRepo(map[string]int{"c-1": 0}), decimal.NewFromInt(1), logger.NewNop())
	orderID := "o-1"
	in := &dto.PointsInput{MerchantID: "m-1", CustomerID: "c-1", OrderID: &orderID, Points: 10}

	_, err := uc.AwardPoints(context.Background(), in)
	require.NoError(t, err)
	_, err = uc.AwardPoints(context.Background(), in)
	assert.ErrorIs(t, err, ErrAlreadyAwarded)
}

func TestLoyalty_StampsInjectedClock(t *testing.T) {
	fixed := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	repo := newMemRepo(map[string]int{"c-1": 0})
	uc := NewLoyaltyUseCase(repo, decimal.NewFromInt(1), logger.NewNop()).(*loyaltyUseCase)
	uc.now = func() time.Time { return fixed }

	entry, err := uc.AwardPoints(context.Background(), input(15))
	require.NoError(t, err)
	assert.Equal(t, fixed, entry.Transaction.CreatedAt)
	require.Len(t, repo.ledger, 1)
	assert.Equal(t, fixed, repo.ledger[0].CreatedAt)
}

func TestPointsForOrder(t *testing.T) {
	uc := NewLoyaltyUseCase(nil, decimal.RequireFromString("0.5"), logger.NewNop())

	assert.Equal(t, 61, uc.PointsForOrder(decimal.RequireFromString("123.99")))
	assert.Equal(t, 0, uc.PointsForOrder(decimal.Zero))
	assert.Equal(t, 0, uc.PointsForOrder(decimal.RequireFromString("-10")))

	fallback := NewLoyaltyUseCase(nil, decimal.Zero, logger.NewNop())
	assert.Equal(t, 12, fallback.PointsForOrder(decimal.RequireFromString("12.70")))
}
