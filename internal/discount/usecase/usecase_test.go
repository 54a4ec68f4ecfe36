package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/discount"
	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	discount.Repository
	byCode      map[string]*model.Discount
	custOrders  int
	categories  []string
	redemptions map[string]bool
	created     *model.Discount
	deleted     bool
	deactivated bool
	deleteErr   error
}

func newFakeRepo(ds ...*model.Discount) *fakeRepo {
	r := &fakeRepo{byCode: map[string]*model.Discount{}, redemptions: map[string]bool{}}
	for _, d := range ds {
		r.byCode[d.Code] = d
	}
	return r
}

func (r *fakeRepo) FindByCode(_ context.Context, _, code string) (*model.Discount, error) {
	return r.byCode[code], nil
}

func (r *fakeRepo) lookup(id string) *model.Discount {
	for _, d := range r.byCode {
		if d.ID == id {
			return d
		}
	}
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, _, id string) (*model.Discount, error) {
	return r.lookup(id), nil
}

func (r *fakeRepo) Create(_ context.Context, d *model.Discount) error {
	r.created = d
	return nil
}

func (r *fakeRepo) Delete(context.Context, string, string) error {
	r.deleted = true
	return r.deleteErr
}

func (r *fakeRepo) Deactivate(context.Context, string, string) error {
	r.deactivated = true
	return nil
}

func (r *fakeRepo) CountCustomerOrders(context.Context, string, string, string) (int, error) {
	return r.custOrders, nil
}

func (r *fakeRepo) ProductCategoryIDs(context.Context, string, []string) ([]string, error) {
	return r.categories, nil
}

func (r *fakeRepo) RecordRedemption(_ context.Context, red *model.DiscountRedemption) (bool, error) {
	d := r.lookup(red.DiscountID)
	if d == nil {
		return false, discount.ErrNotFound
	}
	if r.redemptions[red.OrderID] {
		return false, nil
	}
	if d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit {
		return false, discount.ErrUsageLimitReached
	}
	r.redemptions[red.OrderID] = true
	d.UsageCount++
	return true, nil
}

var fixedNow = time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

func newTestUseCase(repo discount.Repository) *discountUseCase {
	return &discountUseCase{repo: repo, logger: logger.NewNop(), now: func() time.Time { return fixedNow }}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(i int) *int { return &i }

func save10() *model.Discount {
	return &model.Discount{
		BaseModel: model.BaseModel{ID: "d-1"},
		Code:      "SAVE10",
		Type:      model.DiscountPercentage,
		Value:     dec("10"),
		IsActive:  true,
	}
}

func TestValidateDiscount_Percentage(t *testing.T) {
	uc := newTestUseCase(newFakeRepo(save10()))

	res, err := uc.ValidateDiscount(context.Background(), &dto.ValidateInput{MerchantID: "m-1", Code: " save10 ", Subtotal: dec("250.00")})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, dec("25.00").Equal(res.DiscountAmount), res.DiscountAmount.String())
}

func TestValidateDiscount_Rejections(t *testing.T) {
	past := fixedNow.Add(-time.Hour)
	future := fixedNow.Add(time.Hour)

	tests := []struct {
		name   string
		mutate func(d *model.Discount, r *fakeRepo)
		input  dto.ValidateInput
		want   error
	}{
		{"unknown code", nil, dto.ValidateInput{Code: "NOPE", Subtotal: dec("10")}, ErrCodeNotFound},
		{"empty code", nil, dto.ValidateInput{Code: "  ", Subtotal: dec("10")}, ErrCodeNotFound},
		{"inactive", func(d *model.Discount, _ *fakeRepo) { d.IsActive = false }, dto.ValidateInput{Code: "SAVE10", Subtotal: dec("10")}, ErrInactive},
		{"not started", func(d *model.Discount, _ *fakeRepo) { d.StartsAt = &future }, dto.ValidateInput{Code: "SAVE10", Subtotal: dec("10")}, ErrNotYetValid},
		{"expired", func(d *model.Discount, _ *fakeRepo) { d.EndsAt = &past }, dto.ValidateInput{Code: "SAVE10", Subtotal: dec("10")}, ErrExpired},
		{"usage limit", func(d *model.Discount, _ *fakeRepo) { d.UsageLimit = intPtr(5); d.UsageCount = 5 }, dto.ValidateInput{Code: "SAVE10", Subtotal: dec("10")}, ErrUsageLimit},
		{
			"per customer limit",
			func(d *model.Discount, r *fakeRepo) { d.PerCustomerLimit = intPtr(1); r.custOrders = 1 },
			dto.ValidateInput{Code: "SAVE10", Subtotal: dec("10"), CustomerID: strPtr("c-1")},
			ErrCustomerUsageLimit,
		},
		{
			"minimum order",
			func(d *model.Discount, _ *fakeRepo) { d.MinOrderAmount = decimal.NewNullDecimal(dec("50")) },
			dto.ValidateInput{Code: "SAVE10", Subtotal: dec("49.99")},
			ErrMinimumOrder,
		},
		{
			"not applicable",
			func(d *model.Discount, r *fakeRepo) { d.AppliesTo = model.StringList{"p-9"}; r.categories = []string{"cat-1"} },
			dto.ValidateInput{Code: "SAVE10", Subtotal: dec("10"), ProductIDs: []string{"p-1"}},
			ErrNotApplicable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := save10()
			repo := newFakeRepo(d)
			if tt.mutate != nil {
				tt.mutate(d, repo)
			}
			uc := newTestUseCase(repo)

			res, err := uc.ValidateDiscount(context.Background(), &tt.input)
			require.NoError(t, err)
			assert.False(t, res.Valid)
			assert.True(t, errors.Is(res.Reason, tt.want), "got %v", res.Reason)
			assert.NotEmpty(t, res.Error)
		})
	}
}

func TestValidateDiscount_MinimumOrderMessage(t *testing.T) {
	d := save10()
	d.MinOrderAmount = decimal.NewNullDecimal(dec("50"))
	uc := newTestUseCase(newFakeRepo(d))

	res, err := uc.ValidateDiscount(context.Background(), &dto.ValidateInput{Code: "SAVE10", Subtotal: dec("20")})
	require.NoError(t, err)
	assert.Equal(t, "Minimum order amount of 50.00 required", res.Error)
}

func TestValidateDiscount_AppliesViaCategory(t *testing.T) {
	d := save10()
	d.AppliesTo = model.StringList{"cat-1"}
	repo := newFakeRepo(d)
	repo.categories = []string{"cat-1"}
	uc := newTestUseCase(repo)

	res, err := uc.ValidateDiscount(context.Background(), &dto.ValidateInput{Code: "SAVE10", Subtotal: dec("40"), ProductIDs: []string{"p-1"}})
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.True(t, dec("4").Equal(res.DiscountAmount))
}

func strPtr(s string) *string { return &s }

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		d        model.Discount
		subtotal string
		want     string
	}{
		{"percentage", model.Discount{Type: model.DiscountPercentage, Value: dec("15")}, "80", "12"},
		{"percentage capped", model.Discount{Type: model.DiscountPercentage, Value: dec("50"), MaxDiscount: decimal.NewNullDecimal(dec("20"))}, "100", "20"},
		{"fixed", model.Discount{Type: model.DiscountFixed, Value: dec("5")}, "30", "5"},
		{"fixed clamped to subtotal", model.Discount{Type: model.DiscountFixed, Value: dec("50")}, "30", "30"},
		{"rounded", model.Discount{Type: model.DiscountPercentage, Value: dec("12.5")}, "10.01", "1.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Amount(&tt.d, dec(tt.subtotal))
			assert.True(t, dec(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestCreateDiscount_Validation(t *testing.T) {
	uc := newTestUseCase(newFakeRepo())
	ctx := context.Background()

	_, err := uc.CreateDiscount(ctx, &dto.DiscountInput{Code: "BIG", Type: model.DiscountPercentage, Value: dec("101")})
	assert.ErrorIs(t, err, ErrPercentageRange)

	_, err = uc.CreateDiscount(ctx, &dto.DiscountInput{Code: "ZERO", Type: model.DiscountFixed, Value: decimal.Zero})
	assert.ErrorIs(t, err, ErrFixedValue)

	_, err = uc.CreateDiscount(ctx, &dto.DiscountInput{Code: "X", Type: "bogo", Value: dec("1")})
	assert.ErrorIs(t, err, ErrInvalidType)

	start := fixedNow
	end := fixedNow.Add(-time.Minute)
	_, err = uc.CreateDiscount(ctx, &dto.DiscountInput{Code: "W", Type: model.DiscountFixed, Value: dec("1"), StartsAt: &start, EndsAt: &end})
	assert.ErrorIs(t, err, ErrWindow)

	_, err = uc.CreateDiscount(ctx, &dto.DiscountInput{Code: "N", Type: model.DiscountFixed, Value: dec("1"), UsageLimit: intPtr(-1)})
	assert.ErrorIs(t, err, ErrNegativeLimit)
}

func TestCreateDiscount_NormalizesCode(t *testing.T) {
	repo := newFakeRepo()
	uc := newTestUseCase(repo)

	d, err := uc.CreateDiscount(context.Background(), &dto.DiscountInput{MerchantID: "m-1", Code: " summer ", Type: model.DiscountFixed, Value: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, "SUMMER", d.Code)
	assert.True(t, d.IsActive)
	assert.NotNil(t, d.AppliesTo)
	assert.Same(t, d, repo.created)
}

func TestDeleteDiscount(t *testing.T) {
	t.Run("used discount is deactivated", func(t *testing.T) {
		d := save10()
		d.UsageCount = 3
		repo := newFakeRepo(d)
		require.NoError(t, newTestUseCase(repo).DeleteDiscount(context.Background(), "m-1", "d-1"))
		assert.True(t, repo.deactivated)
		assert.False(t, repo.deleted)
	})

	t.Run("unused discount is deleted", func(t *testing.T) {
		repo := newFakeRepo(save10())
		require.NoError(t, newTestUseCase(repo).DeleteDiscount(context.Background(), "m-1", "d-1"))
		assert.True(t, repo.deleted)
		assert.False(t, repo.deactivated)
	})

	t.Run("missing", func(t *testing.T) {
		err := newTestUseCase(newFakeRepo()).DeleteDiscount(context.Background(), "m-1", "nope")
		assert.ErrorIs(t, err, ErrDiscountNotFound)
	})
}

func TestRecordUsage(t *testing.T) {
	d := save10()
	d.UsageLimit = intPtr(1)
	repo := newFakeRepo(d)
	uc := newTestUseCase(repo)
	ctx := context.Background()

	require.NoError(t, uc.RecordUsage(ctx, &dto.RecordUsageInput{DiscountID: "d-1", OrderID: "o-1"}))
	// replay of the same order is a no-op
	require.NoError(t, uc.RecordUsage(ctx, &dto.RecordUsageInput{DiscountID: "d-1", OrderID: "o-1"}))
	assert.Equal(t, 1, d.UsageCount)

	err := uc.RecordUsage(ctx, &dto.RecordUsageInput{DiscountID: "d-1", OrderID: "o-2"})
	assert.ErrorIs(t, err, ErrUsageLimit)
}

func TestRecordUsage_UnknownDiscount(t *testing.T) {
	uc := newTestUseCase(newFakeRepo(save10()))

	err := uc.RecordUsage(context.Background(), &dto.RecordUsageInput{MerchantID: "m-2", DiscountID: "d-404", OrderID: "o-1"})
	assert.ErrorIs(t, err, ErrDiscountNotFound)
	assert.NotErrorIs(t, err, ErrUsageLimit)
}

func TestValidateRecordRevalidate(t *testing.T) {
	tests := []struct {
		name       string
		usageLimit *int
		usageCount int
		minOrder   string
		subtotal   string
		wantAmount string
		wantCount  int
		// nil when the code stays redeemable after recording
		wantAfter error
	}{
		{
			name:       "SAVE10 last redemption",
			usageLimit: intPtr(100),
			usageCount: 99,
			minOrder:   "50",
			subtotal:   "60.00",
			wantAmount: "6.00",
			wantCount:  100,
			wantAfter:  ErrUsageLimit,
		},
		{
			name:       "unlimited",
			usageCount: 99,
			minOrder:   "50",
			subtotal:   "60.00",
			wantAmount: "6.00",
			wantCount:  100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := save10()
			d.UsageLimit = tt.usageLimit
			d.UsageCount = tt.usageCount
			d.MinOrderAmount = decimal.NewNullDecimal(dec(tt.minOrder))
			uc := newTestUseCase(newFakeRepo(d))
			ctx := context.Background()
			input := &dto.ValidateInput{MerchantID: "m-1", Code: "SAVE10", Subtotal: dec(tt.subtotal)}

			res, err := uc.ValidateDiscount(ctx, input)
			require.NoError(t, err)
			require.True(t, res.Valid, res.Error)
			assert.Equal(t, tt.wantAmount, res.DiscountAmount.StringFixed(2))

			require.NoError(t, uc.RecordUsage(ctx, &dto.RecordUsageInput{MerchantID: "m-1", DiscountID: "d-1", OrderID: "o-1"}))
			assert.Equal(t, tt.wantCount, d.UsageCount)

			res, err = uc.ValidateDiscount(ctx, input)
			require.NoError(t, err)
			if tt.wantAfter == nil {
				assert.True(t, res.Valid)
				return
			}
			assert.False(t, res.Valid)
			assert.True(t, errors.Is(res.Reason, tt.wantAfter), "got %v", res.Reason)
		})
	}
}
