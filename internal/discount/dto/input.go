package dto

import (
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/shopspring/decimal"
)

// DiscountInput serves both create and update; ID is empty on create.
type DiscountInput struct {
	ID               string
	MerchantID       string
	Code             string
	Description      string
	Type             model.DiscountType
	Value            decimal.Decimal
	MinOrderAmount   decimal.NullDecimal
	MaxDiscount      decimal.NullDecimal
	UsageLimit       *int
	PerCustomerLimit *int
	StartsAt         *time.Time
	EndsAt           *time.Time
	IsActive         *bool
	AppliesTo        []string
}

type RecordUsageInput struct {
	MerchantID string
	DiscountID string
	OrderID    string
	CustomerID *string
}
