package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

type Discount struct {
	BaseModel
	MerchantID       string              `db:"merchant_id" json:"merchant_id"`
	Code             string              `db:"code" json:"code"`
	Description      string              `db:"description" json:"description"`
	Type             DiscountType        `db:"type" json:"type"`
	Value            decimal.Decimal     `db:"value" json:"value"`
	MinOrderAmount   decimal.NullDecimal `db:"min_order_amount" json:"min_order_amount"`
	MaxDiscount      decimal.NullDecimal `db:"max_discount" json:"max_discount"`
	UsageLimit       *int                `db:"usage_limit" json:"usage_limit"`
	PerCustomerLimit *int                `db:"per_customer_limit" json:"per_customer_limit"`
	StartsAt         *time.Time          `db:"starts_at" json:"starts_at"`
	EndsAt           *time.Time          `db:"ends_at" json:"ends_at"`
	IsActive         bool                `db:"is_active" json:"is_active"`
	AppliesTo        StringList          `db:"applies_to" json:"applies_to"`
	UsageCount       int                 `db:"usage_count" json:"usage_count"`
}

type DiscountRedemption struct {
	ID         string    `db:"id" json:"id"`
	MerchantID string    `db:"merchant_id" json:"merchant_id"`
	DiscountID string    `db:"discount_id" json:"discount_id"`
	OrderID    string    `db:"order_id" json:"order_id"`
	CustomerID *string   `db:"customer_id" json:"customer_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// StringList is stored as a JSON array.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("StringList: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return err
	}
	*l = out
	return nil
}
