package model

import "github.com/shopspring/decimal"

type Customer struct {
	BaseModel
	MerchantID    string          `db:"merchant_id" json:"merchant_id"`
	Name          string          `db:"name" json:"name"`
	Email         *string         `db:"email" json:"email"`
	Phone         *string         `db:"phone" json:"phone"`
	LoyaltyPoints int             `db:"loyalty_points" json:"loyalty_points"`
	StoreCredit   decimal.Decimal `db:"store_credit" json:"store_credit"`
}

type Supplier struct {
	BaseModel
	MerchantID string  `db:"merchant_id" json:"merchant_id"`
	Name       string  `db:"name" json:"name"`
	Email      *string `db:"email" json:"email"`
	Phone      *string `db:"phone" json:"phone"`
}
