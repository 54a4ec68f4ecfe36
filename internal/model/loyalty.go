package model

import "time"

type LoyaltyKind string

const (
	LoyaltyEarned   LoyaltyKind = "earned"
	LoyaltyRedeemed LoyaltyKind = "redeemed"
	LoyaltyExpired  LoyaltyKind = "expired"
	LoyaltyAdjusted LoyaltyKind = "adjusted"
)

// LoyaltyTransaction is an append-only ledger row. Points is signed.
type LoyaltyTransaction struct {
	ID          string      `db:"id" json:"id"`
	MerchantID  string      `db:"merchant_id" json:"merchant_id"`
	CustomerID  string      `db:"customer_id" json:"customer_id"`
	OrderID     *string     `db:"order_id" json:"order_id"`
	Points      int         `db:"points" json:"points"`
	Kind        LoyaltyKind `db:"kind" json:"kind"`
	Description string      `db:"description" json:"description"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
}
