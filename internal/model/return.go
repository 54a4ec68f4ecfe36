package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "pending"
	ReturnApproved ReturnStatus = "approved"
	ReturnRejected ReturnStatus = "rejected"
)

type ReturnReason string

const (
	ReasonDamaged        ReturnReason = "damaged"
	ReasonDefective      ReturnReason = "defective"
	ReasonWrongItem      ReturnReason = "wrong_item"
	ReasonNotAsDescribed ReturnReason = "not_as_described"
	ReasonChangedMind    ReturnReason = "changed_mind"
	ReasonOther          ReturnReason = "other"
)

type RefundMethod string

const (
	RefundStoreCredit     RefundMethod = "store_credit"
	RefundOriginalPayment RefundMethod = "original_payment"
)

type Return struct {
	BaseModel
	MerchantID   string          `db:"merchant_id" json:"merchant_id"`
	OrderID      string          `db:"order_id" json:"order_id"`
	CustomerID   *string         `db:"customer_id" json:"customer_id"`
	Reason       ReturnReason    `db:"reason" json:"reason"`
	RefundMethod RefundMethod    `db:"refund_method" json:"refund_method"`
	Status       ReturnStatus    `db:"status" json:"status"`
	RefundAmount decimal.Decimal `db:"refund_amount" json:"refund_amount"`
	Notes        string          `db:"notes" json:"notes"`
	CreatedBy    *string         `db:"created_by" json:"created_by"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at"`
	Items        []ReturnItem    `db:"-" json:"items,omitempty"`
}

type ReturnItem struct {
	ID           string          `db:"id" json:"id"`
	MerchantID   string          `db:"merchant_id" json:"merchant_id"`
	ReturnID     string          `db:"return_id" json:"return_id"`
	OrderItemID  string          `db:"order_item_id" json:"order_item_id"`
	ProductID    string          `db:"product_id" json:"product_id"`
	VariantID    *string         `db:"variant_id" json:"variant_id"`
	Quantity     int             `db:"quantity" json:"quantity"`
	Restock      bool            `db:"restock" json:"restock"`
	RefundAmount decimal.Decimal `db:"refund_amount" json:"refund_amount"`
}

func (r ReturnReason) Valid() bool {
	switch r {
	case ReasonDamaged, ReasonDefective, ReasonWrongItem, ReasonNotAsDescribed, ReasonChangedMind, ReasonOther:
		return true
	}
	return false
}

func (m RefundMethod) Valid() bool {
	return m == RefundStoreCredit || m == RefundOriginalPayment
}
