package order

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventOrderCompleted = "OrderCompleted"

// CompletedEvent is published on the orders topic when an order reaches completed.
type CompletedEvent struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OrderID    string          `json:"order_id"`
	MerchantID string          `json:"merchant_id"`
	CustomerID *string         `json:"customer_id"`
	DiscountID *string         `json:"discount_id"`
	Total      decimal.Decimal `json:"total"`
	Timestamp  time.Time       `json:"timestamp"`
}
