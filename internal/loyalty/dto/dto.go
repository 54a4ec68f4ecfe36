package dto

import "github.com/fekuna/omnipos-backoffice/internal/model"

type TransactionFilters struct {
	MerchantID string
	CustomerID string
	Kind       string
	Page       int
	PageSize   int
}

// PointsInput drives award, redeem, adjust and expire. Points is always
// positive except for adjustments, where the sign is the direction.
type PointsInput struct {
	MerchantID  string
	CustomerID  string
	OrderID     *string
	Points      int
	Description string
}

// LedgerEntry is a posted transaction with the balance after it.
type LedgerEntry struct {
	Transaction *model.LoyaltyTransaction `json:"transaction"`
	Balance     int                       `json:"balance"`
}
