package dto

import "time"

type StockFilters struct {
	MerchantID string
	ProductID  string
	LocationID string
	LowStock   bool // derived quantity <= reorder_point and reorder_point > 0
	Page       int
	PageSize   int
}

type MovementFilters struct {
	MerchantID    string
	ProductID     string
	VariantID     string
	LocationID    string
	MovementType  string
	ReferenceType string
	ReferenceID   string
	StartDate     *time.Time
	EndDate       *time.Time
	Page          int
	PageSize      int
}
