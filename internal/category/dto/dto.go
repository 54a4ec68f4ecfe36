package dto

type CategoryFilters struct {
	MerchantID      string
	ParentID        *string // nil ignores the parent; "" selects root categories
	IsActive        *bool
	IncludeChildren bool
	Page            int
	PageSize        int
}
