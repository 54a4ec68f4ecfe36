package dto

type SupplierFilters struct {
	MerchantID  string
	SearchQuery string
	Page        int
	PageSize    int
}

type SupplierInput struct {
	ID         string // empty on create
	MerchantID string
	Name       string
	Email      string
	Phone      string
}
