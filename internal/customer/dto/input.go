package dto

type CustomerFilters struct {
	MerchantID  string
	SearchQuery string
	Page        int
	PageSize    int
}

type CreateCustomerInput struct {
	MerchantID string
	Name       string
	Email      string
	Phone      string
}

type UpdateCustomerInput struct {
	ID         string
	MerchantID string
	Name       string
	Email      string
	Phone      string
}
