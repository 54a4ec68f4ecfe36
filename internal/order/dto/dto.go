package dto

type OrderFilters struct {
	MerchantID string
	Status     string
	CustomerID string
	Page       int
	PageSize   int
}
