package dto

import "github.com/fekuna/omnipos-backoffice/internal/model"

type ReturnFilters struct {
	MerchantID string
	Status     string
	OrderID    string
	Page       int
	PageSize   int
}

type ReturnLineInput struct {
	OrderItemID string
	Quantity    int
	Restock     *bool // defaults to true
}

type CreateReturnInput struct {
	MerchantID   string
	UserID       string
	OrderID      string
	Reason       model.ReturnReason
	RefundMethod model.RefundMethod
	Notes        string
	Lines        []ReturnLineInput
}
