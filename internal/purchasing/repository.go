package purchasing

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing/dto"
)

var (
	ErrStatusChanged = errors.New("purchase order status changed concurrently")
	ErrNotReceivable = errors.New("purchase order is not receivable")
	ErrItemNotFound  = errors.New("purchase order item not found")
)

type Repository interface {
	Create(ctx context.Context, po *model.PurchaseOrder) error
	FindByID(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error)
	FindAll(ctx context.Context, filters *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error)
	UpdateStatus(ctx context.Context, merchantID, id string, from, to model.PurchaseOrderStatus) error

	// Receive books the lines and posts purchase movements in one transaction,
	// then stores ReceiptStatus of the re-read lines. It returns the updated order.
	Receive(ctx context.Context, input *dto.ReceiveInput) (*model.PurchaseOrder, error)
}

// ReceiptStatus derives the status after a receipt: received when every line is
// fully received, partial when anything was received, otherwise current.
func ReceiptStatus(items []model.PurchaseOrderItem, current model.PurchaseOrderStatus) model.PurchaseOrderStatus {
	if len(items) == 0 {
		return current
	}
	all, some := true, false
	for _, it := range items {
		if it.ReceivedQty < it.Quantity {
			all = false
		}
		if it.ReceivedQty > 0 {
			some = true
		}
	}
	switch {
	case all:
		return model.POReceived
	case some:
		return model.POPartial
	}
	return current
}
