package purchasing

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/purchasing/dto"
)

type UseCase interface {
	CreatePurchaseOrder(ctx context.Context, input *dto.CreatePurchaseOrderInput) (*model.PurchaseOrder, error)
	GetPurchaseOrder(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filters *dto.PurchaseOrderFilters) ([]model.PurchaseOrder, int, error)
	SendPurchaseOrder(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error)
	CancelPurchaseOrder(ctx context.Context, merchantID, id string) (*model.PurchaseOrder, error)
	ReceivePurchaseOrder(ctx context.Context, input *dto.ReceiveInput) (*model.PurchaseOrder, error)
}
