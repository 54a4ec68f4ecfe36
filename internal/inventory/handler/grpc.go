package handler

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/model"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "omnipos.backoffice.v1.InventoryService"

func (h *InventoryHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	s.RegisterService(rpc.Service(serviceName, map[string]rpc.Method{
		"GetStock":     h.getStockRPC,
		"ListLowStock": h.listLowStockRPC,
	}), h)
}

func (h *InventoryHandler) getStockRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	productID := rpc.String(req, "product_id")
	if productID == "" {
		return nil, status.Error(codes.InvalidArgument, "product_id is required")
	}

	level, err := h.uc.GetStock(ctx, auth.GetMerchantID(ctx), model.StockKey{
		ProductID:  productID,
		VariantID:  rpc.OptionalString(req, "variant_id"),
		LocationID: rpc.String(req, "location_id"),
	})
	if err != nil {
		return nil, rpc.Error(h.logger, err, "get stock")
	}
	return structpb.NewStruct(map[string]any{"stock": stockValue(level)})
}

func (h *InventoryHandler) listLowStockRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	page, size := rpc.Int(req, "page"), rpc.Int(req, "page_size")
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}

	items, total, err := h.uc.ListLowStock(ctx, auth.GetMerchantID(ctx), rpc.String(req, "location_id"), page, size)
	if err != nil {
		return nil, rpc.Error(h.logger, err, "list low stock")
	}

	list := make([]any, 0, len(items))
	for i := range items {
		list = append(list, stockValue(&items[i]))
	}
	return structpb.NewStruct(map[string]any{"items": list, "total": total})
}

func stockValue(l *model.StockLevel) map[string]any {
	var variantID any
	if l.VariantID != nil {
		variantID = *l.VariantID
	}
	return map[string]any{
		"product_id":    l.ProductID,
		"variant_id":    variantID,
		"location_id":   l.LocationID,
		"quantity":      l.Quantity,
		"reorder_point": l.ReorderPoint,
	}
}
