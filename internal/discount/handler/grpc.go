package handler

import (
	"context"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/discount/dto"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/rpc"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "omnipos.backoffice.v1.DiscountService"

func (h *DiscountHandler) RegisterGRPC(s grpc.ServiceRegistrar) {
	s.RegisterService(rpc.Service(serviceName, map[string]rpc.Method{
		"ValidateDiscount": h.validateRPC,
	}), h)
}

// validateRPC takes the subtotal as a decimal string to keep cents exact.
func (h *DiscountHandler) validateRPC(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	code := rpc.String(req, "code")
	if code == "" {
		return nil, status.Error(codes.InvalidArgument, "code is required")
	}
	subtotal, err := decimal.NewFromString(rpc.String(req, "subtotal"))
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "subtotal must be a decimal string")
	}

	result, err := h.uc.ValidateDiscount(ctx, &dto.ValidateInput{
		MerchantID: auth.GetMerchantID(ctx),
		Code:       code,
		Subtotal:   subtotal,
		CustomerID: rpc.OptionalString(req, "customer_id"),
		ProductIDs: rpc.Strings(req, "product_ids"),
	})
	if err != nil {
		return nil, rpc.Error(h.logger, err, "validate discount")
	}

	if !result.Valid {
		return structpb.NewStruct(map[string]any{"valid": false, "error": result.Error})
	}
	return structpb.NewStruct(map[string]any{
		"valid":           true,
		"discount_amount": result.DiscountAmount.StringFixed(2),
		"discount_id":     result.Discount.ID,
		"code":            result.Discount.Code,
	})
}
