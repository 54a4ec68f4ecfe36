package auth

import (
	"context"

	"google.golang.org/grpc/metadata"
)

type UserContext struct {
	MerchantID string
	UserID     string
}

type ctxKey struct{}

// WithUser stores the tenant and actor on ctx.
func WithUser(ctx context.Context, merchantID, userID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, UserContext{MerchantID: merchantID, UserID: userID})
}

func fromContext(ctx context.Context) (UserContext, bool) {
	uc, ok := ctx.Value(ctxKey{}).(UserContext)
	return uc, ok
}

// GetMerchantID reads the tenant set by the HTTP middleware or gRPC interceptor,
// falling back to raw incoming gRPC metadata.
func GetMerchantID(ctx context.Context) string {
	if uc, ok := fromContext(ctx); ok {
		return uc.MerchantID
	}
	return fromMetadata(ctx, "x-merchant-id")
}

func GetUserID(ctx context.Context) string {
	if uc, ok := fromContext(ctx); ok {
		return uc.UserID
	}
	return fromMetadata(ctx, "x-user-id")
}

func fromMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if val := md.Get(key); len(val) > 0 {
		return val[0]
	}
	return ""
}
