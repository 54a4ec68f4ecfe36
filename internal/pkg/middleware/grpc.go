package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-backoffice/internal/auth"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// infrastructure services callable without a merchant
var publicPrefixes = []string{"/grpc.health.v1.", "/grpc.reflection."}

// ContextInterceptor copies x-merchant-id / x-user-id metadata onto the
// request context and logs each call. Domain methods without a merchant are
// rejected with Unauthenticated.
func ContextInterceptor(log logger.ZapLogger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		var merchantID string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			merchantID = first(md.Get("x-merchant-id"))
			ctx = auth.WithUser(ctx, merchantID, first(md.Get("x-user-id")))
		}

		var resp any
		var err error
		if merchantID == "" && !isPublic(info.FullMethod) {
			err = status.Error(codes.Unauthenticated, "Missing merchant context")
		} else {
			resp, err = handler(ctx, req)
		}

		log.Debug("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("merchant_id", merchantID),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

func first(vals []string) string {
	if len(vals) > 0 {
		return vals[0]
	}
	return ""
}
