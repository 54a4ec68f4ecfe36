package server

import (
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/middleware"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceRegistrar is implemented by handlers that expose gRPC methods.
type ServiceRegistrar interface {
	RegisterGRPC(s grpc.ServiceRegistrar)
}

// NewGRPCServer serves the domain services plus health and reflection.
func NewGRPCServer(log logger.ZapLogger, services ...ServiceRegistrar) (*grpc.Server, *health.Server) {
	srv := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(middleware.ContextInterceptor(log)),
	)

	for _, s := range services {
		s.RegisterGRPC(srv)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)
	return srv, hs
}
