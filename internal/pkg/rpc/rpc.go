// Package rpc exposes use cases as gRPC services whose messages are
// google.protobuf.Struct values, so no generated stubs are needed.
package rpc

import (
	"context"
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-backoffice/internal/pkg/apperror"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/logger"
	"github.com/fekuna/omnipos-backoffice/internal/pkg/statemachine"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Method handles one unary call.
type Method func(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Service builds a descriptor for name with the given unary methods.
func Service(name string, methods map[string]Method) *grpc.ServiceDesc {
	desc := &grpc.ServiceDesc{
		ServiceName: name,
		HandlerType: (*any)(nil),
		Streams:     []grpc.StreamDesc{},
	}
	for methodName, fn := range methods {
		desc.Methods = append(desc.Methods, grpc.MethodDesc{
			MethodName: methodName,
			Handler:    unaryHandler("/"+name+"/"+methodName, fn),
		})
	}
	return desc
}

func unaryHandler(fullMethod string, fn Method) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return fn(ctx, req.(*structpb.Struct))
		})
	}
}

// Error converts a use case failure into a status. Unexpected errors are
// logged and reported as Internal with a generic message.
func Error(log logger.ZapLogger, err error, action string) error {
	if appErr, ok := apperror.As(err); ok {
		return status.Error(Code(appErr.Code), appErr.Message)
	}
	if errors.Is(err, statemachine.ErrInvalidTransition) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	log.Error("failed to "+action, zap.Error(err))
	return status.Error(codes.Internal, "Failed to "+action)
}

// Code maps an HTTP status to the closest gRPC code.
func Code(httpStatus int) codes.Code {
	switch httpStatus {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return codes.FailedPrecondition
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	}
	return codes.Internal
}

// String reads a string field; missing or non-string fields read as "".
func String(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// OptionalString is String with "" turned into nil.
func OptionalString(req *structpb.Struct, key string) *string {
	if s := String(req, key); s != "" {
		return &s
	}
	return nil
}

// Strings reads a list of strings, skipping non-string entries.
func Strings(req *structpb.Struct, key string) []string {
	values := req.GetFields()[key].GetListValue().GetValues()
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.GetKind().(*structpb.Value_StringValue); ok {
			out = append(out, s.StringValue)
		}
	}
	return out
}

// Int reads a numeric field truncated to int.
func Int(req *structpb.Struct, key string) int {
	return int(req.GetFields()[key].GetNumberValue())
}
