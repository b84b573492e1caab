package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
)

// MetricsObserver records finished calls; metrics.Recorder implements it
type MetricsObserver interface {
	ObserveGRPC(method, code string, d time.Duration)
}

// MetricsInterceptor reports every unary call to obs. A nil observer disables it.
func MetricsInterceptor(obs MetricsObserver) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if obs == nil {
			return handler(ctx, req)
		}
		start := time.Now()
		resp, err := handler(ctx, req)
		obs.ObserveGRPC(info.FullMethod, codeOf(err).String(), time.Since(start))
		return resp, err
	}
}

// StreamMetricsInterceptor reports every stream to obs
func StreamMetricsInterceptor(obs MetricsObserver) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if obs == nil {
			return handler(srv, ss)
		}
		start := time.Now()
		err := handler(srv, ss)
		obs.ObserveGRPC(info.FullMethod, codeOf(err).String(), time.Since(start))
		return err
	}
}
