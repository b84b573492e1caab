package interceptors

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"resume-render/internal/logging"
	"resume-render/pkg/utils"
)

// RequestIDKey is the metadata key carrying the caller's request id
const RequestIDKey = "x-request-id"

type requestIDCtxKey struct{}

// RequestID returns the id assigned by LoggingInterceptor
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDCtxKey{}).(string); ok {
		return id
	}
	return ""
}

func withRequestID(ctx context.Context) (context.Context, string) {
	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDKey); len(v) > 0 && v[0] != "" && len(v[0]) <= 128 {
			id = v[0]
		}
	}
	if id == "" {
		id = utils.GenerateRequestID()
	}
	return context.WithValue(ctx, requestIDCtxKey{}, id), id
}

func codeOf(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	return codes.Internal
}

// LoggingInterceptor assigns a request id and logs each unary call
func LoggingInterceptor(logger logging.Logger) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		startTime := time.Now()
		ctx, requestID := withRequestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, requestID))

		logger.Debug("gRPC request started", map[string]interface{}{
			"request_id": requestID,
			"method":     info.FullMethod,
		})

		resp, err := handler(ctx, req)

		fields := map[string]interface{}{
			"request_id":      requestID,
			"method":          info.FullMethod,
			"processing_time": utils.FormatDuration(time.Since(startTime)),
			"status_code":     codeOf(err).String(),
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.Error("gRPC request failed", fields)
		} else {
			logger.Info("gRPC request completed", fields)
		}

		return resp, err
	}
}

// StreamLoggingInterceptor logs stream lifetimes
func StreamLoggingInterceptor(logger logging.Logger) grpc.StreamServerInterceptor {
	return func(
		srv interface{},
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		startTime := time.Now()
		_, requestID := withRequestID(ss.Context())

		err := handler(srv, ss)

		fields := map[string]interface{}{
			"request_id":      requestID,
			"method":          info.FullMethod,
			"processing_time": utils.FormatDuration(time.Since(startTime)),
			"status_code":     codeOf(err).String(),
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.Warn("gRPC stream ended with error", fields)
		} else {
			logger.Debug("gRPC stream completed", fields)
		}
		return err
	}
}
