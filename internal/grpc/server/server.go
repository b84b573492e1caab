package server

import (
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"resume-render/internal/config"
	"resume-render/internal/exporter"
	"resume-render/internal/grpc/interceptors"
	"resume-render/internal/logging"
)

// Server exposes the render service over gRPC
type Server struct {
	cfg    *config.Config
	svc    *exporter.Service
	grpc   *grpc.Server
	health *health.Server
	logger logging.Logger
}

// NewServer builds the gRPC server and registers the render and health
// services. obs may be nil.
func NewServer(cfg *config.Config, svc *exporter.Service, obs interceptors.MetricsObserver) *Server {
	logger := logging.GetGlobalLogger().WithField("component", "grpc")

	msgSize := cfg.GRPC.MaxMessageSize
	if msgSize <= 0 {
		msgSize = 32 << 20
	}

	s := &Server{
		cfg:    cfg,
		svc:    svc,
		health: health.NewServer(),
		logger: logger,
	}
	s.grpc = grpc.NewServer(
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    30 * time.Second,
			Timeout: 5 * time.Second,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             5 * time.Second,
			PermitWithoutStream: true,
		}),
		grpc.MaxRecvMsgSize(msgSize),
		grpc.MaxSendMsgSize(msgSize),
		grpc.ChainUnaryInterceptor(
			interceptors.RecoveryInterceptor(logger),
			interceptors.LoggingInterceptor(logger),
			interceptors.MetricsInterceptor(obs),
		),
		grpc.ChainStreamInterceptor(
			interceptors.StreamRecoveryInterceptor(logger),
			interceptors.StreamLoggingInterceptor(logger),
			interceptors.StreamMetricsInterceptor(obs),
		),
	)

	RegisterRenderServiceServer(s.grpc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)
	s.SetServing(true)

	// Enable reflection for debugging
	reflection.Register(s.grpc)

	return s
}

// Serve blocks serving gRPC on lis
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("Starting gRPC server", map[string]interface{}{"address": lis.Addr().String()})
	return s.grpc.Serve(lis)
}

// Stop marks the server not serving and drains in-flight calls
func (s *Server) Stop() {
	s.logger.Info("Shutting down gRPC server")
	s.health.Shutdown()
	s.grpc.GracefulStop()
}

// GRPC returns the underlying server
func (s *Server) GRPC() *grpc.Server {
	return s.grpc
}
