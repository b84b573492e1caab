package server

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// SetServing flips the health status of the server and the render service
func (s *Server) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(RenderServiceName, st)
}

// MonitorHealth runs probe every interval and mirrors the result into the
// health service until ctx is done.
func (s *Server) MonitorHealth(ctx context.Context, interval time.Duration, probe func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	healthy := true
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, cancel := context.WithTimeout(ctx, interval)
			err := probe(pctx)
			cancel()

			if ok := err == nil; ok != healthy {
				healthy = ok
				s.SetServing(ok)
				fields := map[string]interface{}{"serving": ok}
				if err != nil {
					fields["error"] = err.Error()
				}
				s.logger.Warn("gRPC health status changed", fields)
			}
		}
	}
}
