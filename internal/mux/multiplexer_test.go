package mux

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"resume-render/internal/config"
	"resume-render/internal/exporter"
	"resume-render/internal/grpc/server"
	"resume-render/internal/logging"
	"resume-render/internal/render"
	"resume-render/internal/templates"
)

func TestMultiplexerServesHTTPAndGRPC(t *testing.T) {
	cfg := config.Default()

	engine, err := render.NewEngine(logging.NewMultiLogger())
	require.NoError(t, err)
	svc := exporter.NewService(engine, templates.MustDefault(), nil, nil)
	grpcServer := server.NewServer(cfg, svc, nil)

	httpHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "http ok")
	})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	m := NewMultiplexer(cfg, httpHandler, grpcServer)
	m.Serve(lis)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, m.Stop(ctx))
	}()

	resp, err := http.Get("http://" + m.Address() + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "http ok", string(body))

	conn, err := grpc.NewClient(m.Address(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	check, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: server.RenderServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, check.GetStatus())
}

func TestStopIsIdempotent(t *testing.T) {
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	m := NewMultiplexer(config.Default(), http.NotFoundHandler(), nil)
	m.Serve(lis)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Stop(ctx))
	require.NoError(t, m.Stop(ctx))
}
