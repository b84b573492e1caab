package mux

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/soheilhy/cmux"

	"resume-render/internal/config"
	"resume-render/internal/grpc/server"
	"resume-render/internal/logging"
)

// Multiplexer serves HTTP/1 and gRPC on one listener
type Multiplexer struct {
	logger logging.Logger

	grpcServer *server.Server
	httpServer *http.Server

	mux      cmux.CMux
	listener net.Listener

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// NewMultiplexer wraps httpHandler and, when non-nil, grpcServer
func NewMultiplexer(cfg *config.Config, httpHandler http.Handler, grpcServer *server.Server) *Multiplexer {
	return &Multiplexer{
		logger:     logging.GetGlobalLogger().WithField("component", "mux"),
		grpcServer: grpcServer,
		httpServer: &http.Server{
			Handler:           httpHandler,
			ReadTimeout:       cfg.Server.ReadTimeout,
			WriteTimeout:      cfg.Server.WriteTimeout,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       cfg.Server.IdleTimeout,
		},
	}
}

// Start listens on address and begins serving
func (m *Multiplexer) Start(address string) error {
	lis, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", address, err)
	}
	m.Serve(lis)
	return nil
}

// Serve splits lis by protocol and serves both sides in the background
func (m *Multiplexer) Serve(lis net.Listener) {
	m.listener = lis
	m.mux = cmux.New(lis)
	address := lis.Addr().String()

	// grpc-go clients wait for the server SETTINGS frame before sending headers
	var grpcListener net.Listener
	if m.grpcServer != nil {
		grpcListener = m.mux.MatchWithWriters(
			cmux.HTTP2MatchHeaderFieldSendSettings("content-type", "application/grpc"),
		)
	}
	httpListener := m.mux.Match(cmux.HTTP1Fast())

	if grpcListener != nil {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			if err := m.grpcServer.Serve(grpcListener); err != nil && !closed(err) {
				m.logger.Error("gRPC server failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.logger.Info("Starting HTTP server", map[string]interface{}{"address": address})
		if err := m.httpServer.Serve(httpListener); err != nil && !errors.Is(err, http.ErrServerClosed) && !closed(err) {
			m.logger.Error("HTTP server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.mux.Serve(); err != nil && !closed(err) {
			m.logger.Error("Multiplexer failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	m.logger.Info("Multiplexer started", map[string]interface{}{
		"address": address,
		"grpc":    m.grpcServer != nil,
	})
}

func closed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed)
}

// Stop drains HTTP and gRPC, then closes the listener. Calls after the first
// are no-ops.
func (m *Multiplexer) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return nil
	}
	m.stopped = true
	m.mu.Unlock()

	m.logger.Info("Stopping multiplexer")

	var errs []error
	if err := m.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if m.grpcServer != nil {
		done := make(chan struct{})
		go func() {
			m.grpcServer.Stop()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			m.logger.Warn("gRPC graceful stop timed out, forcing")
			m.grpcServer.GRPC().Stop()
		}
	}

	if m.listener != nil {
		if err := m.listener.Close(); err != nil && !closed(err) {
			errs = append(errs, fmt.Errorf("close listener: %w", err))
		}
	}

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		m.logger.Info("Multiplexer stopped gracefully")
	case <-ctx.Done():
		m.logger.Warn("Multiplexer shutdown timed out")
	}

	return errors.Join(errs...)
}

// Address returns the address the multiplexer is listening on
func (m *Multiplexer) Address() string {
	if m.listener != nil {
		return m.listener.Addr().String()
	}
	return ""
}
