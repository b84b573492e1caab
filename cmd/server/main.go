package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"resume-render/internal/api/handlers"
	"resume-render/internal/api/middleware"
	"resume-render/internal/api/routes"
	"resume-render/internal/config"
	"resume-render/internal/exporter"
	"resume-render/internal/grpc/server"
	"resume-render/internal/logging"
	"resume-render/internal/metrics"
	"resume-render/internal/mux"
	"resume-render/internal/pdf"
	"resume-render/internal/render"
	"resume-render/internal/templates"
	"resume-render/pkg/utils"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(utils.GetStringOrDefault(os.Getenv("CONFIG_PATH"), "configs/config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logging.InitializeLogging(cfg); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	logger := logging.GetGlobalLogger()
	logger.Info("Starting Resume Render", map[string]interface{}{
		"version": handlers.Version,
		"engine":  cfg.PDF.Engine,
	})

	registry, err := templates.Default()
	if err != nil {
		logger.Fatal("Failed to load template catalog", map[string]interface{}{"error": err.Error()})
	}

	engine, err := render.NewEngine(logger)
	if err != nil {
		logger.Fatal("Failed to compile resume templates", map[string]interface{}{"error": err.Error()})
	}

	recorder := metrics.NewRecorder()

	launcher, err := pdf.NewLauncher(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create browser launcher", map[string]interface{}{"error": err.Error()})
	}
	pool := pdf.NewPool(launcher, cfg, logger, pdf.WithObserver(recorder))

	// A browser that fails to start now is launched again on first use
	initCtx, initCancel := context.WithTimeout(context.Background(), cfg.PDF.LaunchTimeout)
	if err := pool.Init(initCtx); err != nil {
		logger.Warn("Renderer pool did not start, will retry on demand", map[string]interface{}{"error": err.Error()})
	}
	initCancel()

	checks := []handlers.Check{{Name: "renderer", Fn: pool.HealthCheck}}
	opts := []exporter.Option{exporter.WithObserver(recorder)}

	var redisClient *utils.RedisClient
	if cfg.Cache.Enabled {
		redisClient = utils.NewRedisClient(cfg)
		if err := redisClient.IsHealthy(context.Background()); err != nil {
			logger.Warn("Redis unavailable, PDF cache will miss until it recovers", map[string]interface{}{"error": err.Error()})
		}
		opts = append(opts, exporter.WithCache(redisClient))
		checks = append(checks, handlers.Check{Name: "redis", Fn: redisClient.Ping})
	}

	svc := exporter.NewService(engine, registry, pool, logger, opts...)

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)

	e := echo.New()
	e.HideBanner = true
	routes.SetupRoutes(e, routes.Deps{
		Config:   cfg,
		Service:  svc,
		Registry: registry,
		Renderer: pool,
		Metrics:  recorder,
		Limiter:  limiter,
		Checks:   checks,
	})

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	var grpcServer *server.Server
	if cfg.GRPC.Enabled {
		grpcServer = server.NewServer(cfg, svc, recorder)
		go grpcServer.MonitorHealth(monitorCtx, 30*time.Second, pool.HealthCheck)
	}

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	m := mux.NewMultiplexer(cfg, e, grpcServer)
	if err := m.Start(address); err != nil {
		logger.Fatal("Server failed to start", map[string]interface{}{"error": err.Error()})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting first so no render starts on a torn down pool
	stopMonitor()
	if err := m.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping listeners", map[string]interface{}{"error": err.Error()})
	}
	limiter.Stop()

	if err := pool.Teardown(shutdownCtx); err != nil {
		logger.Error("Error tearing down renderer pool", map[string]interface{}{"error": err.Error()})
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Error("Error closing Redis client", map[string]interface{}{"error": err.Error()})
		}
	}

	logger.Info("Server shutdown complete")
	_ = logging.CloseLogging()
}
