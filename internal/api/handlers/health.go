package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"resume-render/internal/api/middleware"
	"resume-render/internal/logging"
	"resume-render/pkg/models"
)

// Version is reported by the health endpoints; set with -ldflags at build time
var Version = "1.0.0"

var startTime = time.Now()

// Check is one named readiness dependency
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// HealthHandler handles health check requests
func HealthHandler(c echo.Context) error {
	logging.GetGlobalLogger().Debug("Health check requested", map[string]interface{}{
		"request_id": middleware.RequestID(c),
	})

	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
		Checks: map[string]string{
			"api": "ok",
		},
	})
}

// ReadinessHandler runs every check; any failure makes the service not ready
func ReadinessHandler(timeout time.Duration, checks ...Check) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.GetGlobalLogger()
		ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
		defer cancel()

		results := map[string]string{"api": "ok"}
		ready := true
		for _, check := range checks {
			if err := check.Fn(ctx); err != nil {
				ready = false
				results[check.Name] = "error: " + err.Error()
				logger.Warn("Readiness check failed", map[string]interface{}{
					"request_id": middleware.RequestID(c),
					"check":      check.Name,
					"error":      err.Error(),
				})
				continue
			}
			results[check.Name] = "ok"
		}

		response := models.HealthResponse{
			Status:    "ready",
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks:    results,
		}
		if !ready {
			response.Status = "not_ready"
			return c.JSON(http.StatusServiceUnavailable, response)
		}
		return c.JSON(http.StatusOK, response)
	}
}

// LivenessHandler handles liveness probe requests
func LivenessHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   Version,
		Uptime:    time.Since(startTime),
	})
}

// StatusHandler provides detailed service status
func StatusHandler(renderer RendererStats, templateCount int) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := renderer.Stats()
		browser := "idle"
		if stats.Alive {
			browser = "running"
		}

		return c.JSON(http.StatusOK, models.HealthResponse{
			Status:    "operational",
			Timestamp: time.Now(),
			Version:   Version,
			Uptime:    time.Since(startTime),
			Checks: map[string]string{
				"api":               "operational",
				"renderer_engine":   stats.Engine,
				"renderer_browser":  browser,
				"renders_in_flight": itoa(stats.InFlight),
				"templates":         itoa(int64(templateCount)),
			},
		})
	}
}
