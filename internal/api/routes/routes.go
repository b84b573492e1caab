package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"

	"resume-render/internal/api/handlers"
	"resume-render/internal/api/middleware"
	"resume-render/internal/api/validation"
	"resume-render/internal/config"
	"resume-render/internal/exporter"
	"resume-render/internal/logging"
	"resume-render/internal/metrics"
	"resume-render/internal/templates"
)

// Deps are the components the HTTP surface is built from
type Deps struct {
	Config   *config.Config
	Service  *exporter.Service
	Registry *templates.Registry
	Renderer handlers.RendererStats
	Metrics  *metrics.Recorder
	Limiter  *middleware.RateLimiter
	Checks   []handlers.Check
}

// SetupRoutes configures all API routes
func SetupRoutes(e *echo.Echo, d Deps) {
	cfg := d.Config

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(middleware.CORSConfig())
	e.Use(middleware.RequestValidation(cfg.Server.MaxBodyBytes))
	e.Use(middleware.RequestLogger(logging.GetGlobalLogger()))
	if d.Metrics != nil {
		e.Use(d.Metrics.EchoMiddleware())
	}

	// Health check routes
	health := e.Group("/health")
	{
		health.GET("", handlers.HealthHandler)
		health.GET("/ready", handlers.ReadinessHandler(cfg.PDF.ProbeTimeout, d.Checks...))
		health.GET("/live", handlers.LivenessHandler)
	}

	// Status route
	e.GET("/status", handlers.StatusHandler(d.Renderer, d.Registry.Len()))

	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	v1 := e.Group("/api/v1")
	{
		render := v1.Group("/render", middleware.TimeoutConfig(cfg.Server.RequestTimeout))
		if d.Limiter != nil {
			render.Use(d.Limiter.Middleware())
		}
		render.POST("/pdf", handlers.RenderPDFHandler(d.Service))
		render.POST("/html", handlers.RenderHTMLHandler(d.Service))

		tmpl := v1.Group("/templates")
		{
			tmpl.GET("", handlers.ListTemplatesHandler(d.Registry))
			tmpl.GET("/:id", handlers.GetTemplateHandler(d.Registry, validation.New()))
		}

		v1.GET("/metrics/renderer", handlers.RendererMetricsHandler(d.Renderer))
	}

	// Root route
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"service": "Resume Render",
			"version": handlers.Version,
			"status":  "running",
		})
	})
}
