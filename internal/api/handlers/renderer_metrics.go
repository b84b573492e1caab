package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"resume-render/internal/api/middleware"
	"resume-render/internal/logging"
	"resume-render/internal/pdf"
)

// RendererStats is satisfied by the renderer pool
type RendererStats interface {
	Stats() pdf.Stats
}

// RendererMetricsResponse represents the renderer pool metrics response
type RendererMetricsResponse struct {
	Status  string    `json:"status"`
	Metrics pdf.Stats `json:"metrics"`
}

// RendererMetricsHandler returns current renderer pool metrics
func RendererMetricsHandler(renderer RendererStats) echo.HandlerFunc {
	return func(c echo.Context) error {
		stats := renderer.Stats()

		logging.GetGlobalLogger().Debug("Renderer metrics requested", map[string]interface{}{
			"request_id":  middleware.RequestID(c),
			"alive":       stats.Alive,
			"conversions": stats.Conversions,
		})

		return c.JSON(http.StatusOK, RendererMetricsResponse{
			Status:  "ok",
			Metrics: stats,
		})
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
