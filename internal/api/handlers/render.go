package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"resume-render/internal/api/middleware"
	"resume-render/internal/api/validation"
	"resume-render/internal/exporter"
	"resume-render/internal/logging"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

// readRenderRequest decodes the body and query of a render call
func readRenderRequest(c echo.Context) (*models.RenderRequest, validation.RenderQuery, error) {
	var q validation.RenderQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return nil, q, fmt.Errorf("%w: query: %v", exporter.ErrInvalidPayload, bindMessage(err))
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, q, err
	}
	req, err := exporter.ParseRequest(body)
	return req, q, err
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return he.Internal.Error()
		}
		return fmt.Sprint(he.Message)
	}
	return err.Error()
}

// RenderPDFHandler handles POST /api/v1/render/pdf
func RenderPDFHandler(svc *exporter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		logger.Info("Processing PDF render request", map[string]interface{}{
			"endpoint": "/api/v1/render/pdf",
		})

		req, q, err := readRenderRequest(c)
		if err != nil {
			logger.Warn("Rejected render request", map[string]interface{}{
				"error": err.Error(),
			})
			return writeError(c, requestID, renderError(err))
		}

		res, err := svc.RenderPDF(c.Request().Context(), req, models.RenderOptions{
			RequestID: requestID,
			SkipCache: q.NoCache,
		})
		if err != nil {
			cerr := renderError(err)
			logger.Error("PDF render failed", map[string]interface{}{
				"code":  cerr.Code,
				"error": err.Error(),
			})
			return writeError(c, requestID, cerr)
		}

		disposition := utils.ContentDisposition(res.Filename)
		if q.Inline {
			disposition = utils.InlineDisposition(res.Filename)
		}
		h := c.Response().Header()
		h.Set(echo.HeaderContentDisposition, disposition)
		h.Set("X-Render-Template", res.Template.ID)
		if res.Cached {
			h.Set("X-Render-Cache", "hit")
		} else {
			h.Set("X-Render-Cache", "miss")
		}
		return c.Blob(http.StatusOK, "application/pdf", res.PDF)
	}
}

// RenderHTMLHandler handles POST /api/v1/render/html
func RenderHTMLHandler(svc *exporter.Service) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := middleware.RequestID(c)
		logger := logging.LogWithRequestID(requestID)

		req, _, err := readRenderRequest(c)
		if err != nil {
			return writeError(c, requestID, renderError(err))
		}

		res, err := svc.RenderHTML(c.Request().Context(), req, models.RenderOptions{RequestID: requestID})
		if err != nil {
			cerr := renderError(err)
			logger.Error("HTML render failed", map[string]interface{}{
				"code":  cerr.Code,
				"error": err.Error(),
			})
			return writeError(c, requestID, cerr)
		}

		h := c.Response().Header()
		h.Set("X-Render-Template", res.Template.ID)
		if len(res.FailedSections) > 0 {
			h.Set("X-Render-Failed-Sections", strings.Join(res.FailedSections, ","))
		}
		return c.HTML(http.StatusOK, res.HTML)
	}
}
