package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"resume-render/internal/exporter"
	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

// renderError maps an exporter failure to the caller-facing error class
func renderError(err error) *utils.CustomError {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return &utils.CustomError{
			Status:  http.StatusRequestEntityTooLarge,
			Code:    utils.CodeRequestTooLarge,
			Message: "Request body too large",
		}
	case errors.Is(err, exporter.ErrEmptyBody):
		return utils.NewBadRequestError(utils.CodeEmptyBody, "Request body is empty")
	case errors.Is(err, exporter.ErrMalformedJSON):
		return utils.NewBadRequestError(utils.CodeMalformedJSON, "Request body is not valid JSON")
	case errors.Is(err, exporter.ErrInvalidPayload):
		return utils.NewBadRequestError(utils.CodeInvalidPayload, "Request body has an invalid shape").
			WithDetail(detailOf(err, exporter.ErrInvalidPayload))
	case errors.Is(err, exporter.ErrMissingField):
		return utils.NewBadRequestError(utils.CodeMissingField, "A required field is missing").
			WithDetail(detailOf(err, exporter.ErrMissingField))
	case errors.Is(err, exporter.ErrHTMLGeneration):
		return utils.NewInternalServerError(utils.CodeHTMLGeneration, "Failed to generate resume HTML")
	case errors.Is(err, exporter.ErrRendererUnavailable):
		return utils.NewUnavailableError("PDF renderer is unavailable, please try again")
	case errors.Is(err, context.DeadlineExceeded):
		return &utils.CustomError{
			Status:  http.StatusGatewayTimeout,
			Code:    utils.CodePDFGeneration,
			Message: "Rendering took too long, please try again",
		}
	case errors.Is(err, exporter.ErrPDFGeneration):
		return utils.NewInternalServerError(utils.CodePDFGeneration, "Failed to generate PDF, please try again")
	default:
		return utils.NewInternalServerError(utils.CodeInternal, "Internal server error")
	}
}

// detailOf strips the sentinel prefix from a wrapped error message
func detailOf(err, sentinel error) string {
	return strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
}

func writeError(c echo.Context, requestID string, cerr *utils.CustomError) error {
	if cerr.Status == http.StatusServiceUnavailable {
		c.Response().Header().Set("Retry-After", "5")
	}
	return c.JSON(cerr.Status, models.ErrorResponse{
		Error:     cerr.Code,
		Message:   cerr.Message,
		Detail:    cerr.Detail,
		RequestID: requestID,
		Timestamp: time.Now(),
	})
}
