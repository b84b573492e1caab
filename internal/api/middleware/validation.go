package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"resume-render/pkg/models"
	"resume-render/pkg/utils"
)

const requestIDKey = "request_id"

// RequestValidation assigns a request id and rejects bodies over maxBodyBytes.
// An incoming X-Request-ID is kept so callers can correlate logs.
func RequestValidation(maxBodyBytes int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(echo.HeaderXRequestID)
			if requestID == "" || len(requestID) > 128 {
				requestID = utils.GenerateRequestID()
			}
			c.Set(requestIDKey, requestID)
			c.Response().Header().Set(echo.HeaderXRequestID, requestID)

			if c.Request().Method == http.MethodPost && maxBodyBytes > 0 {
				if c.Request().ContentLength > maxBodyBytes {
					return c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
						Error:     utils.CodeRequestTooLarge,
						Message:   "Request body too large",
						RequestID: requestID,
						Timestamp: time.Now(),
					})
				}
				c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, maxBodyBytes)
			}

			return next(c)
		}
	}
}

// RequestID returns the id assigned by RequestValidation, or a fresh one
func RequestID(c echo.Context) string {
	if id, ok := c.Get(requestIDKey).(string); ok && id != "" {
		return id
	}
	return utils.GenerateRequestID()
}
