package utils

import (
	"fmt"
	"net/http"
)

// Stable machine-readable error codes returned to callers
const (
	CodeEmptyBody           = "empty_body"
	CodeMalformedJSON       = "malformed_json"
	CodeInvalidPayload      = "invalid_payload"
	CodeMissingField        = "missing_field"
	CodeHTMLGeneration      = "html_generation_failed"
	CodePDFGeneration       = "pdf_generation_failed"
	CodeRendererUnavailable = "renderer_unavailable"
	CodeRateLimited         = "rate_limited"
	CodeRequestTooLarge     = "request_too_large"
	CodeTemplateNotFound    = "template_not_found"
	CodeInternal            = "internal_error"
)

// CustomError represents a custom application error
type CustomError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(code, message string) *CustomError {
	return &CustomError{
		Status:  http.StatusBadRequest,
		Code:    code,
		Message: message,
	}
}

func NewInternalServerError(code, message string) *CustomError {
	return &CustomError{
		Status:  http.StatusInternalServerError,
		Code:    code,
		Message: message,
	}
}

func NewUnavailableError(message string) *CustomError {
	return &CustomError{
		Status:  http.StatusServiceUnavailable,
		Code:    CodeRendererUnavailable,
		Message: message,
	}
}

func NewNotFoundError(code, message string) *CustomError {
	return &CustomError{
		Status:  http.StatusNotFound,
		Code:    code,
		Message: message,
	}
}

func NewTooManyRequestsError(message string) *CustomError {
	return &CustomError{
		Status:  http.StatusTooManyRequests,
		Code:    CodeRateLimited,
		Message: message,
	}
}

// WithDetail returns a copy of the error carrying detail
func (e *CustomError) WithDetail(detail string) *CustomError {
	out := *e
	out.Detail = detail
	return &out
}
