// errors.go - Structured error handling for API responses
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/data-explorer/client/internal/state"
	"github.com/data-explorer/client/internal/upload"
	"github.com/labstack/echo/v4"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field, message string) *APIError {
	if message == "" {
		message = fmt.Sprintf("validation failed for field: %s", field)
	}
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: message,
		Field:   field,
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewServiceUnavailableError creates a 503 Service Unavailable error
func NewServiceUnavailableError(message string) *APIError {
	return &APIError{
		Status:  http.StatusServiceUnavailable,
		Code:    "SERVICE_UNAVAILABLE",
		Message: message,
	}
}

// FromError maps an error of the upload lifecycle to its API error.
func FromError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var ve *upload.ValidationError
	switch {
	case errors.As(err, &ve):
		return NewValidationError(ve.Field, ve.Message)
	case errors.Is(err, upload.ErrBusy), errors.Is(err, state.ErrBusy), errors.Is(err, state.ErrNotIdle):
		return NewConflictError(err.Error())
	}
	return NewInternalError("An unexpected error occurred", err)
}

// NewErrorHandler returns the Echo error handler. Internal error details are
// only sent to the client when debug is set.
// Usage: e.HTTPErrorHandler = api.NewErrorHandler(cfg.Advanced.Debug)
func NewErrorHandler(debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var apiErr *APIError
		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			apiErr = &APIError{
				Status:  httpErr.Code,
				Code:    "HTTP_ERROR",
				Message: fmt.Sprintf("%v", httpErr.Message),
			}
		} else {
			apiErr = FromError(err)
		}

		if apiErr.Status >= http.StatusInternalServerError {
			slog.Error("request failed", "method", c.Request().Method, "path", c.Path(), "error", err)
			if !debug {
				clean := *apiErr
				clean.Details = ""
				apiErr = &clean
			}
		}

		if err := RespondWithError(c, apiErr); err != nil {
			slog.Warn("failed to write error response", "error", err)
		}
	}
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(err.Status)
	}
	return c.JSON(err.Status, err)
}
