// Package httputil writes the JSON error bodies and parses the query parameters shared by card handlers.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/cardledger/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// errorMapping describes the response for an error kind. An empty message
// means the error text itself is safe to show.
type errorMapping struct {
	status  int
	code    string
	message string
}

var errorMappings = map[error]errorMapping{
	apperrors.ErrNotFound:     {status: http.StatusNotFound, code: "not_found"},
	apperrors.ErrConflict:     {status: http.StatusConflict, code: "conflict"},
	apperrors.ErrInvalidInput: {status: http.StatusUnprocessableEntity, code: "invalid_input"},
	apperrors.ErrUnauthorized: {
		status:  http.StatusUnauthorized,
		code:    "unauthorized",
		message: "Authentication is required",
	},
	apperrors.ErrForbidden: {
		status:  http.StatusForbidden,
		code:    "forbidden",
		message: "You don't have permission to access this resource",
	},
	apperrors.ErrUnavailable: {
		status:  http.StatusServiceUnavailable,
		code:    "unavailable",
		message: "The request could not be completed, please retry",
	},
}

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "An internal error occurred",
}

// HandleErrorGin writes the response for err based on its kind and logs it once.
// Errors without a kind become a 500 whose body never includes err's text.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	mapping, ok := errorMappings[apperrors.Kind(err)]
	if !ok {
		mapping = internalError
	}

	response := ErrorResponse{Error: mapping.code, Message: mapping.message}
	if response.Message == "" {
		response.Message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if mapping.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", mapping.status),
			slog.String("error_code", mapping.code),
			slog.Any("error", err),
		)
	}

	c.JSON(mapping.status, response)
}

// HandleBadRequestGin writes a 400 for malformed JSON or path and query parameters.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: "bad_request", Message: err.Error()})
}

// HandleValidationErrorGin writes a 422 for request bodies that fail validation.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation_error", Message: err.Error()})
}
