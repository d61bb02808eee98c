package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"paymentgateway/internal/repository"
	"paymentgateway/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Policy rejections - Bad Request
	case service.IsValidationError(err):
		return http.StatusBadRequest

	// A commit race is resolved inside the orchestrator; if the sentinel
	// still escapes, something is corrupt.
	case errors.Is(err, repository.ErrInvalidTransition):
		return http.StatusConflict

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
