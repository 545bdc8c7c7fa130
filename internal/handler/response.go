package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"rental/internal/repository"
	"rental/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	var (
		authErr    *service.AuthorizationError
		stateErr   *service.StateConflictError
		valErr     *service.ValidationError
		schedErr   *service.ScheduleConflictError
		custodyErr *service.CustodyError
		invariant  *service.InvariantError
	)

	switch {
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	case errors.As(err, &valErr):
		return http.StatusBadRequest

	case errors.As(err, &authErr):
		return http.StatusForbidden

	case errors.As(err, &stateErr), errors.As(err, &schedErr):
		return http.StatusConflict

	case errors.As(err, &custodyErr):
		return http.StatusPaymentRequired

	case errors.As(err, &invariant):
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
