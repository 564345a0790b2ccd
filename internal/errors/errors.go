package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/zaplinker/backend/internal/plans"
	"github.com/zaplinker/backend/internal/redirect"
	"github.com/zaplinker/backend/internal/repository"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   string    `json:"field,omitempty"`
	Details string    `json:"details,omitempty"`
	Status  int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field: %s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NotFound creates a NOT_FOUND error
func NotFound(resource string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

// Unauthorized creates an UNAUTHORIZED error
func Unauthorized(message string) *APIError {
	return &APIError{
		Code:    ErrUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Forbidden creates a FORBIDDEN error
func Forbidden(message string) *APIError {
	return &APIError{
		Code:    ErrForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// Conflict creates a CONFLICT error
func Conflict(message string) *APIError {
	return &APIError{
		Code:    ErrConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// ValidationError creates a VALIDATION_ERROR
func ValidationError(field, message string) *APIError {
	return &APIError{
		Code:    ErrValidation,
		Message: message,
		Field:   field,
		Status:  http.StatusUnprocessableEntity,
	}
}

// BadRequest creates a BAD_REQUEST error
func BadRequest(message string) *APIError {
	return &APIError{
		Code:    ErrBadRequest,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// InternalError creates an INTERNAL_ERROR
func InternalError(message string) *APIError {
	return &APIError{
		Code:    ErrInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// RateLimited creates a RATE_LIMITED error
func RateLimited(message string) *APIError {
	if message == "" {
		message = "rate limit exceeded"
	}
	return &APIError{
		Code:    ErrRateLimited,
		Message: message,
		Status:  http.StatusTooManyRequests,
	}
}

// ServiceUnavailable creates a SERVICE_UNAVAILABLE error
func ServiceUnavailable(service string) *APIError {
	return &APIError{
		Code:    ErrServiceUnavail,
		Message: fmt.Sprintf("%s is temporarily unavailable", service),
		Status:  http.StatusServiceUnavailable,
	}
}

// PlanLimitReached is returned when the caller's plan does not allow another resource.
func PlanLimitReached(message string) *APIError {
	return &APIError{
		Code:    ErrPlanLimit,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

// NoActiveNumber is returned by the redirect endpoint when a workspace has nothing to redirect to.
func NoActiveNumber() *APIError {
	return &APIError{
		Code:    ErrNoActiveNumber,
		Message: "no active numbers available",
		Status:  http.StatusNotFound,
	}
}

// WithDetails adds additional details to an error
func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// FromError maps a domain error onto an API error. resource names the thing that was looked up.
func FromError(err error, resource string) *APIError {
	var apiErr *APIError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &apiErr):
		return apiErr
	case stderrors.Is(err, repository.ErrNotFound), stderrors.Is(err, repository.ErrUserNotFound):
		return NotFound(resource)
	case stderrors.Is(err, redirect.ErrWorkspaceNotFound):
		return NotFound("workspace")
	case stderrors.Is(err, redirect.ErrNoActiveNumbers):
		return NoActiveNumber()
	case stderrors.Is(err, repository.ErrCustomURLTaken):
		return Conflict("custom url already in use")
	case stderrors.Is(err, repository.ErrInvalidInput):
		return BadRequest(err.Error())
	case stderrors.Is(err, plans.ErrLimitReached):
		return PlanLimitReached(err.Error())
	}
	return InternalError("internal server error")
}
