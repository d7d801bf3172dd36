package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors.Is(err, ErrStorage)
// holds for every storage failure regardless of its cause.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Common error constructors

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// Unauthenticated creates a 401 error
func Unauthenticated(message string, err error) *AppError {
	return NewAppError("UNAUTHENTICATED", message, http.StatusUnauthorized, err)
}

// Forbidden creates a 403 error
func Forbidden(message string, err error) *AppError {
	return NewAppError("FORBIDDEN", message, http.StatusForbidden, err)
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, err)
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL_ERROR", message, http.StatusInternalServerError, err)
}

// Domain-specific errors

var (
	ErrInvalidInput      = NewAppError("INVALID_INPUT", "Invalid input", http.StatusBadRequest, nil)
	ErrInvalidLocation   = NewAppError("INVALID_LOCATION", "Invalid location", http.StatusBadRequest, nil)
	ErrSameLocation      = NewAppError("SAME_LOCATION", "Pickup and destination cannot be the same", http.StatusBadRequest, nil)
	ErrInvalidRideClass  = NewAppError("INVALID_RIDE_CLASS", "Invalid ride type", http.StatusBadRequest, nil)
	ErrDistanceNotFound  = NewAppError("DISTANCE_NOT_FOUND", "Distance not found between selected locations", http.StatusBadRequest, nil)
	ErrInvalidTransition = NewAppError("INVALID_TRANSITION", "Invalid status transition", http.StatusBadRequest, nil)
	ErrUnauthorized      = NewAppError("UNAUTHORIZED", "Not authorized to access this trip", http.StatusForbidden, nil)
	ErrTripNotFound      = NewAppError("TRIP_NOT_FOUND", "Trip not found", http.StatusNotFound, nil)
	ErrTripNotPending    = NewAppError("TRIP_NOT_PENDING", "Trip is no longer available", http.StatusConflict, nil)
	ErrStorage           = NewAppError("STORAGE_ERROR", "Storage failure", http.StatusInternalServerError, nil)
	ErrRateLimited       = NewAppError("RATE_LIMITED", "Too many requests", http.StatusTooManyRequests, nil)
	ErrRequestInFlight   = NewAppError("REQUEST_IN_PROGRESS", "A request with this Idempotency-Key is still being processed", http.StatusConflict, nil)
)

// Storage wraps a persistence failure as a STORAGE_ERROR.
func Storage(err error) *AppError {
	return NewAppError(ErrStorage.Code, ErrStorage.Message, ErrStorage.Status, err)
}

// Invalid returns an INVALID_INPUT error with a specific message.
func Invalid(message string) *AppError {
	return NewAppError(ErrInvalidInput.Code, message, ErrInvalidInput.Status, nil)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	// Return generic internal error if not an AppError
	return Internal("An unexpected error occurred", err)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
