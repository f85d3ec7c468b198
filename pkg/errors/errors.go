package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes of the ride lifecycle
const (
	CodeNotFound           = "NOT_FOUND"
	CodeInvalidState       = "INVALID_STATE"
	CodeValidation         = "VALIDATION_ERROR"
	CodePersistenceFailure = "PERSISTENCE_FAILURE"
	CodeInternal           = "INTERNAL_ERROR"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
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

// Is matches another AppError by code, so errors.Is(err, &AppError{Code: CodeNotFound}) works
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
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

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return NewAppError(CodeNotFound, message, http.StatusNotFound, err)
}

// InvalidState creates a 409 error for operations not allowed in the current ride status
func InvalidState(message string, err error) *AppError {
	return NewAppError(CodeInvalidState, message, http.StatusConflict, err)
}

// Validation creates a 400 error
func Validation(message string, err error) *AppError {
	return NewAppError(CodeValidation, message, http.StatusBadRequest, err)
}

// PersistenceFailure creates a 500 error for failed or conflicting commits
func PersistenceFailure(message string, err error) *AppError {
	return NewAppError(CodePersistenceFailure, message, http.StatusInternalServerError, err)
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return NewAppError(CodeInternal, message, http.StatusInternalServerError, err)
}

// ServiceUnavailable creates a 503 error
func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError(CodeUnavailable, message, http.StatusServiceUnavailable, err)
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

// CodeOf returns the AppError code carried by err, or "" for nil and plain errors
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
