package errors

import (
	stderrors "errors"
	"net/http"
)

// Kind classifies an AppError independently of its message.
type Kind string

const (
	KindValidation    Kind = "VALIDATION_ERROR"
	KindNotFound      Kind = "NOT_FOUND"
	KindWindowExpired Kind = "WINDOW_EXPIRED"
	KindPersistence   Kind = "PERSISTENCE_ERROR"
	KindUnauthorized  Kind = "UNAUTHORIZED"
	KindForbidden     Kind = "FORBIDDEN"
	KindConflict      Kind = "CONFLICT"
	KindRateLimit     Kind = "RATE_LIMITED"
	KindInternal      Kind = "INTERNAL"
)

// AppError is a custom error type that includes an HTTP status code
type AppError struct {
	Code    int    `json:"code"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Kind so that errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// NewAppError creates a new AppError
func NewAppError(code int, kind Kind, message string) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
	}
}

// Common errors
var (
	ErrValidation     = NewAppError(http.StatusBadRequest, KindValidation, "Invalid request parameters")
	ErrUnauthorized   = NewAppError(http.StatusUnauthorized, KindUnauthorized, "Unauthorized access")
	ErrForbidden      = NewAppError(http.StatusForbidden, KindForbidden, "Access denied")
	ErrNotFound       = NewAppError(http.StatusNotFound, KindNotFound, "Resource not found")
	ErrWindowExpired  = NewAppError(http.StatusConflict, KindWindowExpired, "Undo window has expired")
	ErrConflict       = NewAppError(http.StatusConflict, KindConflict, "Resource already exists")
	ErrPersistence    = NewAppError(http.StatusBadGateway, KindPersistence, "Storage operation failed")
	ErrInternalServer = NewAppError(http.StatusInternalServerError, KindInternal, "Internal server error")
	ErrRateLimit      = NewAppError(http.StatusTooManyRequests, KindRateLimit, "Rate limit exceeded")
)

// Helper functions to create specific errors
func Validation(msg string) *AppError {
	return NewAppError(http.StatusBadRequest, KindValidation, msg)
}

func NotFound(msg string) *AppError {
	return NewAppError(http.StatusNotFound, KindNotFound, msg)
}

func WindowExpired(msg string) *AppError {
	return NewAppError(http.StatusConflict, KindWindowExpired, msg)
}

func Persistence(msg string, cause error) *AppError {
	e := NewAppError(http.StatusBadGateway, KindPersistence, msg)
	e.Err = cause
	return e
}

func Unauthorized(msg string) *AppError {
	return NewAppError(http.StatusUnauthorized, KindUnauthorized, msg)
}

func Forbidden(msg string) *AppError {
	return NewAppError(http.StatusForbidden, KindForbidden, msg)
}

func Conflict(msg string) *AppError {
	return NewAppError(http.StatusConflict, KindConflict, msg)
}

func Internal(msg string) *AppError {
	return NewAppError(http.StatusInternalServerError, KindInternal, msg)
}

// As returns the AppError in err's chain, or wraps err as an internal error.
func As(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	e := Internal("Internal server error")
	e.Err = err
	return e
}

// KindOf reports the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return As(err).Kind
}
