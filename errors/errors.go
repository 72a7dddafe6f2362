package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode is the machine readable code returned in error bodies.
type ErrorCode string

const (
	ErrorCode_HTTP_OK           ErrorCode = "OK"
	ErrorCode_INTERNAL          ErrorCode = "INTERNAL"
	ErrorCode_INVALID_ARGUMENT  ErrorCode = "INVALID_ARGUMENT"
	ErrorCode_INVALID_PAYLOAD   ErrorCode = "INVALID_PAYLOAD"
	ErrorCode_NOT_FOUND         ErrorCode = "NOT_FOUND"
	ErrorCode_UNAUTHENTICATED   ErrorCode = "UNAUTHENTICATED"
	ErrorCode_PERMISSION_DENIED ErrorCode = "PERMISSION_DENIED"
	ErrorCode_UNAVAILABLE       ErrorCode = "UNAVAILABLE"

	ErrorCode_AUTH_INVALID_TOKEN     ErrorCode = "AUTH_INVALID_TOKEN"
	ErrorCode_AUTH_TOKEN_EXPIRED     ErrorCode = "AUTH_TOKEN_EXPIRED"
	ErrorCode_WEBHOOK_UNAUTHORIZED   ErrorCode = "WEBHOOK_UNAUTHORIZED"
	ErrorCode_UNSUPPORTED_PROVIDER   ErrorCode = "UNSUPPORTED_PROVIDER"
	ErrorCode_BACKFILL_NOT_SUPPORTED ErrorCode = "BACKFILL_NOT_SUPPORTED"
)

func (c ErrorCode) String() string {
	return string(c)
}

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// Unwrap exposes the raw cause to errors.Is / errors.As.
func (e AppError) Unwrap() error {
	return e.Raw
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:       err,
		HTTPCode:  http.StatusInternalServerError,
		Code:      ErrorCode_INTERNAL,
		Message:   "Internal server error",
		Timestamp: time.Now().UTC(),
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_INVALID_ARGUMENT,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// ErrResourceNotFound is a 404 carrying a complete message
func ErrResourceNotFound(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusNotFound,
		Code:      ErrorCode_NOT_FOUND,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode:  http.StatusUnauthorized,
		Code:      ErrorCode_UNAUTHENTICATED,
		Message:   "Authentication required",
		Timestamp: time.Now().UTC(),
	}
}

func ErrPermissionDenied() AppError {
	return AppError{
		HTTPCode:  http.StatusForbidden,
		Code:      ErrorCode_PERMISSION_DENIED,
		Message:   "Insufficient permissions",
		Timestamp: time.Now().UTC(),
	}
}

func ErrUnavailable(service string) AppError {
	return AppError{
		HTTPCode:  http.StatusServiceUnavailable,
		Code:      ErrorCode_UNAVAILABLE,
		Message:   "Service temporarily unavailable",
		Timestamp: time.Now().UTC(),
	}.WithDetail("service", service)
}

// Authentication Errors
func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode:  http.StatusUnauthorized,
		Code:      ErrorCode_AUTH_INVALID_TOKEN,
		Message:   "Invalid authentication token",
		Timestamp: time.Now().UTC(),
	}
}

func ErrTokenExpired() AppError {
	return AppError{
		HTTPCode:  http.StatusUnauthorized,
		Code:      ErrorCode_AUTH_TOKEN_EXPIRED,
		Message:   "Authentication token has expired",
		Timestamp: time.Now().UTC(),
	}
}

// Webhook Errors
func ErrInvalidPayload(reason string) AppError {
	return AppError{
		HTTPCode:  http.StatusUnprocessableEntity,
		Code:      ErrorCode_INVALID_PAYLOAD,
		Message:   "Invalid payload",
		Timestamp: time.Now().UTC(),
	}.WithDetail("reason", reason)
}

func ErrWebhookUnauthorized(provider string) AppError {
	return AppError{
		HTTPCode:  http.StatusUnauthorized,
		Code:      ErrorCode_WEBHOOK_UNAUTHORIZED,
		Message:   "Invalid webhook signature or secret",
		Timestamp: time.Now().UTC(),
	}.WithDetail("provider", provider)
}

func ErrUnsupportedProvider(provider string) AppError {
	return AppError{
		HTTPCode:  http.StatusNotFound,
		Code:      ErrorCode_UNSUPPORTED_PROVIDER,
		Message:   "Unsupported transcription provider",
		Timestamp: time.Now().UTC(),
	}.WithDetail("provider", provider)
}

func ErrBackfillNotSupported(message string) AppError {
	return AppError{
		HTTPCode:  http.StatusBadRequest,
		Code:      ErrorCode_BACKFILL_NOT_SUPPORTED,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}
