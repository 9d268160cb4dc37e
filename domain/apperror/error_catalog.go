package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Startup errors (1xxx)
	ErrCodeKeyInitialization ErrorCode = "KEY_1001"

	// Authentication errors (2xxx)
	ErrCodeAuthRequired   ErrorCode = "AUTH_2001"
	ErrCodeInvalidToken   ErrorCode = "AUTH_2002"
	ErrCodeTokenExpired   ErrorCode = "AUTH_2003"
	ErrCodeWrongTokenType ErrorCode = "AUTH_2004"

	// Authorization errors (3xxx)
	ErrCodeInsufficientPermissions ErrorCode = "AUTHZ_3001"

	// Cross-origin errors (4xxx)
	ErrCodeOriginNotAllowed ErrorCode = "CORS_4001"
)

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the cause error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Common error constructors

// ErrKeyInitialization is fatal: the process must not serve authenticated
// routes without signing key material.
func ErrKeyInitialization(details string, cause error) *AppError {
	return NewAppError(ErrCodeKeyInitialization, "Signing key initialization failed", details, cause)
}

func ErrAuthRequired(details string) *AppError {
	return NewAppError(ErrCodeAuthRequired, "Authentication required", details, nil)
}

func ErrInvalidToken(details string) *AppError {
	return NewAppError(ErrCodeInvalidToken, "Invalid token", details, nil)
}

func ErrTokenExpired(details string) *AppError {
	return NewAppError(ErrCodeTokenExpired, "Token has expired", details, nil)
}

func ErrWrongTokenType(details string) *AppError {
	return NewAppError(ErrCodeWrongTokenType, "Wrong token type", details, nil)
}

// ErrInsufficientPermissions reports the required and actual entitlement
// sets. These reveal only the caller's own entitlements, never secrets.
func ErrInsufficientPermissions(kind string, required, actual []string) *AppError {
	details := fmt.Sprintf("required %s: [%s], actual: [%s]",
		kind, strings.Join(required, ", "), strings.Join(actual, ", "))
	return NewAppError(ErrCodeInsufficientPermissions, "Insufficient permissions", details, nil)
}

func ErrOriginNotAllowed(origin string) *AppError {
	return NewAppError(ErrCodeOriginNotAllowed, "Origin not allowed", fmt.Sprintf("Origin: %s", origin), nil)
}

// CodeOf extracts the error code, or empty string for non-application errors.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// HTTPStatus maps an error to the HTTP status code its gate should answer
// with. Unclassified errors map to 500.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrCodeAuthRequired, ErrCodeInvalidToken, ErrCodeTokenExpired, ErrCodeWrongTokenType:
		return http.StatusUnauthorized
	case ErrCodeInsufficientPermissions, ErrCodeOriginNotAllowed:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
