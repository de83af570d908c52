// Package errors defines the wire-level error model: stable codes, an
// HTTP status and an optional detail, serialized uniformly by WriteError.
package errors

import (
	"fmt"
	"net/http"
)

// AppError is the standard application error shape.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // original cause, for logs only
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// FromError converts any error into an AppError, defaulting to an
// internal error that keeps the original cause for logging.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail returns a copy carrying extra detail, so the shared base
// errors are never mutated.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause returns a copy carrying the original error.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request has invalid syntax or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrMethodNotAllowed = &AppError{
		Code:       "METHOD_NOT_ALLOWED",
		Message:    "The HTTP method is not allowed for this resource.",
		HTTPStatus: http.StatusMethodNotAllowed,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_SERVER_ERROR",
		Message:    "An internal server error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)

// Link-flow errors. One per terminal outcome so presentation layers can
// render a specific, actionable message; never collapsed into a generic
// error.
var (
	ErrConfigurationMissing = &AppError{
		Code:       "CONFIGURATION_MISSING",
		Message:    "Provider credentials are not configured on the server.",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrAccessDenied = &AppError{
		Code:       "ACCESS_DENIED",
		Message:    "The provider sign-in was declined.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrInvalidState = &AppError{
		Code:       "INVALID_STATE",
		Message:    "The handshake state is unknown, expired or already used.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrMissingParameters = &AppError{
		Code:       "MISSING_PARAMETERS",
		Message:    "The provider callback is missing code or state.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrEmailNotVerified = &AppError{
		Code:       "EMAIL_NOT_VERIFIED",
		Message:    "The provider account's email is not verified.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrProcessingFailed = &AppError{
		Code:       "PROCESSING_FAILED",
		Message:    "Linking failed while talking to the provider or the datastore.",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrNoAccounts = &AppError{
		Code:       "NO_ACCOUNTS",
		Message:    "No linked accounts were found for this identity.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrPositionOutOfRange = &AppError{
		Code:       "POSITION_OUT_OF_RANGE",
		Message:    "The account position is outside the valid range.",
		HTTPStatus: http.StatusBadRequest,
	}
)
