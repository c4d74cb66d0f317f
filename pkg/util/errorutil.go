package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	Field      string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// NewFieldRequired flags a missing required field.
func NewFieldRequired(field string) error {
	return &DomainError{
		Code:       "FIELD_REQUIRED",
		Message:    fmt.Sprintf("%s is required", field),
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewFieldDuplicate flags a unique-constraint violation on a field.
func NewFieldDuplicate(field string) error {
	return &DomainError{
		Code:       "FIELD_DUPLICATE",
		Message:    fmt.Sprintf("%s is already taken", field),
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewValidationError flags malformed input.
func NewValidationError(message, field string) error {
	return &DomainError{
		Code:       "VALIDATION_ERROR",
		Message:    message,
		Field:      field,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidCredentials is returned on failed login attempts.
func NewInvalidCredentials() error {
	return NewDomainError("INVALID_CREDENTIALS", "invalid email or password", http.StatusUnauthorized, nil)
}

// NewTokenRequired is returned when the Authorization header is absent.
func NewTokenRequired() error {
	return NewDomainError("TOKEN_REQUIRED", "authentication token required", http.StatusUnauthorized, nil)
}

// NewInvalidToken is returned when a bearer token fails validation.
func NewInvalidToken() error {
	return NewDomainError("INVALID_TOKEN", "invalid or expired token", http.StatusUnauthorized, nil)
}

// NewPermissionDenied is returned when the caller's role forbids the operation.
func NewPermissionDenied(message string) error {
	if message == "" {
		message = "permission denied"
	}
	return NewDomainError("PERMISSION_DENIED", message, http.StatusForbidden, nil)
}

// NewNotFound reports an absent resource.
func NewNotFound(resource string) error {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", resource), http.StatusNotFound, nil)
}

// NewInvalidParent rejects a comment parent belonging to a different ticket.
func NewInvalidParent() error {
	return NewDomainError("INVALID_PARENT", "parent comment belongs to a different ticket", http.StatusBadRequest, nil)
}

// NewVersionConflict reports a lost optimistic-lock race. The current
// version is carried so the client can re-read and retry.
func NewVersionConflict(currentVersion int64) error {
	return NewDomainError("VERSION_CONFLICT", "ticket was modified by another request", http.StatusConflict,
		map[string]any{"current_version": currentVersion})
}

// NewRateLimited reports an exhausted request window. retryAfter is the
// number of seconds until the window resets.
func NewRateLimited(retryAfter int64) error {
	return NewDomainError("RATE_LIMITED", "too many requests", http.StatusTooManyRequests,
		map[string]any{"retry_after": retryAfter})
}

// NewInternalError wraps unexpected failures; detail stays server-side.
func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, pgx.ErrNoRows) {
		if de, ok := NewNotFound("resource").(*DomainError); ok {
			return de
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// MapError converts generic errors to the uniform domain error type.
func MapError(err error) error {
	return ToDomainError(err)
}
