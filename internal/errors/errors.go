package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrValidationFailed is returned when registration input is rejected.
	ErrValidationFailed = errors.New("validation failed")
	// ErrForbidden is returned when the caller may not perform the operation.
	ErrForbidden = errors.New("operation not permitted")
	// ErrUserNotFound is returned when a user is not found.
	ErrUserNotFound = errors.New("user not found")
	// ErrTokenNotFound is returned when a bearer token is unknown.
	ErrTokenNotFound = errors.New("token not found")
	// ErrTokenExpired is returned when a bearer token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenRevoked is returned when a bearer token has been revoked.
	ErrTokenRevoked = errors.New("token revoked")
	// ErrDomainNotAllowed is returned when an external identity has an email outside the allowed domain.
	ErrDomainNotAllowed = errors.New("email domain not allowed")
	// ErrExternalAuthFailed is returned when the exchange with the external identity provider fails.
	ErrExternalAuthFailed = errors.New("external authentication failed")
	// ErrEmailTaken is returned by repositories when the unique email constraint is violated.
	ErrEmailTaken = errors.New("email already taken")
)

// ValidationError aggregates field level failures. It matches ErrValidationFailed with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError creates an empty validation error.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for a field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// HasErrors reports whether any field failed.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], ", "))
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, "; ")
}

// Is makes errors.Is(err, ErrValidationFailed) succeed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string][]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	switch {
	case errors.As(err, &validationErr):
		httpErr := NewHTTPError(http.StatusUnprocessableEntity, ErrValidationFailed.Error(), "VALIDATION_FAILED")
		httpErr.Fields = validationErr.Fields
		return httpErr
	case errors.Is(err, ErrValidationFailed):
		return NewHTTPError(http.StatusUnprocessableEntity, ErrValidationFailed.Error(), "VALIDATION_FAILED")
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrForbidden):
		return NewHTTPError(http.StatusForbidden, ErrForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrTokenNotFound):
		return NewHTTPError(http.StatusUnauthorized, ErrTokenNotFound.Error(), "TOKEN_NOT_FOUND")
	case errors.Is(err, ErrTokenExpired):
		return NewHTTPError(http.StatusUnauthorized, ErrTokenExpired.Error(), "TOKEN_EXPIRED")
	case errors.Is(err, ErrTokenRevoked):
		return NewHTTPError(http.StatusUnauthorized, ErrTokenRevoked.Error(), "TOKEN_REVOKED")
	case errors.Is(err, ErrDomainNotAllowed):
		return NewHTTPError(http.StatusForbidden, ErrDomainNotAllowed.Error(), "DOMAIN_NOT_ALLOWED")
	case errors.Is(err, ErrExternalAuthFailed):
		return NewHTTPError(http.StatusUnauthorized, ErrExternalAuthFailed.Error(), "EXTERNAL_AUTH_FAILED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
