package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindNotFound:
		return "NOT_FOUND"
	default:
		return "INTERNAL_ERROR"
	}
}

// Status returns the HTTP status code conventionally used for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified domain error.
type Error struct {
	Kind    Kind
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same kind and message, so sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func newKind(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var (
	// ErrAccountExists is returned when the username or email is already registered.
	ErrAccountExists = newKind(KindConflict, "username or email already registered")
	// ErrInvalidCredentials is returned when username or password is incorrect.
	ErrInvalidCredentials = newKind(KindUnauthorized, "invalid username or password")
	// ErrInvalidToken is returned for missing, malformed or expired tokens.
	ErrInvalidToken = newKind(KindUnauthorized, "could not validate credentials")
	// ErrAccountInactive is returned when an inactive account tries to authenticate.
	ErrAccountInactive = newKind(KindForbidden, "account is not active")
	// ErrAdminRequired is returned when a non-admin reaches an admin view.
	ErrAdminRequired = newKind(KindForbidden, "administrator privileges required")
	// ErrAccountNotFound is returned when an account is not found.
	ErrAccountNotFound = newKind(KindNotFound, "account not found")
	// ErrTaskNotFound is returned when a task is absent or owned by another account.
	ErrTaskNotFound = newKind(KindNotFound, "task not found")
	// ErrNoFieldsToUpdate is returned by a partial update without fields.
	ErrNoFieldsToUpdate = newKind(KindValidation, "no fields to update")
)

// Validation builds a validation error with field-level details.
func Validation(message string, details ...string) *Error {
	return &Error{Kind: KindValidation, Message: message, Details: details}
}

// Internal wraps an unexpected failure. The message is for logs only.
func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Details    []string
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
		Success: false,
		Message: e.Message,
		Code:    e.Code,
		Errors:  e.Details,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Internal details never leave the process.
func MapErrorToHTTP(err error) *HTTPError {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindInternal {
		return NewHTTPError(http.StatusInternalServerError, "internal server error", KindInternal.String())
	}
	httpErr := NewHTTPError(e.Kind.Status(), e.Message, e.Kind.String())
	httpErr.Details = e.Details
	return httpErr
}
