package errors

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	// It deliberately does not say which one.
	ErrInvalidCredentials = errors.New("the provided credentials are incorrect")
	// ErrUnauthenticated is returned for a missing, invalid or revoked credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrMoodEntryForbidden is returned when a mood entry belongs to another user.
	ErrMoodEntryForbidden = errors.New("unauthorized access to mood entry")
	// ErrMoodEntryNotFound is returned when no mood entry has the given id.
	ErrMoodEntryNotFound = errors.New("mood entry not found")
	// ErrUserNotFound is returned when a user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// ValidationError itemises failures per request field.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError returns a ValidationError with a single message.
func NewValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.Add(field, message)
	return v
}

// Add appends a message for field.
func (v *ValidationError) Add(field, message string) {
	if v.Fields == nil {
		v.Fields = make(map[string][]string)
	}
	v.Fields[field] = append(v.Fields[field], message)
}

// Has reports whether field has at least one message.
func (v *ValidationError) Has(field string) bool {
	return len(v.Fields[field]) > 0
}

// Empty reports whether no field failed.
func (v *ValidationError) Empty() bool {
	return v == nil || len(v.Fields) == 0
}

// OrNil returns v as an error, or nil when it holds no failures.
func (v *ValidationError) OrNil() error {
	if v.Empty() {
		return nil
	}
	return v
}

func (v *ValidationError) Error() string {
	fields := make([]string, 0, len(v.Fields))
	for field := range v.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(v.Fields[field], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Status string              `json:"status"`
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Errors map[string][]string `json:"errors,omitempty"`
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
		Status: "error",
		Error:  e.Message,
		Code:   e.Code,
		Errors: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return &HTTPError{
			StatusCode: http.StatusUnprocessableEntity,
			Message:    "the given data was invalid",
			Code:       "VALIDATION_ERROR",
			Fields:     validationErr.Fields,
		}
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, ErrInvalidCredentials.Error(), "INVALID_CREDENTIALS")
	case errors.Is(err, ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, "unauthenticated", "UNAUTHENTICATED")
	case errors.Is(err, ErrMoodEntryForbidden):
		return NewHTTPError(http.StatusForbidden, ErrMoodEntryForbidden.Error(), "FORBIDDEN")
	case errors.Is(err, ErrMoodEntryNotFound):
		return NewHTTPError(http.StatusNotFound, ErrMoodEntryNotFound.Error(), "MOOD_ENTRY_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		// The credential outlived its user.
		return NewHTTPError(http.StatusUnauthorized, "unauthenticated", "UNAUTHENTICATED")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
