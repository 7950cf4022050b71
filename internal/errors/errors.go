package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType represents the category of error
type ErrorType int

const (
	// Internal errors - unclassified failures, including unknown external API statuses
	ErrorTypeInternal ErrorType = iota
	// NotFound errors - missing intern, repository, evaluation or template
	ErrorTypeNotFound
	// Unauthorized errors - rejected external API credential
	ErrorTypeUnauthorized
	// Conflict errors - duplicate unique key on insert
	ErrorTypeConflict
	// Validation errors - invalid input data
	ErrorTypeValidation
	// External errors - generative-text or other third-party service failures
	ErrorTypeExternal
	// Database errors - connection or query failures
	ErrorTypeDatabase
	// Configuration errors - missing or invalid configuration
	ErrorTypeConfig
)

// Error represents a structured error with context
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Is matches any *Error of the same type, so errors.Is(err, errors.NotFound("")) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// DetailedString returns a detailed error message with context
func (e *Error) DetailedString() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s\n", e.Type, e.Message))
	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf("Caused by: %v\n", e.Cause))
	}
	if len(e.Context) > 0 {
		sb.WriteString("Context:\n")
		for k, v := range e.Context {
			sb.WriteString(fmt.Sprintf("  %s: %v\n", k, v))
		}
	}
	return sb.String()
}

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeNotFound:
		return "NOT_FOUND"
	case ErrorTypeUnauthorized:
		return "UNAUTHORIZED"
	case ErrorTypeConflict:
		return "CONFLICT"
	case ErrorTypeValidation:
		return "VALIDATION"
	case ErrorTypeExternal:
		return "EXTERNAL"
	case ErrorTypeDatabase:
		return "DATABASE"
	case ErrorTypeConfig:
		return "CONFIG"
	default:
		return "INTERNAL"
	}
}

// New creates a new error with the given type and message
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Context: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with additional context
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Context: make(map[string]interface{}),
	}
}

// Convenience constructors for common error types

// NotFound creates a not-found error
func NotFound(message string) *Error {
	return New(ErrorTypeNotFound, message)
}

// NotFoundf creates a not-found error with formatting
func NotFoundf(format string, args ...interface{}) *Error {
	return New(ErrorTypeNotFound, fmt.Sprintf(format, args...))
}

// Unauthorized wraps a rejected-credential error
func Unauthorized(err error, message string) *Error {
	if err == nil {
		return New(ErrorTypeUnauthorized, message)
	}
	return Wrap(err, ErrorTypeUnauthorized, message)
}

// Conflict wraps a unique-key violation
func Conflict(err error, message string) *Error {
	if err == nil {
		return New(ErrorTypeConflict, message)
	}
	return Wrap(err, ErrorTypeConflict, message)
}

// ValidationError creates a validation error
func ValidationError(message string) *Error {
	return New(ErrorTypeValidation, message)
}

// ValidationErrorf creates a validation error with formatting
func ValidationErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeValidation, fmt.Sprintf(format, args...))
}

// ExternalError wraps an external service error
func ExternalError(err error, message string) *Error {
	return Wrap(err, ErrorTypeExternal, message)
}

// DatabaseError wraps a database error
func DatabaseError(err error, message string) *Error {
	return Wrap(err, ErrorTypeDatabase, message)
}

// DatabaseErrorf wraps a database error with formatting
func DatabaseErrorf(err error, format string, args ...interface{}) *Error {
	return Wrap(err, ErrorTypeDatabase, fmt.Sprintf(format, args...))
}

// ConfigError creates a configuration error
func ConfigError(message string) *Error {
	return New(ErrorTypeConfig, message)
}

// ConfigErrorf creates a configuration error with formatting
func ConfigErrorf(format string, args ...interface{}) *Error {
	return New(ErrorTypeConfig, fmt.Sprintf(format, args...))
}

// InternalError wraps an unclassified failure
func InternalError(err error, message string) *Error {
	if err == nil {
		return New(ErrorTypeInternal, message)
	}
	return Wrap(err, ErrorTypeInternal, message)
}

// InternalErrorf wraps an unclassified failure with formatting
func InternalErrorf(err error, format string, args ...interface{}) *Error {
	return InternalError(err, fmt.Sprintf(format, args...))
}

// GetType returns the type of the first *Error in the chain
func GetType(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeInternal
}

// IsType reports whether any *Error in the chain has the given type
func IsType(err error, errType ErrorType) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, &Error{Type: errType})
}

// HTTPStatus maps an error to the status code returned to API callers
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch GetType(err) {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case ErrorTypeConflict:
		return http.StatusConflict
	case ErrorTypeValidation:
		return http.StatusBadRequest
	case ErrorTypeExternal:
		return http.StatusBadGateway
	case ErrorTypeConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message safe to show API callers. Causes and
// context stay server-side.
func PublicMessage(err error) string {
	var e *Error
	if !stderrors.As(err, &e) {
		return "internal server error"
	}
	switch e.Type {
	case ErrorTypeInternal, ErrorTypeDatabase:
		return "internal server error"
	default:
		return e.Message
	}
}
