package errors

import (
	"fmt"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeTransport         = "TRANSPORT_ERROR"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeNoFileProvided    = "NO_FILE_PROVIDED"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeParseError        = "PARSE_ERROR"
	CodeEmptyInput        = "EMPTY_INPUT"
	CodeSchemaError       = "SCHEMA_ERROR"
	CodeInvalidPagination = "INVALID_PAGINATION"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

// Transport marks network-level failures (timeout, DNS, connection refused).
// These are never folded into authorization failures.
func Transport(message string, cause error) *AppError {
	return &AppError{Code: CodeTransport, Message: message, Cause: cause}
}

func Unauthorized(message string) *AppError {
	return New(CodeUnauthorized, message)
}

func NoFileProvided() *AppError {
	return New(CodeNoFileProvided, "No file provided")
}

func UnsupportedFormat(filename string) *AppError {
	return New(CodeUnsupportedFormat, fmt.Sprintf("unsupported file format: %s (only .csv and .xlsx are accepted)", filename))
}

func ParseError(message string, cause error) *AppError {
	return &AppError{Code: CodeParseError, Message: message, Cause: cause}
}

func EmptyInput() *AppError {
	return New(CodeEmptyInput, "file contains no data rows")
}

func SchemaError(column string) *AppError {
	return New(CodeSchemaError, fmt.Sprintf("missing required column %q", column))
}

func InvalidPagination(message string) *AppError {
	return New(CodeInvalidPagination, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

// IsValidation reports whether the error is a client-input problem that maps
// to a 400 response.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case CodeNoFileProvided, CodeUnsupportedFormat, CodeParseError,
		CodeEmptyInput, CodeSchemaError, CodeInvalidPagination, CodeInvalidInput:
		return true
	}
	return false
}

// IsTransport reports whether the error is a network-level failure.
func IsTransport(err error) bool {
	return GetCode(err) == CodeTransport
}

// IsUnauthorized reports whether the error is an authorization failure.
func IsUnauthorized(err error) bool {
	return GetCode(err) == CodeUnauthorized
}
