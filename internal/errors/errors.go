package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a category of application error.
type ErrorCode string

const (
	// ErrCodeNotFound indicates a resource was not found.
	ErrCodeNotFound ErrorCode = "not_found"
	// ErrCodeConflict indicates a conflict with existing data (e.g., unique constraint violation).
	ErrCodeConflict ErrorCode = "conflict"
	// ErrCodeValidation indicates invalid input data.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeForeignKey indicates a foreign key constraint violation.
	ErrCodeForeignKey ErrorCode = "foreign_key"
	// ErrCodeInternal indicates an internal server error.
	ErrCodeInternal ErrorCode = "internal"
	// ErrCodeTimeout indicates a timeout occurred.
	ErrCodeTimeout ErrorCode = "timeout"
	// ErrCodeCanceled indicates the operation was canceled.
	ErrCodeCanceled ErrorCode = "canceled"
	// ErrCodeUnauthorized indicates a request without a valid session or role.
	ErrCodeUnauthorized ErrorCode = "unauthorized"

	// ErrCodeAuthRejected indicates the identity provider explicitly denied the ticket.
	ErrCodeAuthRejected ErrorCode = "auth_rejected"
	// ErrCodeMalformedResponse indicates a provider response that does not match the
	// expected shape for its protocol version.
	ErrCodeMalformedResponse ErrorCode = "malformed_response"
	// ErrCodeTransport indicates the outbound HTTP call to an external system failed.
	ErrCodeTransport ErrorCode = "transport_error"
	// ErrCodeConfiguration indicates a deployment misconfiguration (e.g. an
	// unsupported protocol version). Fatal; never retried.
	ErrCodeConfiguration ErrorCode = "configuration_error"
	// ErrCodeDirectoryFailure indicates the campus directory service returned a
	// non-success status.
	ErrCodeDirectoryFailure ErrorCode = "directory_failure"
)

// AppError represents a structured application error with a code, message, and optional cause.
// It supports error wrapping and unwrapping for use with errors.Is and errors.As.
type AppError struct {
	// Code categorizes the error type
	Code ErrorCode
	// Message is a human-readable error message
	Message string
	// Cause is the underlying error that caused this error (optional)
	Cause error
	// Field is the specific field that caused the error (optional, for validation errors)
	Field string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying cause, enabling errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NotFound creates a new NotFound error.
func NotFound(message string) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: message,
	}
}

// NotFoundf creates a new NotFound error with formatted message.
func NotFoundf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Conflict creates a new Conflict error.
func Conflict(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
	}
}

// Conflictf creates a new Conflict error with formatted message.
func Conflictf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a new Validation error.
func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// Validationf creates a new Validation error with formatted message.
func Validationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// ValidationField creates a new Validation error for a specific field.
func ValidationField(field, message string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: message,
		Field:   field,
	}
}

// ForeignKey creates a new ForeignKey error.
func ForeignKey(message string) *AppError {
	return &AppError{
		Code:    ErrCodeForeignKey,
		Message: message,
	}
}

// Internal creates a new Internal error.
func Internal(message string) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: message,
	}
}

// Internalf creates a new Internal error with formatted message.
func Internalf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: fmt.Sprintf(format, args...),
	}
}

// Unauthorized creates a new Unauthorized error.
func Unauthorized(message string) *AppError {
	return &AppError{
		Code:    ErrCodeUnauthorized,
		Message: message,
	}
}

// AuthRejected creates an error for a ticket the identity provider explicitly denied.
// The provider's failure code, when available, is embedded in the message by the caller.
func AuthRejected(message string) *AppError {
	return &AppError{
		Code:    ErrCodeAuthRejected,
		Message: message,
	}
}

// AuthRejectedf creates an AuthRejected error with formatted message.
func AuthRejectedf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeAuthRejected,
		Message: fmt.Sprintf(format, args...),
	}
}

// MalformedResponse creates an error for a provider response that does not match
// the expected shape for its declared protocol version.
func MalformedResponse(message string) *AppError {
	return &AppError{
		Code:    ErrCodeMalformedResponse,
		Message: message,
	}
}

// Transport creates an error for a failed outbound HTTP call.
func Transport(message string) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: message,
	}
}

// Transportf creates a Transport error with formatted message.
func Transportf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeTransport,
		Message: fmt.Sprintf(format, args...),
	}
}

// Configuration creates a fatal misconfiguration error.
func Configuration(message string) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: message,
	}
}

// Configurationf creates a Configuration error with formatted message.
func Configurationf(format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeConfiguration,
		Message: fmt.Sprintf(format, args...),
	}
}

// DirectoryFailure creates an error for a failed directory-service lookup.
func DirectoryFailure(message string) *AppError {
	return &AppError{
		Code:    ErrCodeDirectoryFailure,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError, preserving the cause.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an existing error with an AppError and formatted message.
func Wrapf(err error, code ErrorCode, format string, args ...any) *AppError {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// isCode checks if an error has a specific error code.
func isCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

// IsNotFound checks if an error is a NotFound error.
func IsNotFound(err error) bool {
	return isCode(err, ErrCodeNotFound)
}

// IsConflict checks if an error is a Conflict error.
func IsConflict(err error) bool {
	return isCode(err, ErrCodeConflict)
}

// IsValidation checks if an error is a Validation error.
func IsValidation(err error) bool {
	return isCode(err, ErrCodeValidation)
}

// IsForeignKey checks if an error is a ForeignKey error.
func IsForeignKey(err error) bool {
	return isCode(err, ErrCodeForeignKey)
}

// IsInternal checks if an error is an Internal error.
func IsInternal(err error) bool {
	return isCode(err, ErrCodeInternal)
}

// IsTimeout checks if an error is a Timeout error.
func IsTimeout(err error) bool {
	return isCode(err, ErrCodeTimeout)
}

// IsCanceled checks if an error is a Canceled error.
func IsCanceled(err error) bool {
	return isCode(err, ErrCodeCanceled)
}

// IsUnauthorized checks if an error is an Unauthorized error.
func IsUnauthorized(err error) bool {
	return isCode(err, ErrCodeUnauthorized)
}

// IsAuthRejected checks if an error is an AuthRejected error.
func IsAuthRejected(err error) bool {
	return isCode(err, ErrCodeAuthRejected)
}

// IsMalformedResponse checks if an error is a MalformedResponse error.
func IsMalformedResponse(err error) bool {
	return isCode(err, ErrCodeMalformedResponse)
}

// IsAuthenticationFailure reports whether an error arose from the login handshake
// itself (rejection, malformed response, or transport failure on the validate leg).
// The orchestrator treats all three identically: the login aborts with no session
// mutation and the user must restart the flow.
func IsAuthenticationFailure(err error) bool {
	return isCode(err, ErrCodeAuthRejected) ||
		isCode(err, ErrCodeMalformedResponse) ||
		isCode(err, ErrCodeTransport)
}

// IsConfiguration checks if an error is a Configuration error.
func IsConfiguration(err error) bool {
	return isCode(err, ErrCodeConfiguration)
}

// IsDirectoryFailure checks if an error is a DirectoryFailure error.
func IsDirectoryFailure(err error) bool {
	return isCode(err, ErrCodeDirectoryFailure)
}

// GetCode returns the ErrorCode from an error, or empty string if not an AppError.
func GetCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// GetField returns the Field from an error, or empty string if not an AppError or no field set.
func GetField(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}
