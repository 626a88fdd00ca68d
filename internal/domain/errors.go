package domain

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable error classification surfaced to callers.
// Callers branch on codes, not messages; messages may be localized.
type ErrorCode string

const (
	CodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
	CodeActivityNotFound     ErrorCode = "ACTIVITY_NOT_FOUND"
	CodeAlreadyStarted       ErrorCode = "ALREADY_STARTED"
	CodeSystemNotSupported   ErrorCode = "SYSTEM_NOT_SUPPORTED"
	CodePermissionDenied     ErrorCode = "PERMISSION_DENIED"
	CodeNetworkError         ErrorCode = "NETWORK_ERROR"
	CodeUnknown              ErrorCode = "UNKNOWN_ERROR"
)

// Error is the typed failure returned by every lifecycle operation.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ErrInvalidConfiguration builds an INVALID_CONFIGURATION error.
func ErrInvalidConfiguration(message string) *Error {
	return &Error{Code: CodeInvalidConfiguration, Message: message}
}

// ErrActivityNotFound is returned when no active record exists for the id.
// It deliberately conflates "never existed" and "already ended".
func ErrActivityNotFound(id string) *Error {
	return &Error{Code: CodeActivityNotFound, Message: fmt.Sprintf("activity %q not found", id)}
}

// ErrAlreadyStarted is returned when the id is currently active.
func ErrAlreadyStarted(id string) *Error {
	return &Error{Code: CodeAlreadyStarted, Message: fmt.Sprintf("activity %q is already started", id)}
}

// ErrSystemNotSupported indicates the platform lacks live activity support.
func ErrSystemNotSupported() *Error {
	return &Error{Code: CodeSystemNotSupported, Message: "live activities are not supported on this system"}
}

// ErrPermissionDenied indicates missing OS-level notification authorization.
func ErrPermissionDenied() *Error {
	return &Error{Code: CodePermissionDenied, Message: "notification permission denied"}
}

// ErrUnknown wraps an unclassified failure, including violated internal invariants.
func ErrUnknown(message string, cause error) *Error {
	return &Error{Code: CodeUnknown, Message: message, Cause: cause}
}

// AsError coerces any error into a *Error, wrapping foreign errors as UNKNOWN_ERROR.
func AsError(err error) *Error {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &Error{Code: CodeUnknown, Message: err.Error(), Cause: err}
}

// CodeOf extracts the ErrorCode from err, returning CodeUnknown for foreign errors.
func CodeOf(err error) ErrorCode {
	return AsError(err).Code
}
