package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Data-source id errors
	ErrInvalidIDFormat = &Error{Code: "INVALID_ID_FORMAT", Message: "malformed data source id"}
	ErrUnknownSource   = &Error{Code: "UNKNOWN_SOURCE", Message: "no fetcher registered for source"}
	ErrDuplicateSource = &Error{Code: "DUPLICATE_SOURCE", Message: "source already registered"}

	// Remote fetch errors
	ErrRemoteAPI = &Error{Code: "REMOTE_API", Message: "remote api request failed"}

	// Storage errors
	ErrNotFound           = &Error{Code: "NOT_FOUND", Message: "file not found"}
	ErrMalformedShard     = &Error{Code: "MALFORMED_SHARD", Message: "shard file failed schema validation"}
	ErrStorageUnavailable = &Error{Code: "STORAGE_UNAVAILABLE", Message: "no persistence backend configured"}
)
