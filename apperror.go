package calc

import (
	"errors"
	"fmt"
)

// AppErrorCode classifies host-level failures with a subset of the gRPC
// status codes. these never appear inside cells.
type AppErrorCode int

const (
	OK AppErrorCode = 0
	// Unknown is used for failures that carry no better classification
	Unknown AppErrorCode = 2
	// InvalidArgument covers malformed configuration, declarations and
	// catalog files
	InvalidArgument AppErrorCode = 3
	// NotFound covers missing sheets, config files and built-ins
	NotFound AppErrorCode = 5
	// AlreadyExists covers duplicate sheets, names and registrations
	AlreadyExists AppErrorCode = 6
	// FailedPrecondition means the object is in the wrong state, e.g. an
	// updater that was already applied
	FailedPrecondition AppErrorCode = 9
	Internal           AppErrorCode = 13
)

var appErrorCodeNames = map[AppErrorCode]string{
	OK:                 "OK",
	Unknown:            "UNKNOWN",
	InvalidArgument:    "INVALID_ARGUMENT",
	NotFound:           "NOT_FOUND",
	AlreadyExists:      "ALREADY_EXISTS",
	FailedPrecondition: "FAILED_PRECONDITION",
	Internal:           "INTERNAL",
}

func (c AppErrorCode) String() string {
	if name, ok := appErrorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CODE(%d)", int(c))
}

// AppError is a host-level failure with an optional cause
type AppError struct {
	Code    AppErrorCode
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *AppError) Unwrap() error { return e.Err }

// NewApplicationError creates an AppError without a cause
func NewApplicationError(code AppErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func wrapApplicationError(code AppErrorCode, err error, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf returns the code of the first AppError in err's chain, OK for nil
// and Unknown for any other error
func CodeOf(err error) AppErrorCode {
	if err == nil {
		return OK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Unknown
}
