package service

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorNotFound      ErrorCode = "NOT_FOUND"
	ErrorValidation    ErrorCode = "VALIDATION_ERROR"
	ErrorCapacity      ErrorCode = "CAPACITY_EXCEEDED"
	ErrorConfiguration ErrorCode = "CONFIGURATION_ERROR"
	ErrorStore         ErrorCode = "STORE_FAILURE"
)

// Error is a coded service failure so controllers can map each code to
// an HTTP status without string matching.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("service: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("service: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf extracts the service error code, defaulting unknown errors to
// a store failure.
func CodeOf(err error) ErrorCode {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code
	}
	return ErrorStore
}
