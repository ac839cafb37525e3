// Package dErrors provides coded domain errors.
//
// Expected business failures (bad input, missing records, insufficient funds)
// carry a machine-readable Code so callers can branch without string matching.
// Infrastructure faults should be wrapped with fmt.Errorf("%w") instead and
// only translated into a coded error at a service boundary.
package dErrors

import (
	"errors"
	"fmt"
)

// Code identifies a class of expected domain failure.
type Code string

const (
	CodeInvalidInput       Code = "invalid_input"
	CodeNotFound           Code = "not_found"
	CodeForbidden          Code = "forbidden"
	CodeConflict           Code = "conflict"
	CodeInsufficientFunds  Code = "insufficient_funds"
	CodeInvariantViolation Code = "invariant_violation"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
// The message is safe to surface to the caller verbatim.
type Error struct {
	Code    Code
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded domain error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf constructs a coded domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, cause: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsDomain reports whether err is a coded domain error at all. Handlers use
// this to decide between "show the message to the caller" and "log and return
// a generic failure".
func IsDomain(err error) bool {
	var de *Error
	return errors.As(err, &de)
}

// MessageOf returns the caller-safe message of a domain error, or the empty
// string when err carries no code.
func MessageOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return ""
}
