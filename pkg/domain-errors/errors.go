// Package dErrors provides coded domain errors. Services construct these at
// the point of failure; transport layers translate codes into HTTP statuses
// without inspecting message text.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain failure. Codes are part of the API surface:
// callers branch on codes, never on message strings.
type Code string

const (
	// CodeInvalidInput marks malformed or out-of-range arguments: non-positive
	// amounts, empty required text, implausible vintage years, self-transfers.
	CodeInvalidInput Code = "invalid_input"
	// CodeBadRequest marks requests the transport layer could not parse.
	CodeBadRequest Code = "bad_request"
	// CodeNotFound marks lookups of projects that do not exist.
	CodeNotFound Code = "not_found"
	// CodeUnauthorized marks issuer mismatches and failed authentication.
	CodeUnauthorized Code = "unauthorized"
	// CodeInsufficientBalance marks consume requests exceeding the owner's
	// active holdings.
	CodeInsufficientBalance Code = "insufficient_balance"
	// CodeOverflow marks additions that would exceed the representable range
	// of an amount or counter.
	CodeOverflow Code = "overflow"
	// CodeAlreadyInitialized marks a duplicate ledger init.
	CodeAlreadyInitialized Code = "already_initialized"
	// CodeConflict marks state conflicts not covered by a more specific code.
	CodeConflict Code = "conflict"
	// CodeInternal marks unexpected infrastructure failures.
	CodeInternal Code = "internal"
)

// Error is a domain error with a stable code and a human-readable message.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a domain error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error, preserving the
// chain for errors.Is / errors.As.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// Is is an alias for HasCode kept for call-site readability:
// dErrors.Is(err, dErrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf extracts the code from err, or CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
