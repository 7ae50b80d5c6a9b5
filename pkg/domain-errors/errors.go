// Package dErrors provides coded domain errors.
//
// Services translate store sentinels and invariant violations into coded
// errors; the HTTP layer maps codes onto statuses without inspecting message
// text. Details carry structured context (remaining capacity, conflicting
// beneficiary) so callers can render precise messages.
package dErrors

import (
	"errors"
	"fmt"
)

// Code classifies an error for transport mapping and recovery decisions.
type Code string

const (
	// CodeInvalidInput marks malformed or missing caller input rejected
	// before any persistence access.
	CodeInvalidInput Code = "invalid_input"

	// CodeValidation marks input that parsed but violates a business rule.
	CodeValidation Code = "validation"

	// CodeConflict marks a request that collides with existing state, such
	// as a beneficiary that already holds an allocation on the asset.
	CodeConflict Code = "conflict"

	// CodeCapacity marks an allocation that would push the asset past the
	// 100% ceiling.
	CodeCapacity Code = "capacity_exceeded"

	// CodeNotFound marks a reference to a record that does not exist.
	CodeNotFound Code = "not_found"

	// CodeInvariantViolation marks a broken aggregate invariant. Surfaced
	// to callers as validation or conflict, never raw.
	CodeInvariantViolation Code = "invariant_violation"

	// CodeInternal marks persistence or infrastructure failure. Descriptions
	// are suppressed at the transport boundary.
	CodeInternal Code = "internal"
)

// Error is a coded error with optional structured details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// New constructs a coded error.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap annotates err with a code and message while preserving the cause chain.
func Wrap(err error, code Code, message string) *Error {
	return &Error{Code: code, Message: message, cause: err}
}

// WithDetail attaches a structured detail field and returns the error for
// chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost coded error, or CodeInternal when
// the error carries no code.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// DetailsOf returns the structured details of the outermost coded error.
func DetailsOf(err error) map[string]any {
	var de *Error
	if errors.As(err, &de) {
		return de.Details
	}
	return nil
}
