// Package domainerrors provides coded errors for the registry and ledger
// engines. Services return these so transport layers can map failures to
// responses without inspecting error strings.
//
// The split with pkg/platform/sentinel: stores and infrastructure return
// sentinel errors describing factual resource states; services translate
// them into coded domain errors that name the violated contract.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain failure.
type Code string

const (
	// CodeValidation marks a missing or malformed required field, detected
	// before any mutation.
	CodeValidation Code = "validation"
	// CodeNotFound marks a referenced entity that does not exist.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition marks a state-machine guard failure: the request
	// was already approved or rejected.
	CodeInvalidTransition Code = "invalid_transition"
	// CodeAlreadySettled marks a payment against a mandatory fee whose
	// remaining balance is zero.
	CodeAlreadySettled Code = "already_settled"
	// CodeAmountExceedsRemaining marks a payment larger than the remaining
	// balance of a mandatory fee.
	CodeAmountExceedsRemaining Code = "amount_exceeds_remaining"
	// CodeInvalidAmend marks an amendment that would push the paid total
	// outside [0, expected].
	CodeInvalidAmend Code = "invalid_amend"
	// CodeDuplicateResident marks a national-ID collision on move-in.
	CodeDuplicateResident Code = "duplicate_resident"
	// CodeInactiveFeeType marks a payment against a fee type outside its
	// activity window or flagged inactive.
	CodeInactiveFeeType Code = "inactive_fee_type"
	// CodeInvariantViolation marks state that should be unreachable. It
	// indicates a bug; the enclosing transaction must abort, never repair.
	CodeInvariantViolation Code = "invariant_violation"

	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// Error is a coded domain error, optionally wrapping a cause.
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

func (e *Error) Unwrap() error { return e.Err }

// New creates a coded domain error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded domain error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap annotates a cause with a code and message while keeping the chain
// intact for errors.Is / errors.As.
func Wrap(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: message, Err: err}
}

// HasCode reports whether err (or anything it wraps) carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.Code == code {
			return true
		}
		err = de.Err
		de = nil
	}
	return false
}

// Is is shorthand for HasCode, matching call sites that read like errors.Is.
func Is(err error, code Code) bool { return HasCode(err, code) }

// CodeOf returns the outermost code carried by err, or CodeInternal when err
// carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a domain error code to an HTTP status for transport
// layers. Unknown codes map to 500 so bugs surface loudly.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeValidation, CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTransition, CodeConflict, CodeDuplicateResident:
		return http.StatusConflict
	case CodeAlreadySettled, CodeAmountExceedsRemaining, CodeInvalidAmend, CodeInactiveFeeType:
		return http.StatusUnprocessableEntity
	case CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
