// Package domainerrors provides coded domain errors.
//
// Services return these so transports can translate failures into stable
// wire responses without string matching. Infrastructure layers keep using
// pkg/platform/sentinel; services translate sentinel errors into coded
// errors at the boundary.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error.
type Code string

const (
	// CodeInvalidInput marks malformed values rejected at a trust boundary.
	CodeInvalidInput Code = "invalid_input"
	// CodeValidation marks request payloads that fail field validation.
	CodeValidation Code = "validation_failed"
	// CodeBadRequest marks structurally unusable requests.
	CodeBadRequest Code = "bad_request"
	// CodeUnauthorized marks requests without a valid caller identity.
	CodeUnauthorized Code = "unauthorized"
	// CodeForbidden marks callers acting outside their role in a transfer.
	CodeForbidden Code = "forbidden"
	// CodeNotFound marks missing transfers, fowls, or notifications.
	CodeNotFound Code = "not_found"
	// CodeConflict marks operations invalid for the record's current state.
	CodeConflict Code = "conflict"
	// CodeDuplicateTransfer marks an initiate attempt while the fowl already
	// has an active transfer.
	CodeDuplicateTransfer Code = "duplicate_active_transfer"
	// CodeOwnership marks an initiate attempt by a caller who does not own
	// the fowl per the asset registry.
	CodeOwnership Code = "not_owner"
	// CodeInvariantViolation marks a domain invariant breach detected by a
	// model method. Services usually translate it to CodeConflict.
	CodeInvariantViolation Code = "invariant_violation"
	// CodePartialCompletion marks a transfer that reached COMPLETED while the
	// registry owner update failed. Requires external reconciliation.
	CodePartialCompletion Code = "partial_completion"
	// CodeInternal marks store or downstream failures.
	CodeInternal Code = "internal_error"
)

// Error is a coded domain error. The wrapped cause, when present, is
// reachable through errors.Unwrap for logging; the code and message are the
// caller-visible contract.
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

func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a coded error without a cause.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
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

// CodeOf extracts the code from err, defaulting to CodeInternal for
// uncoded errors.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// ToHTTPStatus maps a code to the HTTP status used by the JSON error
// envelope.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeInvalidInput, CodeValidation, CodeBadRequest:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden, CodeOwnership:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeDuplicateTransfer, CodeInvariantViolation:
		return http.StatusConflict
	case CodePartialCompletion, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
