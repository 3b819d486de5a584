// internal/apperr/errors.go
// Structured error kinds for the tournament engine. Handlers at the edge
// (outside this module's scope) use errors.As to recover the kind and
// decide how to present it; nothing in this package knows about HTTP.

package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error the way callers need to branch on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindPermission Kind = "permission"
	KindIntegrity  Kind = "integrity"
	KindExternal   Kind = "external"
	KindInternal   Kind = "internal"
)

// Error is the engine's structured error type. Every engine-raised error
// is wrapped in this type so a caller can errors.As(err, &apperr.Error{})
// and branch on Kind without string-matching messages.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Field   string
	EntityID string
	Err     error
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Validation constructs a KindValidation error with a stable code.
func Validation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// ValidationField attaches a field name and entity id to a validation error.
func ValidationField(code, message, field, entityID string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message, Field: field, EntityID: entityID}
}

// Conflict constructs a KindConflict error, used for optimistic-concurrency
// version mismatches on Heat and EventResult writes.
func Conflict(message string) *Error {
	return &Error{Kind: KindConflict, Code: "CONFLICT", Message: message}
}

// NotFound constructs a KindNotFound error.
func NotFound(entityType, entityID string) *Error {
	return &Error{
		Kind:     KindNotFound,
		Code:     "NOT_FOUND",
		Message:  fmt.Sprintf("%s %s not found", entityType, entityID),
		EntityID: entityID,
	}
}

// Permission constructs a KindPermission error.
func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Code: "PERMISSION_DENIED", Message: message}
}

// Integrity wraps a unique-constraint violation surfaced from the store.
// Per spec, these are treated identically to Conflict by callers.
func Integrity(message string, err error) *Error {
	return &Error{Kind: KindIntegrity, Code: "INTEGRITY_VIOLATION", Message: message, Err: err}
}

// External wraps a failure in a collaborator outside the engine's
// boundary (spreadsheet parse, SMS dispatch, malware scan).
func External(message string, err error) *Error {
	return &Error{Kind: KindExternal, Code: "EXTERNAL_FAILURE", Message: message, Err: err}
}

// Internal wraps an unexpected error for structured logging without
// leaking details to the caller.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: "INTERNAL_ERROR", Message: "an internal error occurred", Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// Common sentinel errors for cases that don't need structured payloads.
var (
	ErrNoRows = errors.New("no rows affected")
)
