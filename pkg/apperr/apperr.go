// Package apperr defines the error taxonomy shared by every service layer.
// Services translate storage and crypto failures into these kinds at their
// boundary; the HTTP surface maps kinds to status codes in one place and
// never leaks driver-specific detail to clients.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers and for the HTTP status mapping.
type Kind int

const (
	// Internal is the zero value: unexpected failure, generic message only.
	Internal Kind = iota
	// Invalid marks malformed input or a policy violation.
	Invalid
	// Unauthenticated marks a missing or bad credential.
	Unauthenticated
	// Forbidden marks an authenticated caller acting outside its scope.
	Forbidden
	// NotFound marks a missing entity.
	NotFound
	// Conflict marks a state-machine violation or business-level duplicate.
	Conflict
	// AlreadyExists is the unique-field case of Conflict.
	AlreadyExists
	// Expired marks a credential or token past its TTL.
	Expired
	// Revoked marks a credential withdrawn server-side.
	Revoked
	// Timeout marks a query- or request-level deadline firing.
	Timeout
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case AlreadyExists:
		return "already_exists"
	case Expired:
		return "expired"
	case Revoked:
		return "revoked"
	case Timeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Error is a classified error with a client-safe message. Err, when set,
// carries the underlying cause for logs only.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// E creates a classified error.
func E(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Ef creates a classified error with a formatted message.
func Ef(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap classifies an underlying error. The message is what clients may see;
// err stays internal.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, walking the wrap chain.
// Unclassified errors are Internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Message returns the client-safe message for err. Internal errors get a
// generic message; the cause goes to the logger only.
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != Internal {
		return ae.Msg
	}
	return "internal server error"
}
