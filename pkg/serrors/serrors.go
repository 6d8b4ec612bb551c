// Package serrors classifies errors by semantic kind. Storage, orchestration
// and authorization code attach a kind where the failure happens; the HTTP
// layer only looks at the kind to pick a status code.
package serrors

import (
	"errors"
	"fmt"
)

// Kind is a sentinel naming an error category. Only NewKind creates kinds.
type Kind interface {
	error
	isKind()
}

type kind struct{ s string }

func (k kind) Error() string { return k.s }
func (k kind) isKind()       {}

// NewKind creates a kind. Kinds compare by name.
func NewKind(name string) Kind { return kind{s: name} }

var (
	ErrNotFound     = NewKind("NOT_FOUND")
	ErrUnauthorized = NewKind("UNAUTHORIZED")
	// ErrForbidden means the caller is known but not allowed.
	ErrForbidden  = NewKind("FORBIDDEN")
	ErrBadRequest = NewKind("BAD_REQUEST")
	ErrConflict   = NewKind("CONFLICT")
	ErrInternal   = NewKind("INTERNAL")
	ErrTimeout    = NewKind("TIMEOUT")
	// ErrUnavailable marks a dependency that could not be reached, such as
	// the authorization service or a scan tool.
	ErrUnavailable = NewKind("UNAVAILABLE")
	ErrRateLimited = NewKind("RATE_LIMITED")
)

// Kinds lists the predefined kinds.
var Kinds = []Kind{ //nolint: gochecknoglobals
	ErrNotFound,
	ErrUnauthorized,
	ErrForbidden,
	ErrBadRequest,
	ErrConflict,
	ErrInternal,
	ErrTimeout,
	ErrUnavailable,
	ErrRateLimited,
}

// Error carries a kind, an optional cause and an optional message.
// errors.Is and errors.As match both the kind and anything in the cause chain.
//
// Error() renders "msg: cause", falling back to whichever of the two is set
// and finally to the kind name.
type Error struct {
	kind Kind
	err  error
	msg  string
}

// With creates an error of kind k with a formatted message.
func With(k Kind, msgFmt string, args ...any) *Error {
	return &Error{kind: k, msg: fmt.Sprintf(msgFmt, args...)}
}

// Wrap creates an error of kind k around err with a formatted message.
func Wrap(k Kind, err error, msgFmt string, args ...any) *Error {
	return &Error{kind: k, err: err, msg: fmt.Sprintf(msgFmt, args...)}
}

// KindOnly creates an error that carries nothing but k.
func KindOnly(k Kind) *Error { return &Error{kind: k} }

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}

	switch {
	case e.msg != "" && e.err != nil:
		return e.msg + ": " + e.err.Error()
	case e.msg != "":
		return e.msg
	case e.err != nil:
		return e.err.Error()
	case e.kind != nil:
		return e.kind.Error()
	}

	return "unknown error"
}

func (e *Error) Unwrap() error { return e.err }

func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return e == nil && target == nil
	}

	return (e.kind != nil && errors.Is(e.kind, target)) ||
		(e.err != nil && errors.Is(e.err, target))
}

func (e *Error) As(target any) bool {
	if e == nil || target == nil {
		return false
	}

	return (e.kind != nil && errors.As(e.kind, target)) ||
		(e.err != nil && errors.As(e.err, target))
}

// Kind returns the kind, or nil.
func (e *Error) Kind() Kind { return e.kind }

// Message returns the message without the cause. It is safe to show to API
// callers.
func (e *Error) Message() string { return e.msg }

// Cause returns the wrapped error, or nil.
func (e *Error) Cause() error { return e.err }

// Kinded is implemented by error types that classify themselves.
type Kinded interface {
	Kind() Kind
}

// KindOf returns the first kind found in err's chain, or nil.
func KindOf(err error) Kind {
	if err == nil {
		return nil
	}

	var ke Kinded
	if errors.As(err, &ke) {
		if k := ke.Kind(); k != nil {
			return k
		}
	}

	var k Kind
	if errors.As(err, &k) {
		return k
	}

	return nil
}

// IsKind reports whether err carries kind k.
func IsKind(err error, k Kind) bool {
	return err != nil && errors.Is(err, k)
}
