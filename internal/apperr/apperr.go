// Package apperr defines the error taxonomy shared by the recorder and the
// reconciliation engine. Errors are classified by Kind so callers can branch
// with errors.Is against the exported sentinels regardless of wrapping.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInsufficientStock Kind = "insufficient_stock"
	KindRemoteUnavailable Kind = "remote_unavailable"
	KindConflictOnReplay  Kind = "conflict_on_replay"
)

// Sentinels for errors.Is checks.
var (
	ErrNotFound          = &Error{kind: KindNotFound, msg: "not found"}
	ErrInvalidInput      = &Error{kind: KindInvalidInput, msg: "invalid input"}
	ErrInsufficientStock = &Error{kind: KindInsufficientStock, msg: "insufficient stock"}
	ErrRemoteUnavailable = &Error{kind: KindRemoteUnavailable, msg: "remote service unavailable"}
	ErrConflictOnReplay  = &Error{kind: KindConflictOnReplay, msg: "conflict detected on replay"}
)

type Error struct {
	kind  Kind
	msg   string
	cause error
}

func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string {
	if e.cause != nil {
		return e.msg + ": " + e.cause.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so
// errors.Is(err, apperr.ErrNotFound) works across wrapped instances.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.kind == t.kind
	}
	return false
}

func NotFound(format string, args ...any) error {
	return &Error{kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func InvalidInput(format string, args ...any) error {
	return &Error{kind: KindInvalidInput, msg: fmt.Sprintf(format, args...)}
}

func InsufficientStock(format string, args ...any) error {
	return &Error{kind: KindInsufficientStock, msg: fmt.Sprintf(format, args...)}
}

func RemoteUnavailable(cause error, format string, args ...any) error {
	return &Error{kind: KindRemoteUnavailable, msg: fmt.Sprintf(format, args...), cause: cause}
}

func ConflictOnReplay(format string, args ...any) error {
	return &Error{kind: KindConflictOnReplay, msg: fmt.Sprintf(format, args...)}
}
