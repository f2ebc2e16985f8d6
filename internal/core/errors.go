package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can branch without matching message text.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindStore             Kind = "store"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
	KindInconsistentCache Kind = "inconsistent_cache"
	KindInternal          Kind = "internal"
)

// Error is the tagged failure returned across the core boundary.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	} else if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, so errors.Is(err, &Error{Kind: KindNotFound}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Msg == "" && t.Err == nil
}

// Validation builds a validation failure with a formatted message.
func Validation(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Invalid wraps a validation sentinel such as ErrInvalidMonth.
func Invalid(op string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// StoreFailure wraps a backend failure.
func StoreFailure(op string, err error) *Error {
	return &Error{Kind: KindStore, Op: op, Err: err}
}

// NotFound reports a missing entity.
func NotFound(op, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Conflict reports a mutation that cannot proceed in the current state.
func Conflict(op, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InconsistentCache reports a rollback whose target is no longer in the cache.
func InconsistentCache(op, format string, args ...any) *Error {
	return &Error{Kind: KindInconsistentCache, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
