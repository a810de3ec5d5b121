package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can map it to a transport response
type Kind string

const (
	KindNotFound   Kind = "not_found"
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindAuth       Kind = "auth"
	KindPayment    Kind = "payment"
)

// Sentinels for errors.Is matching on kind
var (
	ErrNotFound   = &Error{Kind: KindNotFound}
	ErrValidation = &Error{Kind: KindValidation}
	ErrConflict   = &Error{Kind: KindConflict}
	ErrAuth       = &Error{Kind: KindAuth}
	ErrPayment    = &Error{Kind: KindPayment}
)

// Error is a business failure carrying a human-readable message
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches any *Error of the same kind, so errors.Is(err, ErrConflict) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *Error   { return newf(KindNotFound, format, args...) }
func Validationf(format string, args ...any) *Error { return newf(KindValidation, format, args...) }
func Conflictf(format string, args ...any) *Error   { return newf(KindConflict, format, args...) }
func Authf(format string, args ...any) *Error       { return newf(KindAuth, format, args...) }
func Paymentf(format string, args ...any) *Error    { return newf(KindPayment, format, args...) }

// Wrap attaches a cause to a business error while keeping its kind and message
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.cause = cause
	return e
}

// KindOf returns the kind of the first *Error in the chain, or "" for unclassified errors
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
