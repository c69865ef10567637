// Package apperrors defines the typed error kinds used across the core and
// their mapping onto HTTP status codes, grounded on the teacher's
// pkg/common/errors.ErrorType/AdapterError pattern and narrowed to the
// kinds this domain actually needs (spec.md §7).
package apperrors

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is the closed set of error kinds callers branch on.
type Kind string

const (
	KindNotFound         Kind = "NOT_FOUND"
	KindBadInput         Kind = "BAD_INPUT"
	KindIndexUnavailable Kind = "INDEX_UNAVAILABLE"
	KindStoreUnavailable Kind = "STORE_UNAVAILABLE"
	KindFatalCache       Kind = "FATAL_CACHE_ERROR"
)

// Error wraps an underlying cause with a Kind and an operation label.
type Error struct {
	Kind      Kind
	Operation string
	Cause     error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Operation, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Operation, e.Kind)
}

// Unwrap allows errors.Is/As to see through to Cause.
func (e *Error) Unwrap() error { return e.Cause }

// New builds a new Error, wrapping cause with errors.Wrap for a stack trace
// when non-nil.
func New(kind Kind, operation string, cause error) *Error {
	if cause != nil {
		cause = errors.Wrap(cause, operation)
	}
	return &Error{Kind: kind, Operation: operation, Cause: cause}
}

// NotFound, BadInput, IndexUnavailable, StoreUnavailable, FatalCache are
// convenience constructors for the five kinds above.
func NotFound(op string, cause error) *Error         { return New(KindNotFound, op, cause) }
func BadInput(op string, cause error) *Error         { return New(KindBadInput, op, cause) }
func IndexUnavailable(op string, cause error) *Error { return New(KindIndexUnavailable, op, cause) }
func StoreUnavailable(op string, cause error) *Error { return New(KindStoreUnavailable, op, cause) }
func FatalCache(op string, cause error) *Error       { return New(KindFatalCache, op, cause) }

// Is reports whether err (or anything it wraps) is an *Error of kind k.
func Is(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

// HTTPStatus maps an error (typed or not) onto the HTTP status code §7
// prescribes. Untyped errors default to 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindBadInput:
		return http.StatusBadRequest
	case KindIndexUnavailable, KindStoreUnavailable, KindFatalCache:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
