// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Forgeline Contributors

// Package apperr defines the caller-facing error taxonomy.
//
// Services build failures with oops (codes plus context) and wrap an *Error
// when the failure is operational, meaning its message may be shown to the
// caller verbatim. The HTTP edge recovers the *Error with errors.As; anything
// else is treated as KindInternal and answered with a generic message.
package apperr

import (
	"errors"
	"net/http"
	"strings"
)

// Repository sentinels. Implementations wrap these so services can match
// with errors.Is regardless of the backing store.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when an insert or update violates a unique constraint.
	ErrDuplicateKey = errors.New("duplicate key")
)

// GenericMessage is what callers see for internal failures.
const GenericMessage = "Something went wrong! Please try again later."

// Kind classifies an error for presentation.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindDuplicateKey
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindTooManyRequests
)

var kindNames = map[Kind]string{
	KindInternal:        "internal",
	KindValidation:      "validation",
	KindDuplicateKey:    "duplicate_key",
	KindUnauthorized:    "unauthorized",
	KindForbidden:       "forbidden",
	KindNotFound:        "not_found",
	KindTooManyRequests: "too_many_requests",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateKey:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Operational reports whether errors of this kind are expected user-facing
// failures rather than faults.
func (k Kind) Operational() bool {
	return k != KindInternal
}

// Error is an operational failure with a message safe to return to callers.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New creates an operational error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Validation creates a KindValidation error. Multiple messages are joined
// with ", " the way field validation failures are reported.
func Validation(messages ...string) *Error {
	return New(KindValidation, strings.Join(messages, ", "))
}

// DuplicateKey creates a KindDuplicateKey error.
func DuplicateKey(message string) *Error {
	return New(KindDuplicateKey, message)
}

// Unauthorized creates a KindUnauthorized error.
func Unauthorized(message string) *Error {
	return New(KindUnauthorized, message)
}

// Forbidden creates a KindForbidden error.
func Forbidden(message string) *Error {
	return New(KindForbidden, message)
}

// NotFound creates a KindNotFound error.
func NotFound(message string) *Error {
	return New(KindNotFound, message)
}

// TooManyRequests creates a KindTooManyRequests error.
func TooManyRequests(message string) *Error {
	return New(KindTooManyRequests, message)
}

// Classify returns the kind and caller-facing message for err.
// Errors without an *Error in their chain are internal.
func Classify(err error) (Kind, string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind, appErr.Message
	}
	return KindInternal, GenericMessage
}

// KindOf returns the kind of err.
func KindOf(err error) Kind {
	kind, _ := Classify(err)
	return kind
}

// Is reports whether err carries an operational error of the given kind.
func Is(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
