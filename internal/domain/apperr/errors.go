// Package apperr defines the error kinds shared by services, repositories and
// HTTP handlers.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for translation at the request boundary.
type Kind int

const (
	Internal Kind = iota
	Validation
	Conflict
	NotFound
	Auth
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Conflict:
		return "conflict"
	case NotFound:
		return "not_found"
	case Auth:
		return "auth"
	default:
		return "internal"
	}
}

// Error carries a kind, a client-safe message and optional field details.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, apperr.ErrNotFound) works.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Message == "" && t.Kind == e.Kind
}

// Sentinels for errors.Is comparisons.
var (
	ErrValidation = &Error{Kind: Validation}
	ErrConflict   = &Error{Kind: Conflict}
	ErrNotFound   = &Error{Kind: NotFound}
	ErrAuth       = &Error{Kind: Auth}
)

func NewValidation(msg string, details map[string]string) *Error {
	return &Error{Kind: Validation, Message: msg, Details: details}
}

func NewConflict(msg string, err error) *Error {
	return &Error{Kind: Conflict, Message: msg, Err: err}
}

func NewNotFound(msg string) *Error {
	return &Error{Kind: NotFound, Message: msg}
}

func NewAuth(msg string, err error) *Error {
	return &Error{Kind: Auth, Message: msg, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, Internal otherwise.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// MessageOf returns the client-safe message of err, or fallback for internal errors.
func MessageOf(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}

// DetailsOf returns field details attached to err, if any.
func DetailsOf(err error) map[string]string {
	var e *Error
	if errors.As(err, &e) {
		return e.Details
	}
	return nil
}
