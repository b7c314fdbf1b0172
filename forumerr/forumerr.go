// Package forumerr is the failure taxonomy shared by every threadbot package.
//
// Failures are values of a single type, *Error, discriminated by Kind. The
// set of kinds is closed: callers switch on KindOf(err) instead of probing
// for concrete error types.
package forumerr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind uint8

const (
	// Unknown is reported by KindOf for errors that did not originate here.
	Unknown Kind = iota
	// Validation: a caller-supplied argument violates a precondition.
	Validation
	// Navigation: the page driver could not reach a URL.
	Navigation
	// Parse: a reached page does not have the expected shape.
	Parse
	// NotFound: the reached page is an explicit "not found" page.
	NotFound
	// Submission: a form navigated but the forum rejected it.
	Submission
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Navigation:
		return "navigation"
	case Parse:
		return "parse"
	case NotFound:
		return "not_found"
	case Submission:
		return "submission"
	}
	return "unknown"
}

// HTTPStatus maps a kind to the status code the HTTP surface answers with.
func (k Kind) HTTPStatus() int {
	switch k {
	case Validation:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Submission:
		return http.StatusUnprocessableEntity
	case Navigation, Parse:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error is a classified failure. Op names the operation that detected it
// ("post.Parse", "forum.Login", ...).
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Is reports whether err carries the given kind.
func Is(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

func newf(k Kind, op, format string, args ...any) *Error {
	return &Error{Kind: k, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Validationf builds a Validation failure.
func Validationf(op, format string, args ...any) error {
	return newf(Validation, op, format, args...)
}

// Parsef builds a Parse failure.
func Parsef(op, format string, args ...any) error {
	return newf(Parse, op, format, args...)
}

// NotFoundf builds a NotFound failure.
func NotFoundf(op, format string, args ...any) error {
	return newf(NotFound, op, format, args...)
}

// Submissionf builds a Submission failure.
func Submissionf(op, format string, args ...any) error {
	return newf(Submission, op, format, args...)
}

// NavigationErr wraps a driver failure for url.
func NavigationErr(op, url string, err error) error {
	return &Error{Kind: Navigation, Op: op, Msg: url, Err: err}
}
