package engine

import (
	"errors"
	"net/http"
)

// Kind classifies operation failures. Handlers map kinds to status codes;
// only KindDependency on a commit path triggers compensation.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindInvalid     Kind = "invalid_state"
	KindEligibility Kind = "eligibility_denied"
	KindForbidden   Kind = "forbidden"
	KindValidation  Kind = "validation"
	KindDependency  Kind = "dependency_failure"
	KindConflict    Kind = "conflict"
)

type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func errNotFound(msg string) error    { return &Error{Kind: KindNotFound, Msg: msg} }
func errInvalid(msg string) error     { return &Error{Kind: KindInvalid, Msg: msg} }
func errEligibility(msg string) error { return &Error{Kind: KindEligibility, Msg: msg} }
func errForbidden(msg string) error   { return &Error{Kind: KindForbidden, Msg: msg} }
func errValidation(msg string) error  { return &Error{Kind: KindValidation, Msg: msg} }
func errConflict(msg string) error    { return &Error{Kind: KindConflict, Msg: msg} }

func errDependency(msg string, cause error) error {
	return &Error{Kind: KindDependency, Msg: msg, Err: cause}
}

// KindOf returns the taxonomy kind of err, or KindDependency for errors that
// did not originate in the engine (storage failures and the like).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindDependency
}

// MessageOf returns the user-facing message for err. Unclassified errors get
// a generic message; the detail stays in the logs.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Msg
	}
	return "Something went wrong. Please try again."
}

// StatusOf maps an operation error to the HTTP status code the surface
// returns for it.
func StatusOf(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid, KindValidation:
		return http.StatusBadRequest
	case KindEligibility, KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
