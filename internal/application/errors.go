package application

import (
	"errors"
	"fmt"
)

// Kind classifies flow outcomes into the closed taxonomy the handlers map to
// HTTP statuses. Flows return these instead of leaking store internals.
type Kind int

const (
	KindUnknown Kind = iota
	KindConflict
	KindNotFound
	KindUnauthorized
	KindValidation
	KindServiceFailure
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindValidation:
		return "validation"
	case KindServiceFailure:
		return "service_failure"
	}
	return "unknown"
}

// Error is a flow outcome with a classification and an operator-facing cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match on sentinel *Error values and on kind-only probes.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" && t.Message != e.Message {
		return false
	}
	return t.Kind == e.Kind
}

func conflictErr(msg string) *Error           { return &Error{Kind: KindConflict, Message: msg} }
func notFoundErr(msg string) *Error           { return &Error{Kind: KindNotFound, Message: msg} }
func unauthorizedErr(msg string) *Error       { return &Error{Kind: KindUnauthorized, Message: msg} }
func validationErr(msg string) *Error         { return &Error{Kind: KindValidation, Message: msg} }
func serviceErr(msg string, cause error) *Error {
	return &Error{Kind: KindServiceFailure, Message: msg, Cause: cause}
}

// KindOf extracts the classification, defaulting to KindUnknown for errors
// that escaped the taxonomy.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ErrVerificationResent is the distinguished conflict returned when
// registration hits an existing unverified account: no new account was made,
// but a fresh verification email went out.
var ErrVerificationResent = &Error{
	Kind:    KindConflict,
	Message: "account exists but is not verified; a new verification email has been sent",
}
