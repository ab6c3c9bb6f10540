// Package apperr defines the error taxonomy shared by the core packages.
//
// Every error surfaced by the registry, ledger, proofs and identity packages
// carries a stable Kind so that transports can map it to a status code without
// inspecting messages.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	// KindValidation is malformed or missing input, caught before any mutation.
	KindValidation
	// KindNotAuthorized means the actor failed an authorization rule.
	KindNotAuthorized
	// KindNotFound means a referenced entity does not exist.
	KindNotFound
	// KindConflict means the request clashes with current state.
	KindConflict
	// KindUnavailable means storage or another upstream could not be reached.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotAuthorized:
		return "not_authorized"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// Error is a classified error with a human-readable message.
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

// New returns a classified error.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Validation returns a KindValidation error with a formatted message.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

// Unavailable wraps an upstream failure (storage, credential layer).
func Unavailable(op string, err error) error {
	return &Error{Kind: KindUnavailable, Msg: op, Err: err}
}

// KindOf returns the kind of the first classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

var (
	ErrNotAuthorized      = New(KindNotAuthorized, "not authorized to perform this operation")
	ErrNotPartOfExpense   = New(KindNotAuthorized, "you are not part of this expense")
	ErrInvalidCredentials = New(KindNotAuthorized, "invalid email or password")

	ErrUserNotFound    = New(KindNotFound, "user not found")
	ErrGroupNotFound   = New(KindNotFound, "group not found with this code")
	ErrNotInGroup      = New(KindNotFound, "you are not in any group")
	ErrExpenseNotFound = New(KindNotFound, "expense not found")

	ErrAlreadyInGroup     = New(KindConflict, "you are already in a group")
	ErrAlreadyMember      = New(KindConflict, "you are already a member of this group")
	ErrGroupFull          = New(KindConflict, "group is full")
	ErrCodeSpaceExhausted = New(KindConflict, "could not allocate a unique group code")
	ErrEmailExists        = New(KindConflict, "user already exists with this email")
	ErrRoleSticky         = New(KindConflict, "a representative cannot change role")

	ErrVerifierUnavailable = New(KindUnavailable, "payment verification is not available")
)
