package export

import (
	"errors"
	"fmt"
)

// ErrorKind classifies engine failures.
type ErrorKind string

const (
	KindValidation   ErrorKind = "ValidationError"
	KindEmptyResult  ErrorKind = "EmptyResultError"
	KindStorageWrite ErrorKind = "StorageWriteError"
	KindWriter       ErrorKind = "WriterError"
	KindJobNotFound  ErrorKind = "JobNotFoundError"
	KindJobFailed    ErrorKind = "JobFailedError"
	KindSecurity     ErrorKind = "SecurityError"
	KindConflict     ErrorKind = "ConflictError"
	KindInternal     ErrorKind = "InternalError"
)

// accessDenied is the only message a SecurityError ever carries.
const accessDenied = "access denied"

// Error is the typed error returned at the engine boundary.
type Error struct {
	Kind    ErrorKind
	Message string
	// Hint is an optional user-actionable suggestion.
	Hint string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind != KindSecurity {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func securityError(err error) *Error {
	return &Error{Kind: KindSecurity, Message: accessDenied, Err: err}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
