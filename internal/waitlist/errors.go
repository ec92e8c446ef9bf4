package waitlist

import (
	"errors"
	"fmt"
)

// Kind classifies an error for the transport layer.
type Kind string

const (
	KindValidation Kind = "validation_error"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindStorage    Kind = "database_error"
)

// Error is the error type returned by every waitlist operation.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func conflictError(message string, err error) *Error {
	return &Error{Kind: KindConflict, Message: message, Err: err}
}

func storageError(message string, err error) *Error {
	return &Error{Kind: KindStorage, Message: message, Err: err}
}

// KindOf returns the kind of err, or KindStorage for errors that did not
// originate here.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func IsValidation(err error) bool { return err != nil && KindOf(err) == KindValidation }

func IsNotFound(err error) bool { return err != nil && KindOf(err) == KindNotFound }

func IsStorage(err error) bool { return err != nil && KindOf(err) == KindStorage }

func IsConflict(err error) bool { return err != nil && KindOf(err) == KindConflict }
