package utils

import "errors"

// ErrorKind classifies failures so the HTTP boundary can map each kind to a
// status code in one place instead of per handler.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindDuplicate
	KindUnauthorized
	KindForbidden
	KindNotFound
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "internal error"
}

func (e *Error) Unwrap() error { return e.Err }

func NewValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func NewDuplicateError(message string) *Error {
	return &Error{Kind: KindDuplicate, Message: message}
}

func NewUnauthorizedError(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func NewForbiddenError(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewInternalError(err error) *Error {
	return &Error{Kind: KindInternal, Err: err}
}

// KindOf returns the kind carried by err, or KindInternal for plain errors.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

var ErrorRecordNotFound = NewNotFoundError("record not found")
