package services

import "errors"

type ErrorKind int

const (
	KindBadRequest = ErrorKind(iota)
	KindForbidden
	KindNotFound
)

// Error is the only error type chat operations raise on their own behalf;
// anything else bubbling out of a store is a plain persistence failure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewBadRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func NewForbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func KindOf(err error) (ErrorKind, bool) {
	var out *Error
	if errors.As(err, &out) {
		return out.Kind, true
	}
	return 0, false
}
