package backend

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies booking service failures.
type ErrorKind string

const (
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
	KindOther      ErrorKind = "other"
)

// Error is a classified booking service failure.
type Error struct {
	Kind    ErrorKind
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (http %d): %s", e.Op, e.Kind, e.Status, msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err; unclassified errors are KindOther.
func KindOf(err error) ErrorKind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindOther
}

// IsConflict reports whether err means the slot was taken.
func IsConflict(err error) bool {
	return err != nil && KindOf(err) == KindConflict
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusConflict:
		return KindConflict
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindValidation
	default:
		return KindOther
	}
}

func conflictf(op, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Op: op, Message: fmt.Sprintf(format, args...)}
}

func validationf(op, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}
