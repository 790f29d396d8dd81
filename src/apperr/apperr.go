// Package apperr classifies failures surfaced to the user so callers can
// branch on what went wrong instead of matching message strings.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindValidation Kind = "ValidationError"
	KindNetwork    Kind = "NetworkError"
	KindBackend    Kind = "BackendError"
	KindTimeout    Kind = "TimeoutError"
	KindCancelled  Kind = "CancelledError"
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

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, format string, v ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, v...)}
}

func Wrap(kind Kind, err error, msg string) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf reports the classification of err. Context errors are mapped to
// their kinds regardless of wrapping; anything unclassified is a network
// failure, matching how the backend client treats transport errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindNetwork
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
