package controlcenter

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation = errors.New("control center validation failed")
	ErrTransport  = errors.New("control center transport failed")
	ErrTimeout    = errors.New("control center request timed out")
	ErrAPI        = errors.New("control center api error")
	ErrNotFound   = errors.New("control center resource not found")
)

type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindTimeout    ErrorKind = "timeout"
	KindTransport  ErrorKind = "transport"
	KindAPI        ErrorKind = "api"
	KindNotFound   ErrorKind = "not_found"
)

// Error is the only error type returned by Client. Message is safe to show to
// the language model; StatusCode is zero when no HTTP response was received.
type Error struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrValidation:
		return e.Kind == KindValidation
	case ErrTransport:
		return e.Kind == KindTransport || e.Kind == KindTimeout
	case ErrTimeout:
		return e.Kind == KindTimeout
	case ErrAPI:
		return e.Kind == KindAPI || e.Kind == KindNotFound
	case ErrNotFound:
		return e.Kind == KindNotFound
	}
	return false
}

func validationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func timeoutError(cause error) *Error {
	return &Error{Kind: KindTimeout, Message: "control center request timed out.", Err: cause}
}

func transportError(cause error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("control center request failed: %v", cause),
		Err:     cause,
	}
}

func statusError(status int, message string) *Error {
	if message == "" {
		message = fmt.Sprintf("control center request failed with status %d.", status)
	}
	kind := KindAPI
	if status == http.StatusNotFound {
		kind = KindNotFound
	}
	return &Error{Kind: kind, Message: message, StatusCode: status}
}

func notFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message, StatusCode: http.StatusNotFound}
}

func decodeError(cause error) *Error {
	return &Error{Kind: KindAPI, Message: "control center response was not valid JSON.", Err: cause}
}
