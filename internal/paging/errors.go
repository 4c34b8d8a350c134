package paging

import (
	"context"
	"errors"
	"fmt"
)

// DefaultErrorMessage is shown when a failure carries no message of its own.
const DefaultErrorMessage = "unable to load page"

// Kind classifies why a page fetch failed.
type Kind int

const (
	KindUnknown   Kind = iota
	KindTransport      // server unreachable, timeout
	KindServer         // non-2xx response
	KindDecode         // malformed payload
	KindAuth           // credentials rejected
	KindCanceled       // fetch canceled by refresh or teardown
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindServer:
		return "server"
	case KindDecode:
		return "decode"
	case KindAuth:
		return "auth"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// Error is a classified fetch failure.
// Status is the HTTP status for KindServer and KindAuth, zero otherwise.
type Error struct {
	Kind   Kind
	Status int
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	case e.Status != 0:
		return fmt.Sprintf("%s error: status %d", e.Kind, e.Status)
	default:
		return e.Kind.String() + " error"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the same request may succeed.
func (e *Error) Retryable() bool {
	switch e.Kind {
	case KindTransport:
		return true
	case KindServer:
		return e.Status >= 500
	default:
		return false
	}
}

// IsRetryable reports whether err may go away if the request is repeated.
// Errors that carry no kind are assumed to be transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}

// KindOf classifies err. Context cancellation maps to KindCanceled and
// deadline expiry to KindTransport; other unclassified errors are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	switch {
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTransport
	}
	return KindUnknown
}

// Message flattens err into the text shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return DefaultErrorMessage
}
