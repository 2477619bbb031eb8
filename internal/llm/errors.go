package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies a failed LLM operation. Classification happens once, at
// the point where the failure is detected; callers only log and surface.
type Kind string

// Kind constants, from most to least specific.
const (
	KindNetwork        Kind = "network"        // transport failure before a response arrived
	KindTimeout        Kind = "timeout"        // a deadline or cancellation fired
	KindAuthentication Kind = "authentication" // 401/403 or missing credentials
	KindAPI            Kind = "api"            // any other non-2xx, or a malformed success body
	KindValidation     Kind = "validation"     // caller error: unknown model, missing capability or field
	KindUnknown        Kind = "unknown"        // everything else
)

// Error is a classified provider/router failure. It carries a user-facing
// message separate from the technical one, and a retryable flag that only
// the catalog-refresh path consults.
type Error struct {
	Kind      Kind
	UserMsg   string
	TechMsg   string
	Retryable bool
	Cause     error
}

// Error implements the error interface with the technical message.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.TechMsg, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.TechMsg)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// UserMessage returns the message safe to show to an end user.
func (e *Error) UserMessage() string {
	if e.UserMsg != "" {
		return e.UserMsg
	}
	return "The model request failed. Please try again."
}

// NewError builds a classified error.
func NewError(kind Kind, userMsg, techMsg string, cause error) *Error {
	return &Error{
		Kind:      kind,
		UserMsg:   userMsg,
		TechMsg:   techMsg,
		Retryable: kind == KindAPI || kind == KindNetwork || kind == KindTimeout,
		Cause:     cause,
	}
}

// Validation builds a non-retryable caller error.
func Validation(techMsg string) *Error {
	return &Error{
		Kind:    KindValidation,
		UserMsg: "The request was invalid.",
		TechMsg: techMsg,
	}
}

// ErrorKind reports the classification of err, or KindUnknown when err is
// not a classified *Error.
func ErrorKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// UserMessage returns the user-facing message for err, falling back to a
// generic one for unclassified errors.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.UserMessage()
	}
	return "The model request failed. Please try again."
}

// IsRetryable reports whether err may be retried. Validation and
// Authentication failures never are.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// ClassifyTransport maps a pre-response transport failure to Network or
// Timeout. Context expiry takes precedence: a fired deadline often surfaces
// as a wrapped net error.
func ClassifyTransport(err error, ctx context.Context) *Error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewError(KindTimeout, "The model did not respond in time.", "request cancelled or timed out", err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return NewError(KindTimeout, "The model did not respond in time.", "network timeout", err)
	}
	return NewError(KindNetwork, "Could not reach the model endpoint.", "transport failure", err)
}
