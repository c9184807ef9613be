// Package errors carries the typed API failures. Each Code maps to an HTTP status and a
// public message; the wrapped cause only ever reaches the logs.
package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"

	// Checkout workflow failures.
	CodeCartEmpty      Code = "CART_EMPTY"
	CodeSubmission     Code = "SUBMISSION_FAILED"
	CodeDispatch       Code = "DISPATCH_FAILED"
	CodeNoPendingOrder Code = "NO_PENDING_ORDER"
)

// Metadata describes how a code is rendered. EchoMessage lets the caller's message replace
// PublicMessage; it is only set for codes whose messages are written for shoppers.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
	EchoMessage    bool
}

const (
	retryable uint8 = 1 << iota
	withDetails
	echo
)

func meta(status int, public string, flags uint8) Metadata {
	return Metadata{
		HTTPStatus:     status,
		PublicMessage:  public,
		Retryable:      flags&retryable != 0,
		DetailsAllowed: flags&withDetails != 0,
		EchoMessage:    flags&echo != 0,
	}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:     meta(http.StatusBadRequest, "validation failed", withDetails|echo),
	CodeUnauthorized:   meta(http.StatusUnauthorized, "authentication required", echo),
	CodeForbidden:      meta(http.StatusForbidden, "access denied", echo),
	CodeNotFound:       meta(http.StatusNotFound, "resource not found", echo),
	CodeConflict:       meta(http.StatusConflict, "conflict detected", echo),
	CodeStateConflict:  meta(http.StatusUnprocessableEntity, "state transition disallowed", withDetails|echo),
	CodeRateLimit:      meta(http.StatusTooManyRequests, "rate limit exceeded", echo),
	CodeInternal:       meta(http.StatusInternalServerError, "internal server error", retryable),
	CodeDependency:     meta(http.StatusServiceUnavailable, "dependency unavailable", retryable|withDetails),
	CodeCartEmpty:      meta(http.StatusBadRequest, "cart empty", echo),
	CodeSubmission:     meta(http.StatusServiceUnavailable, "order submission failed", retryable|withDetails),
	CodeDispatch:       meta(http.StatusBadGateway, "failed to send invoice", retryable),
	CodeNoPendingOrder: meta(http.StatusConflict, "no order data available", echo),
}

// MetadataFor falls back to CodeInternal for codes it does not know.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// Error is the typed failure handlers return.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps err as the cause. A nil err yields a plain New.
func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

// PublicMessage is what the API envelope shows for e.
func (e *Error) PublicMessage() string {
	m := MetadataFor(e.Code())
	if m.EchoMessage && e.Message() != "" {
		return e.Message()
	}
	return m.PublicMessage
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.cause != nil:
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// IsValidation reports whether err is the shopper's fault: bad input, an empty cart, or a
// missing login.
func IsValidation(err error) bool {
	typed := As(err)
	if typed == nil {
		return false
	}
	switch typed.code {
	case CodeValidation, CodeCartEmpty, CodeUnauthorized:
		return true
	}
	return false
}

// IsRetryable reports whether repeating the same request may succeed. Untyped errors are
// treated as internal failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return MetadataFor(As(err).Code()).Retryable
}
