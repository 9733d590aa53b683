// Package errors provides the application error types for the chat server:
// machine-readable codes, retry classification, and HTTP status mapping.
// Provider failures are translated into this taxonomy at the proxy boundary;
// raw upstream error bodies never reach clients.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents an application error code.
type Code string

const (
	// Input validation errors
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeMissingField Code = "MISSING_FIELD"

	// Resource errors
	CodeNotFound      Code = "NOT_FOUND"
	CodeSessionClosed Code = "SESSION_CLOSED"

	// Upstream assistant errors
	CodeRateLimited    Code = "RATE_LIMITED"
	CodeQuotaExhausted Code = "QUOTA_EXHAUSTED"
	CodeUpstream       Code = "UPSTREAM_ERROR"
	CodeEmptyReply     Code = "EMPTY_REPLY"
	CodeCircuitOpen    Code = "CIRCUIT_OPEN"
	CodeTimeout        Code = "TIMEOUT"

	// Internal errors
	CodeInternal Code = "INTERNAL_ERROR"
	CodeDatabase Code = "DATABASE_ERROR"
	CodeStore    Code = "STORE_ERROR"
	CodeTemplate Code = "TEMPLATE_ERROR"
	CodeConfig   Code = "CONFIG_ERROR"
)

// Kind classifies an error for handling decisions.
type Kind int

const (
	// KindUnknown is an unclassified error.
	KindUnknown Kind = iota
	// KindUser indicates a caller-caused error (bad input, unknown session).
	KindUser
	// KindSystem indicates a system error (store down, bad configuration).
	KindSystem
	// KindTransient indicates a temporary error that may succeed on retry.
	KindTransient
	// KindTerminal indicates a service-level failure that must not be
	// retried automatically (upstream quota exhausted).
	KindTerminal
)

// Error is the base application error type.
type Error struct {
	// Code is the machine-readable error code.
	Code Code `json:"code"`
	// Message is the human-readable error message.
	Message string `json:"message"`
	// Kind classifies the error for handling decisions.
	Kind Kind `json:"-"`
	// Op is the operation being performed (e.g. "llm.Reply").
	Op string `json:"-"`
	// Err is the underlying error, if any.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus returns the HTTP status code for this error. The upstream
// classifications mirror the provider contract: 429 for rate limits, 402 for
// exhausted quota, 500 for anything else upstream.
func (e *Error) HTTPStatus() int {
	switch e.Code {
	case CodeValidation, CodeInvalidInput, CodeMissingField:
		return http.StatusBadRequest
	case CodeNotFound, CodeSessionClosed:
		return http.StatusNotFound
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeQuotaExhausted:
		return http.StatusPaymentRequired
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeCircuitOpen:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsRetriable returns true if the error may succeed on retry.
func (e *Error) IsRetriable() bool {
	return e.Kind == KindTransient
}

// New creates a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Kind:    kindForCode(code),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(err error, op string, code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Kind:    kindForCode(code),
		Op:      op,
		Err:     err,
	}
}

// kindForCode returns the default Kind for a given Code.
func kindForCode(code Code) Kind {
	switch code {
	case CodeValidation, CodeInvalidInput, CodeMissingField, CodeNotFound, CodeSessionClosed:
		return KindUser
	case CodeRateLimited, CodeUpstream, CodeEmptyReply, CodeTimeout, CodeCircuitOpen:
		return KindTransient
	case CodeQuotaExhausted:
		return KindTerminal
	default:
		return KindSystem
	}
}

// Sentinel errors for common cases.
var (
	// ErrSessionNotFound indicates an unknown or expired session ID.
	ErrSessionNotFound = New(CodeNotFound, "session not found")

	// ErrSessionClosed indicates the session was closed before the
	// operation completed.
	ErrSessionClosed = New(CodeSessionClosed, "session is closed")

	// ErrRateLimited indicates the upstream model returned 429.
	ErrRateLimited = New(CodeRateLimited, "the assistant is receiving too many requests, please retry shortly")

	// ErrQuotaExhausted indicates the upstream model returned 402. Not
	// retryable; surfaced as a contact-support condition.
	ErrQuotaExhausted = New(CodeQuotaExhausted, "assistant quota exhausted, please contact support")

	// ErrEmptyReply indicates the provider returned no usable reply text.
	ErrEmptyReply = New(CodeEmptyReply, "no response from model")
)

// Specialized constructors.

// ValidationFailed creates a validation error with details.
func ValidationFailed(message string) *Error {
	return New(CodeValidation, message)
}

// MissingField creates a missing-field validation error.
func MissingField(field string) *Error {
	return New(CodeMissingField, fmt.Sprintf("missing required field: %s", field))
}

// UpstreamError wraps a provider failure that is neither a rate limit nor a
// quota problem.
func UpstreamError(status int, err error) *Error {
	return &Error{
		Code:    CodeUpstream,
		Message: fmt.Sprintf("assistant provider error (status %d)", status),
		Kind:    KindTransient,
		Err:     err,
	}
}

// StoreError wraps a session store failure.
func StoreError(op string, err error) *Error {
	return Wrap(err, op, CodeStore, "session store operation failed")
}

// DatabaseError wraps a lead archive failure.
func DatabaseError(op string, err error) *Error {
	return Wrap(err, op, CodeDatabase, "database operation failed")
}

// TemplateError wraps a template bank configuration failure.
func TemplateError(err error) *Error {
	return &Error{
		Code:    CodeTemplate,
		Message: "response template lookup failed",
		Kind:    KindSystem,
		Err:     err,
	}
}

// Helper functions.

// GetCode extracts the error code, returning CodeInternal for non-app errors.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// GetHTTPStatus extracts the HTTP status, returning 500 for non-app errors.
func GetHTTPStatus(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// IsRetriable checks if an error is retriable.
func IsRetriable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.IsRetriable()
	}
	return false
}

// UserMessage returns a safe, user-facing message for an error. Internal and
// unknown errors collapse to a generic message.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		switch e.Kind {
		case KindUser, KindTransient, KindTerminal:
			return e.Message
		}
	}
	return "something went wrong, please try again"
}
