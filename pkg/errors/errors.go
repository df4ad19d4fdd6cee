package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a typed domain error carrying the HTTP status and stable code
// the API contract promises. The wrapped cause never reaches the client.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New builds a catalog error.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches a cause to a typed error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Clone copies a catalog error, optionally overriding its message, so
// call sites can specialize the text without mutating the shared value.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := *err
	if message != "" {
		out.Message = message
	}
	return &out
}

// FromError normalizes any error into an *Error, folding unknown causes
// into ErrInternal.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// The error catalog. Codes are part of the API contract and must stay
// stable across releases.
var (
	// Request and auth failures.
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrInvalidCredentials = New("INVALID_CREDENTIALS", http.StatusUnauthorized, "invalid email or password")
	ErrInactiveAccount    = New("ACCOUNT_INACTIVE", http.StatusForbidden, "account is inactive")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")

	// Evaluation lifecycle. INVALID_LINK deliberately does not reveal
	// whether a token ever existed.
	ErrInvalidLink        = New("INVALID_LINK", http.StatusNotFound, "invalid or expired link")
	ErrAlreadySubmitted   = New("ALREADY_SUBMITTED", http.StatusConflict, "this evaluation has already been submitted")
	ErrEvaluationClosed   = New("EVALUATION_CLOSED", http.StatusConflict, "evaluation already closed")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")

	// Infrastructure.
	ErrUpstream = New("UPSTREAM_ERROR", http.StatusBadGateway, "upstream service failed")
	ErrInternal = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// ErrCacheMiss signals an absent cache key. Internal plumbing only, it
// is never surfaced over HTTP.
var ErrCacheMiss = errors.New("cache miss")
