package domain

import (
	"errors"
	"fmt"
)

// Error types for consistent error handling across the client.
// Every failure of a backend call is exactly one of these.

// ErrAuthExpired indicates the backend answered 401. The session has been
// (or already was) cleared and the response body must not be used.
type ErrAuthExpired struct {
	Endpoint string
}

func (e *ErrAuthExpired) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Endpoint)
}

// ErrBackendRejected indicates a well-formed response with success:false.
type ErrBackendRejected struct {
	Endpoint string
	Message  string
}

func (e *ErrBackendRejected) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend rejected %s", e.Endpoint)
	}
	return e.Message
}

// ErrQuotaExceeded is a rejection that asks the user to upgrade their plan.
type ErrQuotaExceeded struct {
	Endpoint string
	Message  string
}

func (e *ErrQuotaExceeded) Error() string {
	if e.Message == "" {
		return "plan limit reached"
	}
	return e.Message
}

// Unwrap exposes the quota error as a plain rejection.
func (e *ErrQuotaExceeded) Unwrap() error {
	return &ErrBackendRejected{Endpoint: e.Endpoint, Message: e.Message}
}

// ErrConnection indicates a transport or parse failure.
type ErrConnection struct {
	Endpoint string
	Err      error
}

func (e *ErrConnection) Error() string {
	return fmt.Sprintf("connection error [%s]: %v", e.Endpoint, e.Err)
}

func (e *ErrConnection) Unwrap() error {
	return e.Err
}

// ErrValidationSkipped marks a client-side no-op (empty send, declined
// confirmation). It is never shown to the user.
var ErrValidationSkipped = errors.New("validation skipped")

// ErrorKind labels a failure for metrics and logs.
type ErrorKind string

const (
	KindNone        ErrorKind = "ok"
	KindAuthExpired ErrorKind = "auth_expired"
	KindRejected    ErrorKind = "rejected"
	KindQuota       ErrorKind = "quota_exceeded"
	KindConnection  ErrorKind = "connection"
	KindSkipped     ErrorKind = "skipped"
	KindUnknown     ErrorKind = "unknown"
)

// KindOf classifies err into the client's error taxonomy.
func KindOf(err error) ErrorKind {
	var authExpired *ErrAuthExpired
	var quota *ErrQuotaExceeded
	var rejected *ErrBackendRejected
	var conn *ErrConnection

	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidationSkipped):
		return KindSkipped
	case errors.As(err, &authExpired):
		return KindAuthExpired
	case errors.As(err, &quota):
		return KindQuota
	case errors.As(err, &rejected):
		return KindRejected
	case errors.As(err, &conn):
		return KindConnection
	default:
		return KindUnknown
	}
}

// RejectionMessage returns the backend-provided message of a rejection, or
// fallback when err is not a rejection or carries no text.
func RejectionMessage(err error, fallback string) string {
	var rejected *ErrBackendRejected
	if errors.As(err, &rejected) && rejected.Message != "" {
		return rejected.Message
	}
	return fallback
}
