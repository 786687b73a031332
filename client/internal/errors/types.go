// Package errors provides error classification for the client SDK.
// Every failed request is reported as a *ClassifiedError carrying one of the
// fixed Kinds plus a retry Category used by the background queue.
package errors

import (
	"errors"
	"fmt"
)

// Kind is the fixed failure taxonomy of the remote API.
type Kind int

const (
	// KindUnknown covers service failures outside the fixed taxonomy
	// (unexpected status codes, unrecognised result codes, decode errors).
	KindUnknown Kind = iota
	KindTimeout
	KindThrottled
	KindInvalidCredentials
	KindNotFound
	KindEmptyResponse
)

// Sentinels matched by errors.Is against a *ClassifiedError of the same Kind.
var (
	ErrTimeout            = errors.New("request timed out")
	ErrThrottled          = errors.New("request throttled")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrEmptyResponse      = errors.New("empty response")
)

func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "Timeout"
	case KindThrottled:
		return "Throttled"
	case KindInvalidCredentials:
		return "InvalidCredentials"
	case KindNotFound:
		return "NotFound"
	case KindEmptyResponse:
		return "EmptyResponse"
	default:
		return "Unknown"
	}
}

// sentinel returns the exported sentinel for k, nil for KindUnknown.
func (k Kind) sentinel() error {
	switch k {
	case KindTimeout:
		return ErrTimeout
	case KindThrottled:
		return ErrThrottled
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindNotFound:
		return ErrNotFound
	case KindEmptyResponse:
		return ErrEmptyResponse
	}
	return nil
}

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors may be retried with exponential backoff.
	// Examples: throttling, timeouts, 5xx responses, connection failures.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors should fail immediately without retry.
	// Examples: bad credentials, missing bookmark, 400 Bad Request.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError wraps an error with taxonomy and retry metadata.
type ClassifiedError struct {
	Kind       Kind
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Body       string // Response body for debugging
	Underlying error  // The original error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Kind, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Kind, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is the sentinel for this error's Kind.
func (e *ClassifiedError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && s == target
}

// New builds a ClassifiedError of the given kind with the default category
// for that kind.
func New(kind Kind, underlying error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       kind,
		Category:   categoryForKind(kind),
		Underlying: underlying,
	}
}

// KindOf returns the Kind of the first ClassifiedError in err's chain.
func KindOf(err error) Kind {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindUnknown
}

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Category == Irrecoverable
	}
	return false
}

func categoryForKind(kind Kind) ErrorCategory {
	switch kind {
	case KindTimeout, KindThrottled, KindUnknown:
		return Recoverable
	default:
		return Irrecoverable
	}
}
