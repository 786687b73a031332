package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// StatusThrottled is the non-standard status the service answers with when a
// client exceeds its request rate.
const StatusThrottled = 999

// ClassifyHTTPError maps a failed HTTP exchange to a Kind and a Category:
//   - 401/403 are invalid credentials, 404 is not found
//   - 429, 503 and 999 are throttling
//   - 408 and 504 are timeouts
//   - remaining 4xx are irrecoverable, 5xx and anything else recoverable
func ClassifyHTTPError(statusCode int, body string, underlyingErr error) *ClassifiedError {
	kind := kindForStatus(statusCode)
	category := categoryForKind(kind)
	if kind == KindUnknown {
		category = getHTTPErrorCategory(statusCode)
	}

	return &ClassifiedError{
		Kind:       kind,
		Category:   category,
		StatusCode: statusCode,
		Body:       body,
		Underlying: underlyingErr,
	}
}

func kindForStatus(statusCode int) Kind {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindInvalidCredentials
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, StatusThrottled:
		return KindThrottled
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return KindTimeout
	}
	return KindUnknown
}

// getHTTPErrorCategory maps status codes outside the taxonomy to a category.
func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		return Irrecoverable
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes - be conservative and retry
		return Recoverable
	}
}

// NewHTTPError creates a classified error for HTTP failures.
func NewHTTPError(statusCode int, body string, operation string) *ClassifiedError {
	underlyingErr := fmt.Errorf("%s failed: HTTP %d", operation, statusCode)
	return ClassifyHTTPError(statusCode, body, underlyingErr)
}

// NewNetworkError creates a classified error for transport-level failures.
// Deadlines and net timeouts become KindTimeout; everything else stays
// KindUnknown and recoverable.
func NewNetworkError(operation string, err error) *ClassifiedError {
	kind := KindUnknown
	if isTimeout(err) {
		kind = KindTimeout
	}
	return &ClassifiedError{
		Kind:       kind,
		Category:   Recoverable,
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewResultError classifies a non-"done" result_code returned in a 2xx body.
func NewResultError(operation, resultCode string) *ClassifiedError {
	code := strings.ToLower(strings.TrimSpace(resultCode))
	kind := KindUnknown
	switch {
	case strings.Contains(code, "not found"):
		kind = KindNotFound
	case strings.Contains(code, "access denied"), strings.Contains(code, "unauthorized"):
		kind = KindInvalidCredentials
	case strings.Contains(code, "throttle"), strings.Contains(code, "too many requests"):
		kind = KindThrottled
	}
	ce := New(kind, fmt.Errorf("%s: %s", operation, resultCode))
	if kind == KindUnknown {
		ce.Category = Irrecoverable
	}
	ce.Body = resultCode
	return ce
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
