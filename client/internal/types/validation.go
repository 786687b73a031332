package types

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/delicious-go/delicious/client/internal/shardqueue"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// Executor interface for dependency injection (used by async operations)
type Executor interface {
	Submit(context.Context, string, shardqueue.Job) error
}

// ------------------------------
// Shared Errors
// ------------------------------

// ErrInvalidArgument is returned when a required argument is missing or
// malformed. No request is issued in that case.
var ErrInvalidArgument = errors.New("invalid argument")

// ------------------------------
// Validation
// ------------------------------

// ValidateRequired rejects empty or whitespace-only values.
func ValidateRequired(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidArgument, fieldName)
	}
	return nil
}

// ValidateURL requires an absolute URL with a scheme and host.
func ValidateURL(raw, fieldName string) error {
	if err := ValidateRequired(raw, fieldName); err != nil {
		return err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidArgument, fieldName, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidArgument, fieldName)
	}
	return nil
}

// ValidateTag rejects empty tags and tags containing whitespace or commas,
// both of which are list separators on the wire.
func ValidateTag(tag, fieldName string) error {
	if err := ValidateRequired(tag, fieldName); err != nil {
		return err
	}
	if strings.ContainsFunc(tag, func(r rune) bool { return r == ',' || unicode.IsSpace(r) }) {
		return fmt.Errorf("%w: %s must not contain whitespace or commas", ErrInvalidArgument, fieldName)
	}
	return nil
}

// ValidateTags applies ValidateTag to every element.
func ValidateTags(tags []string, fieldName string) error {
	for i, t := range tags {
		if err := ValidateTag(t, fmt.Sprintf("%s[%d]", fieldName, i)); err != nil {
			return err
		}
	}
	return nil
}
