package client

import (
	"errors"

	clienterrors "github.com/delicious-go/delicious/client/internal/errors"
	"github.com/delicious-go/delicious/client/internal/types"
)

// Failure taxonomy of the service. Compare with errors.Is.
var (
	ErrTimeout            = clienterrors.ErrTimeout
	ErrThrottled          = clienterrors.ErrThrottled
	ErrInvalidCredentials = clienterrors.ErrInvalidCredentials
	ErrNotFound           = clienterrors.ErrNotFound
	ErrEmptyResponse      = clienterrors.ErrEmptyResponse
)

// ErrInvalidArgument is returned, before any request, for missing or
// malformed arguments.
var ErrInvalidArgument = types.ErrInvalidArgument

// ErrBackPressure is returned when the client's internal shard queue is full.
var ErrBackPressure = errors.New("back-pressure (queue full)")

// ErrClosed is returned by async methods after Close.
var ErrClosed = errors.New("client closed")

// ErrNoExecutor is returned by async methods of a client built WithoutExecutor.
var ErrNoExecutor = errors.New("client has no executor")

// ClassifiedError is the concrete type of service failures.
type ClassifiedError = clienterrors.ClassifiedError

// Kind names a failure class.
type Kind = clienterrors.Kind

const (
	KindUnknown            = clienterrors.KindUnknown
	KindTimeout            = clienterrors.KindTimeout
	KindThrottled          = clienterrors.KindThrottled
	KindInvalidCredentials = clienterrors.KindInvalidCredentials
	KindNotFound           = clienterrors.KindNotFound
	KindEmptyResponse      = clienterrors.KindEmptyResponse
)

// KindOf returns the Kind of err, KindUnknown for unclassified errors.
func KindOf(err error) Kind { return clienterrors.KindOf(err) }

func IsTimeout(err error) bool            { return errors.Is(err, ErrTimeout) }
func IsThrottled(err error) bool          { return errors.Is(err, ErrThrottled) }
func IsInvalidCredentials(err error) bool { return errors.Is(err, ErrInvalidCredentials) }
func IsNotFound(err error) bool           { return errors.Is(err, ErrNotFound) }
func IsEmptyResponse(err error) bool      { return errors.Is(err, ErrEmptyResponse) }

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool { return errors.Is(err, ErrBackPressure) }
