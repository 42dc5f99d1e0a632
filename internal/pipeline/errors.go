package pipeline

import (
	"context"
	"errors"
)

// Sentinel errors.
var (
	// ErrConfiguration means the remote model is required but was never set up.
	ErrConfiguration = errors.New("remote model not configured")

	// ErrRemoteCall means the model call failed, timed out, or returned
	// content with no recognisable answer.
	ErrRemoteCall = errors.New("remote model call failed")

	// ErrNoUsableResponse means a successful call carried no text at all.
	ErrNoUsableResponse = errors.New("no usable response from remote model")
)

// Error kinds reported to callers in {"error": kind, "message": ...} bodies.
const (
	KindConfiguration    = "configuration_error"
	KindRemoteCall       = "remote_call_failed"
	KindNoUsableResponse = "no_usable_response"
	KindInternal         = "internal_error"
)

// ErrorKind classifies err for API responses.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, ErrNoUsableResponse):
		return KindNoUsableResponse
	case errors.Is(err, ErrRemoteCall),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindRemoteCall
	default:
		return KindInternal
	}
}
