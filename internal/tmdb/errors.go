package tmdb

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies catalog failures for callers.
type Kind int

const (
	// KindCancelled means the caller aborted the request. UIs discard it silently.
	KindCancelled Kind = iota + 1
	// KindTimeout means the request exceeded its own timeout.
	KindTimeout
	// KindNetwork means no response was received.
	KindNetwork
	// KindHTTP means the server answered with a non-2xx status.
	KindHTTP
	// KindDecode means the response body was not the expected JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindTimeout:
		return "timeout"
	case KindNetwork:
		return "network"
	case KindHTTP:
		return "http"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// Error is returned by every Client call that fails.
type Error struct {
	Kind       Kind
	Endpoint   string // "proxy" or "direct"; empty when no request was issued
	URL        string // redacted, never carries the credential
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return "catalog error"
	}
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("catalog error %d", e.StatusCode)
	case KindCancelled:
		return "catalog request cancelled"
	case KindTimeout:
		if e.Endpoint != "" {
			return fmt.Sprintf("catalog request timed out (%s)", e.Endpoint)
		}
		return "catalog request timed out"
	}
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("catalog %s error", e.Kind)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets cancelled errors match context.Canceled even when the underlying
// transport error is wrapped differently.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	switch e.Kind {
	case KindCancelled:
		return target == context.Canceled
	case KindTimeout:
		return target == context.DeadlineExceeded
	}
	return false
}

// IsCancelled reports whether err is a caller-initiated abort.
func IsCancelled(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == KindCancelled
	}
	return errors.Is(err, context.Canceled)
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == KindTimeout
	}
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var ce *Error
	if errors.As(err, &ce) && ce.Kind == KindHTTP {
		return ce.StatusCode
	}
	return 0
}

// Retryable reports whether err should be shown to the user with a retry
// affordance. Cancellations are not.
func Retryable(err error) bool {
	return err != nil && !IsCancelled(err)
}
