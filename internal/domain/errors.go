package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyPool          = errors.New("credential pool is empty")
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrNoModelSelected    = errors.New("no model selected")
	ErrChatDeliveryFailed = errors.New("chat delivery failed")
	ErrSummaryNotFound    = errors.New("run summary not found")
)

// AuthorizationError is a definitive credential rejection (HTTP 401/403).
type AuthorizationError struct {
	Status int
	Body   string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("authorization rejected: status %d", e.Status)
}

// TransientError is a failure worth retrying: a network-level error or an
// HTTP 5xx. Status is 0 when the request never produced a response.
type TransientError struct {
	Status int
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("transient server error: status %d", e.Status)
	}
	return fmt.Sprintf("transient network error: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// StreamAbortError marks a response stream cut off mid-body after the
// service already accepted the request. It is set at the point the stream is
// interrupted, never inferred from error text. Whether the remote side
// effect landed is unknowable here; callers resolve it out of band.
type StreamAbortError struct {
	Partial string
	Err     error
}

func (e *StreamAbortError) Error() string {
	return fmt.Sprintf("response stream aborted after %d bytes: %v", len(e.Partial), e.Err)
}

func (e *StreamAbortError) Unwrap() error { return e.Err }

// RequestError is a non-retryable remote rejection (unclassified 4xx).
type RequestError struct {
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request rejected: status %d", e.Status)
}

// ExhaustionError reports a spent recovery budget: either the backoff retry
// limit or one full pass of the credential pool.
type ExhaustionError struct {
	Attempts  int
	Rotations int
	Last      error
}

func (e *ExhaustionError) Error() string {
	if e.Rotations > 0 {
		return fmt.Sprintf("credential pool exhausted after %d rotations: %v", e.Rotations, e.Last)
	}
	return fmt.Sprintf("retry budget exhausted after %d attempts: %v", e.Attempts, e.Last)
}

func (e *ExhaustionError) Unwrap() error { return e.Last }
