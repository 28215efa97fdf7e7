// Package adapters holds the shared error taxonomy for the Downstream
// Service Adapters (C3): the Analysis API and Extractor API clients.
package adapters

import (
	"context"
	"errors"
	"fmt"
)

// Kind enumerates the adapter failure categories named in spec.md §4.3.
type Kind string

const (
	KindTransport  Kind = "Transport"
	KindHTTPStatus Kind = "HttpStatus"
	KindDecode     Kind = "Decode"
	KindTimeout    Kind = "Timeout"
	KindCancelled  Kind = "Cancelled"
)

// Error is a structured adapter failure. StatusCode is only meaningful when
// Kind == KindHTTPStatus.
type Error struct {
	Kind       Kind
	StatusCode int
	Op         string
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("adapters: %s: http status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("adapters: %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure is one the retry policy (spec.md
// §4.3: Transport and HttpStatus in {502,503,504}, up to 3 attempts) covers.
func (e *Error) Retryable() bool {
	if e.Kind == KindTransport {
		return true
	}
	if e.Kind == KindHTTPStatus {
		switch e.StatusCode {
		case 502, 503, 504:
			return true
		}
	}
	return false
}

// KindForContext classifies ctx.Err(): an explicit cancellation (the caller
// gave up, or a sibling waiter's context was torn down) is KindCancelled,
// distinct from KindTimeout so a caller doesn't confuse "the requester
// stopped waiting" with "the upstream was slow" (spec.md §5/§7).
func KindForContext(ctx context.Context) Kind {
	if errors.Is(ctx.Err(), context.Canceled) {
		return KindCancelled
	}
	return KindTimeout
}

// SolverError is raised when an analysis job transitions to "failed".
type SolverError struct {
	Message string
}

func (e *SolverError) Error() string { return fmt.Sprintf("adapters: solver error: %s", e.Message) }
