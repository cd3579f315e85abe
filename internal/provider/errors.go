package provider

import (
	"errors"
	"fmt"
	"time"
)

// Errors surfaced to callers of the retrying client. Transient signals
// (rate limit with a resume delay, timeout with retries remaining) are
// handled internally and never reach the caller.
var (
	// ErrQuotaExceeded is returned for a rate-limit signal with no resume
	// delay. Fatal, not retried.
	ErrQuotaExceeded = errors.New("rate limit quota exceeded")

	// ErrResponse is returned when a success payload is malformed or empty.
	// Fatal, not retried: a contract violation, not transience.
	ErrResponse = errors.New("invalid response from translation provider")

	// ErrImpossible is returned for connection failures, unexpected errors
	// and retry exhaustion, wrapping the underlying cause.
	ErrImpossible = errors.New("translation request impossible")
)

// Kind tags the failure mode a transport observed on a single attempt.
type Kind string

// Transport failure kinds
const (
	// KindRateLimited indicates the service rejected the attempt for rate
	// limiting, optionally with a resume delay
	KindRateLimited Kind = "rate_limited"

	// KindTimeout indicates the attempt timed out
	KindTimeout Kind = "timeout"

	// KindConnection indicates the service could not be reached
	KindConnection Kind = "connection"

	// KindOther covers anything the transport could not classify
	KindOther Kind = "other"
)

// TransportError is the tagged failure a Transport reports for one attempt.
type TransportError struct {
	// Kind is the failure mode
	Kind Kind

	// RetryAfter is the service-specified resume delay for rate limits.
	// Zero means the service gave no hint.
	RetryAfter time.Duration

	// Cause is the underlying error, kept for diagnostics
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("transport failure (%s): %v", e.Kind, e.Cause)
	}
	return fmt.Sprintf("transport failure (%s)", e.Kind)
}

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error {
	return e.Cause
}
