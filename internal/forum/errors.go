package forum

import (
	"errors"
	"fmt"
	"time"
)

// ErrorKind discriminates transport failures so callers can pick the right
// recovery policy.
type ErrorKind string

const (
	// KindBlocked means the source refused us (403 or similar). Not
	// retryable; the caller should back off for a long interval.
	KindBlocked ErrorKind = "blocked"
	// KindRateLimited means the source throttled us (429). Retryable after
	// the suggested interval.
	KindRateLimited ErrorKind = "rate_limited"
	// KindTransient covers timeouts, 5xx and other recoverable failures.
	KindTransient ErrorKind = "transient"
)

// TransportError is a discriminated failure from the source-content API.
type TransportError struct {
	Kind       ErrorKind
	StatusCode int
	RetryAfter time.Duration // only meaningful for KindRateLimited
	Message    string
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("forum: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("forum: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether a generic retry/backoff policy should reattempt.
func (e *TransportError) Retryable() bool {
	return e.Kind != KindBlocked
}

// IsBlocked reports whether err is a blocked/forbidden transport error.
func IsBlocked(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == KindBlocked
}

// IsRateLimited reports whether err is a rate-limit transport error.
func IsRateLimited(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Kind == KindRateLimited
}

// SuggestedBackoff returns the server-suggested retry interval for a
// rate-limit error, or the fallback when none was provided.
func SuggestedBackoff(err error, fallback time.Duration) time.Duration {
	var te *TransportError
	if errors.As(err, &te) && te.RetryAfter > 0 {
		return te.RetryAfter
	}
	return fallback
}
