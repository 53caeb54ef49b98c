package llm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies model failures so the retry policy does not burn
// attempts on unrecoverable conditions.
type ErrorKind string

const (
	// KindSchemaViolation means the model returned output that fails the
	// contract schema. Retrying the same input will not help.
	KindSchemaViolation ErrorKind = "schema_violation"
	// KindConfig covers missing credentials and invalid model identifiers.
	KindConfig ErrorKind = "config"
	// KindTransient covers timeouts, quota exhaustion and 5xx responses.
	KindTransient ErrorKind = "transient"
)

// ModelError is a discriminated failure from a model API call
type ModelError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *ModelError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("llm: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("llm: %s: %s", e.Kind, e.Message)
}

// Retryable reports whether a generic retry policy should reattempt
func (e *ModelError) Retryable() bool {
	return e.Kind == KindTransient
}

// IsRetryable reports whether err should be handed back to the retry policy.
// Unknown errors default to retryable, matching at-least-once semantics.
func IsRetryable(err error) bool {
	var me *ModelError
	if errors.As(err, &me) {
		return me.Retryable()
	}
	return true
}

// IsSchemaViolation reports whether err is a model output contract failure
func IsSchemaViolation(err error) bool {
	var me *ModelError
	return errors.As(err, &me) && me.Kind == KindSchemaViolation
}
