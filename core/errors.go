package core

import (
	"errors"
	"fmt"
)

// The error taxonomy distinguishes failure classes so the executor can decide
// whether a retry is worthwhile:
//
//   - ValidationError: bad input, never retried
//   - TimeoutError: deadline exceeded, never retried (the deadline is global)
//   - TransientError: retryable failure during execution
//   - FatalError: unrecoverable, never retried
//
// Compliance failures are a status on the QualityReport, not an error.

// ValidationError indicates the input failed the caller-supplied predicate.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return "input validation failed"
	}
	return fmt.Sprintf("input validation failed: %s", e.Reason)
}

// TimeoutError indicates the overall execution deadline elapsed.
type TimeoutError struct {
	Seconds float64
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %gs", e.Seconds)
}

// TransientError wraps a retryable failure encountered during execution.
type TransientError struct {
	Cause error
}

// Error implements the error interface.
func (e *TransientError) Error() string { return fmt.Sprintf("transient: %v", e.Cause) }

// Unwrap exposes the underlying cause.
func (e *TransientError) Unwrap() error { return e.Cause }

// FatalError wraps an unrecoverable failure, e.g. irreparably malformed model
// output after fallback parsing also failed.
type FatalError struct {
	Cause error
}

// Error implements the error interface.
func (e *FatalError) Error() string { return fmt.Sprintf("fatal: %v", e.Cause) }

// Unwrap exposes the underlying cause.
func (e *FatalError) Unwrap() error { return e.Cause }

// Retryable reports whether the executor should attempt the unit of work
// again. Unclassified errors default to retryable so plain failures from
// collaborator code still benefit from backoff.
func Retryable(err error) bool {
	var ve *ValidationError
	var te *TimeoutError
	var fe *FatalError
	if errors.As(err, &ve) || errors.As(err, &te) || errors.As(err, &fe) {
		return false
	}
	return true
}
