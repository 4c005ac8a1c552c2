// Package errors provides centralized error definitions for the engine.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Storage errors.
var (
	// ErrDuplicate indicates an insert hit a uniqueness constraint.
	// For candidates and leads this is the expected idempotency signal,
	// not a failure.
	ErrDuplicate = errors.New("duplicate row")

	// ErrNotFound is a generic not found error.
	ErrNotFound = errors.New("not found")
)

// AI client errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")

	// ErrEmptyResponse indicates an empty completion was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoJSONObject indicates no JSON object could be located in a response.
	ErrNoJSONObject = errors.New("no json object in response")

	// ErrMissingScore indicates a response parsed but omitted a required score field.
	ErrMissingScore = errors.New("response missing required score")
)

// Quota errors.
var (
	// ErrQuotaExhausted indicates the user's monthly budget is spent.
	ErrQuotaExhausted = errors.New("quota exhausted")
)
