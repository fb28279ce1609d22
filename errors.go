package hidroweb

import "fmt"

// ConnectionError means the upstream could not be reached after the retry
// budget was exhausted. It wraps the last underlying cause.
type ConnectionError struct {
	Attempts int
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("hidroweb: connection failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// APIError means the upstream answered with a fatal status.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("hidroweb: API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("hidroweb: API error: HTTP %d: %s", e.StatusCode, e.Message)
}

// NotFoundError means the requested station or series does not exist
// upstream. Distinct from APIError so callers can tell "not found" from
// "request failed".
type NotFoundError struct {
	Code string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("hidroweb: station %q not found", e.Code)
}

// ValidationError means a payload or argument failed normalization or a
// consistency check. Field names the offending field; Value carries the
// offending raw value when one exists.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("hidroweb: validation failed on %s=%q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("hidroweb: validation failed on %s: %s", e.Field, e.Reason)
}
