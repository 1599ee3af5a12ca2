package grader

import (
	"fmt"
	"net/http"
)

// ValidationError reports caller input that fails the required-field check
// after sanitization. The upstream provider is never contacted for these.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConfigurationError reports an operator-side problem such as a missing API
// key or an unreadable prompt template. Not recoverable within the request.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// UpstreamError reports a transport or provider failure from the reasoning
// service. Status carries the upstream HTTP status when one was received;
// zero means no status was available and the failure is 500-equivalent.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("upstream status %d: %s", e.Status, e.Message)
	}
	return e.Message
}

// RateLimited reports whether the provider rejected the call with a 429.
// Callers surface this distinctly so clients can back off and retry.
func (e *UpstreamError) RateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// ShapeError reports a provider reply that decoded but is missing the
// minimal structure (a sections collection and a total object) or could not
// be parsed as JSON at all. Surfaced as 502-equivalent.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "invalid upstream shape: " + e.Reason
}
