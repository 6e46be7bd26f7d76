package fetch

import "fmt"

// Kind classifies a fetch failure.
type Kind int

// Failure kinds. Retryable kinds are retried with backoff inside the
// client before surfacing.
const (
	// KindNetwork covers connection-level failures: refused, reset, DNS,
	// and malformed URLs. Connection failures are retryable; malformed
	// URLs surface immediately.
	KindNetwork Kind = iota

	// KindTimeout covers request timeouts. Retryable.
	KindTimeout

	// KindHTTP4xx covers client-error statuses other than 429.
	// Not retryable: the request will not get better by repeating it.
	KindHTTP4xx

	// KindHTTP429 covers rate-limit responses. Retryable, honoring the
	// Retry-After header when present.
	KindHTTP429

	// KindHTTP5xx covers server-error statuses. Retryable.
	KindHTTP5xx
)

// String returns the kind name used in logs and failure reasons.
func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindHTTP4xx:
		return "http-4xx"
	case KindHTTP429:
		return "http-429"
	case KindHTTP5xx:
		return "http-5xx"
	default:
		return "unknown"
	}
}

// Error is a typed fetch failure carrying the failure kind, the requested
// URL, and the underlying cause.
type Error struct {
	// Kind classifies the failure.
	Kind Kind

	// URL is the requested URL.
	URL string

	// StatusCode is the HTTP status for http-* kinds, zero otherwise.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: %s: status %d", e.URL, e.Kind, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}
