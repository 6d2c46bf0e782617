// Package apierr provides shared error sentinels for HTTP-based API clients.
// Provider-specific error types are classified into these sentinels at the
// adapter boundary.
//
// Providers map HTTP status codes to these errors using fmt.Errorf("%s: %w", msg, sentinel).
// Callers check with errors.Is(err, apierr.ErrAuthFailed) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrBadInput indicates the API rejected the request payload
	// (invalid or corrupted file, malformed parameters).
	ErrBadInput = errors.New("invalid or corrupted input")

	// ErrAuthFailed indicates API authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimit indicates the API rate limit was exceeded.
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the API quota was exceeded (billing issue).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")
)
