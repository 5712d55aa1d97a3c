package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrTimeout indicates a single request exceeded its deadline.
type ErrTimeout struct {
	Err error
}

func (e *ErrTimeout) Error() string {
	return fmt.Sprintf("LLM request timed out: %v", e.Err)
}

func (e *ErrTimeout) Unwrap() error { return e.Err }

// ErrAuth indicates the provider rejected our credentials (401/403).
// Never retried: no subsequent call with the same key can succeed.
type ErrAuth struct {
	Err error
}

func (e *ErrAuth) Error() string {
	return fmt.Sprintf("LLM authentication failed: %v", e.Err)
}

func (e *ErrAuth) Unwrap() error { return e.Err }

// ErrBadRequest indicates the provider rejected the request as malformed
// (4xx other than 429). Retrying the identical request cannot succeed.
type ErrBadRequest struct {
	Err error
}

func (e *ErrBadRequest) Error() string {
	return fmt.Sprintf("LLM rejected request: %v", e.Err)
}

func (e *ErrBadRequest) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the LLM returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable (5xx,
// connection failures).
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates the response was truncated because it
// hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}

// ErrExhausted is returned by the retry layer when every attempt failed.
// Attempts reports how many calls were made; Err is the last failure.
type ErrExhausted struct {
	Attempts int
	Err      error
}

func (e *ErrExhausted) Error() string {
	return fmt.Sprintf("all %d attempts failed: %v", e.Attempts, e.Err)
}

func (e *ErrExhausted) Unwrap() error { return e.Err }

// IsFatal reports whether err is a failure no retry or later request can
// recover from (bad credentials, malformed request). Callers use this to
// abort a whole run instead of rejecting a single sample.
func IsFatal(err error) bool {
	var auth *ErrAuth
	if errors.As(err, &auth) {
		return true
	}
	var bad *ErrBadRequest
	return errors.As(err, &bad)
}
