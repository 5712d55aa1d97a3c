package llm

import (
	"context"
	"errors"
	"time"
)

// TimeoutProvider is a decorator that bounds each attempt with a deadline.
// It sits below the retry layer, so a slow attempt times out and is retried
// rather than stalling the whole run.
type TimeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider with a per-attempt deadline.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &TimeoutProvider{inner: p, timeout: d}
}

func (t *TimeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	if t.timeout <= 0 {
		return t.inner.Generate(ctx, req)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.inner.Generate(attemptCtx, req)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		// Our deadline fired, not the caller's: report a retryable timeout.
		return nil, &ErrTimeout{Err: err}
	}
	return resp, err
}

func (t *TimeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
