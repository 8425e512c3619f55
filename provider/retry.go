package provider

import (
	"context"
	"math/rand"
	"net/http"
	"time"
)

// RetryPolicy implements the adapter's retry contract: at most MaxRetries
// additional attempts, only for transport failures, 5xx, and 429 responses,
// with exponential backoff plus jitter between attempts. 4xx responses other
// than 429 are terminal.
type RetryPolicy struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxJitter     time.Duration
	AttemptBudget time.Duration
}

// DefaultRetryPolicy matches the adapter's documented retry budget: up to two
// retries, 500ms base backoff, up to 250ms of jitter, 25s per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    2,
		BaseDelay:     500 * time.Millisecond,
		MaxJitter:     250 * time.Millisecond,
		AttemptBudget: 25 * time.Second,
	}
}

// vendorCall is one attempt at reaching a vendor. It returns the raw HTTP
// status code (0 for a transport-level failure that never got a response)
// alongside whatever error occurred.
type vendorCall func(ctx context.Context) (status int, err error)

// retryable reports whether status/err warrants another attempt.
func retryable(status int, err error) bool {
	if status == 0 && err != nil {
		return true
	}
	if status == http.StatusTooManyRequests {
		return true
	}
	return status >= 500
}

// delayFor returns the backoff before attempt (0-indexed) with jitter.
func (p RetryPolicy) delayFor(attempt int) time.Duration {
	backoff := p.BaseDelay << attempt
	jitter := time.Duration(0)
	if p.MaxJitter > 0 {
		jitter = time.Duration(rand.Int63n(int64(p.MaxJitter)))
	}
	return backoff + jitter
}

// do runs call with the policy's retry and per-attempt timeout behavior. It
// returns the last status/err observed.
func (p RetryPolicy) do(ctx context.Context, call vendorCall) (status int, err error) {
	for attempt := 0; ; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, p.AttemptBudget)
		status, err = call(attemptCtx)
		cancel()

		if !retryable(status, err) || attempt >= p.MaxRetries {
			return status, err
		}

		select {
		case <-ctx.Done():
			return status, err
		case <-time.After(p.delayFor(attempt)):
		}
	}
}
