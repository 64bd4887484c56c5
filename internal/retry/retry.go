package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/amishk599/offerradar/internal/model"
)

// Policy describes a bounded exponential backoff.
type Policy struct {
	MaxAttempts int           // total attempts, including the first
	BaseDelay   time.Duration // delay before the second attempt
	Multiplier  float64       // growth factor per further attempt
	Jitter      float64       // fraction of the delay applied as ±jitter, 0 disables
}

// DefaultPolicy mirrors the defaults of the config layer: 3 attempts, 1s doubling, ±30% jitter.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, BaseDelay: time.Second, Multiplier: 2, Jitter: 0.3}
}

// Delay computes the wait before the given retry (1 = first retry).
// If the error carries a Retry-After duration (HTTP 429), that takes precedence.
func (p Policy) Delay(retry int, err error) time.Duration {
	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) && httpErr.RetryAfter > 0 {
		return httpErr.RetryAfter
	}

	delay := float64(p.BaseDelay)
	for i := 1; i < retry; i++ {
		delay *= p.Multiplier
	}
	if p.Jitter > 0 {
		delay += (rand.Float64()*2 - 1) * delay * p.Jitter
	}
	return time.Duration(delay)
}

// Do runs fn until it succeeds, returns a non-retryable error, or the policy
// is exhausted. fn receives the 1-based attempt number. The returned error is
// the last one seen.
func Do[T any](ctx context.Context, p Policy, logger *slog.Logger, op string, fn func(ctx context.Context, attempt int) (T, error)) (T, error) {
	var zero T
	attempts := max(p.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			delay := p.Delay(attempt-1, lastErr)
			logger.Warn("retrying after transient error",
				"op", op,
				"attempt", attempt,
				"max_attempts", attempts,
				"delay", delay,
				"error", lastErr,
			)
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		v, err := fn(ctx, attempt)
		if err == nil {
			return v, nil
		}
		if ctx.Err() != nil {
			return zero, fmt.Errorf("retry cancelled: %w", ctx.Err())
		}
		if !IsRetryable(err) {
			return zero, err
		}
		lastErr = err
	}
	return zero, lastErr
}

// IsRetryable returns true if the error represents a transient failure worth retrying.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	// Cancellation: never retry. A per-attempt deadline is a timeout and is retried.
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, model.ErrInvalidRequest) || errors.Is(err, model.ErrInvalidResponse) {
		return false
	}

	var protoErr *model.MatchingProtocolError
	if errors.As(err, &protoErr) {
		return true
	}

	var httpErr *model.HTTPError
	if errors.As(err, &httpErr) {
		// 429 Too Many Requests: retryable.
		if httpErr.StatusCode == 429 {
			return true
		}
		// 5xx: retryable.
		if httpErr.StatusCode >= 500 {
			return true
		}
		// 4xx (not 429): not retryable.
		return false
	}

	// Non-HTTP errors (network, DNS, timeouts, bad JSON bodies): retryable.
	return true
}

// RetryFetcher is a decorator that retries transient failures with exponential
// backoff and jitter before delegating to the wrapped PageFetcher.
type RetryFetcher struct {
	inner  model.PageFetcher
	policy Policy
	logger *slog.Logger
}

// NewRetryFetcher wraps a PageFetcher with retry logic.
func NewRetryFetcher(inner model.PageFetcher, policy Policy, logger *slog.Logger) *RetryFetcher {
	return &RetryFetcher{
		inner:  inner,
		policy: policy,
		logger: logger,
	}
}

// FetchPage fetches one page, retrying on transient errors. Exhaustion is
// reported as a *model.FetchError.
func (f *RetryFetcher) FetchPage(ctx context.Context, days, page int) (model.Page, error) {
	op := fmt.Sprintf("fetch page %d", page)
	p, err := Do(ctx, f.policy, f.logger, op, func(ctx context.Context, _ int) (model.Page, error) {
		return f.inner.FetchPage(ctx, days, page)
	})
	if err != nil {
		return model.Page{}, &model.FetchError{Page: page, Err: err}
	}
	return p, nil
}
