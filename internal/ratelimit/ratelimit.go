package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/amishk599/offerradar/internal/model"
)

// RateLimitedFetcher is a decorator that paces page requests to the offers API
// before delegating to the wrapped PageFetcher. Concurrent page workers share it.
type RateLimitedFetcher struct {
	inner   model.PageFetcher
	limiter *rate.Limiter
}

// NewRateLimitedFetcher wraps a PageFetcher so consecutive requests are at least
// minDelay apart. A zero minDelay disables pacing.
func NewRateLimitedFetcher(inner model.PageFetcher, minDelay time.Duration) *RateLimitedFetcher {
	limit := rate.Inf
	if minDelay > 0 {
		limit = rate.Every(minDelay)
	}
	return &RateLimitedFetcher{
		inner:   inner,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// FetchPage waits for the limiter to allow a request, then delegates to the
// wrapped fetcher.
func (f *RateLimitedFetcher) FetchPage(ctx context.Context, days, page int) (model.Page, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return model.Page{}, fmt.Errorf("rate limiter wait for page %d: %w", page, err)
	}
	return f.inner.FetchPage(ctx, days, page)
}
