package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/offerradar/internal/model"
)

type countingFetcher struct {
	calls atomic.Int32
}

func (c *countingFetcher) FetchPage(_ context.Context, _, page int) (model.Page, error) {
	c.calls.Add(1)
	return model.Page{Number: page}, nil
}

func TestRateLimitedFetcher_FirstRequestImmediate(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, time.Hour)

	start := time.Now()
	if _, err := f.FetchPage(context.Background(), 7, 1); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("first request waited %v, want immediate", elapsed)
	}
}

func TestRateLimitedFetcher_SpacesRequests(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, 50*time.Millisecond)

	start := time.Now()
	for page := 1; page <= 3; page++ {
		if _, err := f.FetchPage(context.Background(), 7, page); err != nil {
			t.Fatalf("FetchPage(%d): %v", page, err)
		}
	}
	// Two gaps of ~50ms after the first immediate call.
	if elapsed := time.Since(start); elapsed < 90*time.Millisecond {
		t.Errorf("3 requests took %v, want >= ~100ms", elapsed)
	}
	if got := inner.calls.Load(); got != 3 {
		t.Errorf("inner calls = %d, want 3", got)
	}
}

func TestRateLimitedFetcher_ZeroDelayDisablesPacing(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, 0)

	start := time.Now()
	for page := 1; page <= 20; page++ {
		if _, err := f.FetchPage(context.Background(), 7, page); err != nil {
			t.Fatalf("FetchPage(%d): %v", page, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unpaced requests took %v", elapsed)
	}
}

func TestRateLimitedFetcher_ContextCancelled(t *testing.T) {
	inner := &countingFetcher{}
	f := NewRateLimitedFetcher(inner, time.Hour)

	// Consume the single burst token.
	if _, err := f.FetchPage(context.Background(), 7, 1); err != nil {
		t.Fatalf("FetchPage: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchPage(ctx, 7, 2)
	if err == nil {
		t.Fatal("expected error from cancelled context")
	}
	if inner.calls.Load() != 1 {
		t.Errorf("inner should not be called after cancelled wait")
	}
}
