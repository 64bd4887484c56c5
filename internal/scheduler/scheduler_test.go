package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amishk599/offerradar/internal/pipeline"
)

// --- Mock implementations ---

type CountingRunner struct {
	calls   atomic.Int32
	running atomic.Int32
	overlap atomic.Bool
	delay   time.Duration
	err     error
}

func (r *CountingRunner) Run(ctx context.Context) (pipeline.Summary, error) {
	if r.running.Add(1) > 1 {
		r.overlap.Store(true)
	}
	defer r.running.Add(-1)
	r.calls.Add(1)
	if r.delay > 0 {
		select {
		case <-time.After(r.delay):
		case <-ctx.Done():
		}
	}
	return pipeline.Summary{RunID: "test"}, r.err
}

type CountingCleaner struct {
	calls     atomic.Int32
	retention atomic.Int64
}

func (c *CountingCleaner) Cleanup(olderThan time.Duration) error {
	c.calls.Add(1)
	c.retention.Store(int64(olderThan))
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- Tests ---

func TestRun_CancelReturnsPromptly(t *testing.T) {
	s := NewScheduler(&CountingRunner{}, 1*time.Hour, nil, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil error on cancel, got: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not return within 2s after cancel")
	}
}

func TestRun_RunsImmediatelyThenOnInterval(t *testing.T) {
	runner := &CountingRunner{}
	s := NewScheduler(runner, 100*time.Millisecond, nil, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	// Allow time for at least two full passes (run → sleep interval → run).
	time.Sleep(250 * time.Millisecond)
	cancel()
	<-done

	if got := runner.calls.Load(); got < 2 {
		t.Errorf("runner calls = %d, want >= 2", got)
	}
}

func TestRun_FailedRunDoesNotStopLoop(t *testing.T) {
	runner := &CountingRunner{err: errors.New("fetch page 2: HTTP 503")}
	s := NewScheduler(runner, 50*time.Millisecond, nil, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(180 * time.Millisecond)
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run() = %v, want nil", err)
	}

	if got := runner.calls.Load(); got < 2 {
		t.Errorf("runner calls = %d, want >= 2 despite failures", got)
	}
}

func TestRun_RunsNeverOverlap(t *testing.T) {
	runner := &CountingRunner{delay: 80 * time.Millisecond}
	s := NewScheduler(runner, 10*time.Millisecond, nil, 0, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	if runner.overlap.Load() {
		t.Error("two runs were in flight at the same time")
	}
}

func TestRun_CleansUpLedgerAfterEachRun(t *testing.T) {
	cleaner := &CountingCleaner{}
	s := NewScheduler(&CountingRunner{}, time.Hour, cleaner, 90*24*time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	if got := cleaner.calls.Load(); got != 1 {
		t.Errorf("cleanup calls = %d, want 1", got)
	}
	if got := time.Duration(cleaner.retention.Load()); got != 90*24*time.Hour {
		t.Errorf("retention = %v, want 2160h", got)
	}
}
