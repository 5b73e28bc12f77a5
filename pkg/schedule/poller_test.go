package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestPollerRunsImmediatelyAndOnInterval(t *testing.T) {
	var checks atomic.Int32
	p := NewPoller(10*time.Millisecond, func(context.Context) error {
		checks.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	deadline := time.After(time.Second)
	for checks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 checks, got %d", checks.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestPollerReportsCheckErrors(t *testing.T) {
	boom := errors.New("snapshot missing")
	errs := make(chan error, 1)
	p := NewPoller(time.Hour, func(context.Context) error {
		return boom
	}, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	select {
	case err := <-errs:
		if !errors.Is(err, boom) {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("error callback never fired")
	}
}

func TestPollerStopHaltsLoop(t *testing.T) {
	var checks atomic.Int32
	p := NewPoller(5*time.Millisecond, func(context.Context) error {
		checks.Add(1)
		return nil
	}, nil)

	p.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	p.Stop()
	if p.Running() {
		t.Fatalf("poller still reports running after Stop")
	}

	at := checks.Load()
	time.Sleep(30 * time.Millisecond)
	if checks.Load() != at {
		t.Fatalf("checks continued after Stop: %d -> %d", at, checks.Load())
	}
}

func TestPollerStartIsIdempotent(t *testing.T) {
	var checks atomic.Int32
	p := NewPoller(time.Hour, func(context.Context) error {
		checks.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	p.Start(ctx)
	defer p.Stop()

	time.Sleep(20 * time.Millisecond)
	if got := checks.Load(); got != 1 {
		t.Fatalf("double Start ran %d immediate checks, want 1", got)
	}
}
