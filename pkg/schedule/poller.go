// Package schedule drives the watch loop: one check at a time, on a fixed
// interval, until the context is cancelled.
package schedule

import (
	"context"
	"sync"
	"time"
)

// CheckFunc performs one poll. Errors are reported to OnError and do not stop
// the loop.
type CheckFunc func(ctx context.Context) error

// Poller runs a check on a fixed interval. Checks never overlap; a slow check
// simply delays the next tick's work.
type Poller struct {
	Interval time.Duration
	Check    CheckFunc
	OnError  func(error)

	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
}

// NewPoller builds a poller. A nil onError discards check failures.
func NewPoller(interval time.Duration, check CheckFunc, onError func(error)) *Poller {
	if onError == nil {
		onError = func(error) {}
	}
	return &Poller{Interval: interval, Check: check, OnError: onError}
}

// Start begins polling in the background. The first check runs immediately.
// Starting a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.running = true
	p.mu.Unlock()

	go p.loop(ctx)
}

// Stop halts the loop.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
	p.running = false
}

// Running reports whether the poller is active.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *Poller) loop(ctx context.Context) {
	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	p.run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.run(ctx)
		}
	}
}

func (p *Poller) run(ctx context.Context) {
	if err := p.Check(ctx); err != nil && ctx.Err() == nil {
		p.OnError(err)
	}
}
