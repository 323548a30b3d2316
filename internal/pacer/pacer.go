// Package pacer spaces out narration work between pages.
package pacer

import (
	"context"
	"time"
)

// Pacer inserts a fixed delay between consecutive units of work. It does not
// adapt to service responses.
type Pacer struct {
	delay time.Duration
	sleep func(ctx context.Context, d time.Duration) error
}

func New(delay time.Duration) *Pacer {
	return &Pacer{delay: delay, sleep: sleepCtx}
}

// WithSleep replaces the wait primitive. Tests use it to observe waits
// without blocking.
func (p *Pacer) WithSleep(fn func(ctx context.Context, d time.Duration) error) *Pacer {
	p.sleep = fn
	return p
}

// Delay returns the configured gap.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// Wait blocks for the configured delay or until ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return ctx.Err()
	}
	return p.sleep(ctx, p.delay)
}

// After waits after item i of n, skipping the wait after the last item.
func (p *Pacer) After(ctx context.Context, i, n int) error {
	if i >= n-1 {
		return nil
	}
	return p.Wait(ctx)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
