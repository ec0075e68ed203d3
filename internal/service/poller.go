package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// PollerOptions configures the fallback status poller.
type PollerOptions struct {
	Interval     time.Duration
	SlowInterval time.Duration
	SlowAfter    time.Duration
	MaxBackoff   time.Duration
}

// Poller pulls the status while the push channel is down. It polls every
// Interval, slows to SlowInterval once SlowAfter has passed without a
// successful pull, and backs off exponentially while pulls fail.
type Poller struct {
	fetch     func(ctx context.Context) error
	connected func() bool
	opts      PollerOptions
	now       func() time.Time // for testing
}

// NewPoller creates a poller. fetch performs one pull; connected reports
// whether the push channel is currently open.
func NewPoller(fetch func(ctx context.Context) error, connected func() bool, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.SlowInterval <= 0 {
		opts.SlowInterval = 5 * time.Second
	}
	if opts.SlowAfter <= 0 {
		opts.SlowAfter = 30 * time.Second
	}
	if opts.MaxBackoff <= 0 {
		opts.MaxBackoff = 10 * time.Second
	}
	return &Poller{fetch: fetch, connected: connected, opts: opts, now: time.Now}
}

func (p *Poller) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 1500 * time.Millisecond
	b.Multiplier = 1.5
	b.RandomizationFactor = 0
	b.MaxInterval = p.opts.MaxBackoff
	b.Reset()
	return b
}

// Run polls until ctx is done.
func (p *Poller) Run(ctx context.Context) {
	b := p.newBackOff()
	lastSuccess := p.now()
	wait := p.opts.Interval

	timer := time.NewTimer(wait)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if p.connected() {
			lastSuccess = p.now()
			b.Reset()
			timer.Reset(p.opts.Interval)
			continue
		}

		next := p.opts.Interval
		if p.now().Sub(lastSuccess) > p.opts.SlowAfter {
			next = p.opts.SlowInterval
		}

		if err := p.fetch(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			next = b.NextBackOff()
			slog.Debug("status poll failed", "error", err, "retry_in", next)
		} else {
			lastSuccess = p.now()
			b.Reset()
		}
		timer.Reset(next)
	}
}
