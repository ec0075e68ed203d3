package service

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Lifecycle activates and deactivates the sync core: the push channel, the
// initial status pull, resyncs after reconnects, and the optional poller.
type Lifecycle struct {
	conn   *ConnectionManager
	disp   *Dispatcher
	poller *Poller

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ctx    context.Context
}

// NewLifecycle creates a lifecycle controller. poller may be nil.
func NewLifecycle(conn *ConnectionManager, disp *Dispatcher, poller *Poller) *Lifecycle {
	return &Lifecycle{conn: conn, disp: disp, poller: poller}
}

// Activate connects the push channel and pulls the status concurrently. The
// returned error is the initial pull's; the connection keeps retrying
// regardless.
func (l *Lifecycle) Activate(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.mu.Unlock()
		return nil
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	runCtx := l.ctx
	l.mu.Unlock()

	if l.poller != nil {
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			l.poller.Run(runCtx)
		}()
	}

	var g errgroup.Group
	g.Go(func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.cancel != nil {
			l.conn.Connect(runCtx)
		}
		return nil
	})
	g.Go(func() error {
		return l.disp.FetchStatus(runCtx)
	})
	return g.Wait()
}

// Resync pulls the status in the background. It is a no-op when inactive.
func (l *Lifecycle) Resync() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		return
	}
	ctx := l.ctx
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.disp.Refresh(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("resync after reconnect failed", "error", err)
		}
	}()
}

// Deactivate tears the push channel down and stops background work. It runs
// even if Activate never completed and is safe to call more than once.
func (l *Lifecycle) Deactivate() {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.mu.Unlock()

	l.conn.Teardown()
	l.wg.Wait()
}

// HandleOpen resyncs after the push channel reopens.
func (l *Lifecycle) HandleOpen(reconnect bool) {
	if reconnect {
		l.Resync()
	}
}
