package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Closer allows flushing and stopping the async handler.
type Closer interface {
	Close()
}

// nopCloser is a no-op Closer for synchronous mode.
type nopCloser struct{}

func (nopCloser) Close() {}

// asyncQueue is shared by an AsyncHandler and every handler derived from it
// through WithAttrs/WithGroup.
type asyncQueue struct {
	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	ch      chan queuedRecord
	wg      sync.WaitGroup
	dropped atomic.Int64
}

type queuedRecord struct {
	h   slog.Handler
	rec slog.Record
}

// AsyncHandler hands records to background workers over a bounded channel so
// logging never blocks the connection read loop. Records are dropped, and
// counted, when the channel is full or the handler is closed.
type AsyncHandler struct {
	inner slog.Handler
	q     *asyncQueue
}

// NewAsyncHandler creates an AsyncHandler with the given channel capacity and worker count.
func NewAsyncHandler(inner slog.Handler, chanSize, workers int) *AsyncHandler {
	q := &asyncQueue{ch: make(chan queuedRecord, chanSize)}
	for range workers {
		q.wg.Add(1)
		go q.drain()
	}
	return &AsyncHandler{inner: inner, q: q}
}

func (q *asyncQueue) drain() {
	defer q.wg.Done()
	for qr := range q.ch {
		_ = qr.h.Handle(context.Background(), qr.rec)
	}
}

// Enabled delegates to the inner handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues a copy of the record for the handler it was logged through.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	h.q.mu.RLock()
	defer h.q.mu.RUnlock()

	if h.q.closed {
		h.q.dropped.Add(1)
		return nil
	}
	select {
	case h.q.ch <- queuedRecord{h: h.inner, rec: rec.Clone()}:
	default:
		h.q.dropped.Add(1)
	}
	return nil
}

// WithAttrs returns a handler sharing the same queue with attrs added to the inner handler.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), q: h.q}
}

// WithGroup returns a handler sharing the same queue with the group opened on the inner handler.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), q: h.q}
}

// DroppedCount returns the number of dropped records.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.q.dropped.Load()
}

// Close stops accepting records and waits for the workers to drain what was
// queued. Safe to call more than once.
func (h *AsyncHandler) Close() {
	h.q.mu.Lock()
	if h.q.closed {
		h.q.mu.Unlock()
		return
	}
	h.q.closed = true
	close(h.q.ch)
	h.q.mu.Unlock()

	h.q.wg.Wait()
}
