package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/port/pushchannel"
	"github.com/nuaibria/travelsync/internal/wire"
)

// ConnState is the state of the push channel.
type ConnState int

const (
	StateIdle ConnState = iota
	StateConnecting
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// DefaultReconnectDelay is the fixed delay before reopening a closed channel.
const DefaultReconnectDelay = 5 * time.Second

// stopper is a pending timer.
type stopper interface {
	Stop() bool
}

// ConnectionOptions configures a ConnectionManager.
type ConnectionOptions struct {
	ActorID        string
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	Metrics        *otel.Metrics
	// OnOpen runs on the channel's goroutine after every successful open.
	// reconnect is false for the first open after Connect.
	OnOpen func(reconnect bool)
	// OnStateChange runs after the manager's lock is released, in transition
	// order. A burst of transitions may be coalesced to the newest. It may
	// read State but must not call Teardown.
	OnStateChange func(ConnState)
}

// ConnectionManager owns the push channel and its single reconnect timer.
// Connect and Teardown are its only mutators.
type ConnectionManager struct {
	dialer pushchannel.Dialer
	rec    *Reconciler
	opts   ConnectionOptions

	afterFunc func(time.Duration, func()) stopper // for testing

	mu       sync.Mutex
	state    ConnState
	seq      uint64
	pending  []stateChange
	stopped  bool
	everOpen bool
	gen      uint64
	attempt  int
	conn     pushchannel.Conn
	timer    stopper
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	notifyMu  sync.Mutex
	delivered uint64
}

type stateChange struct {
	seq   uint64
	state ConnState
}

// NewConnectionManager creates a manager in the Idle state.
func NewConnectionManager(dialer pushchannel.Dialer, rec *Reconciler, opts ConnectionOptions) *ConnectionManager {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	return &ConnectionManager{
		dialer: dialer,
		rec:    rec,
		opts:   opts,
		afterFunc: func(d time.Duration, f func()) stopper {
			return time.AfterFunc(d, f)
		},
	}
}

// State returns the current connection state.
func (m *ConnectionManager) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect opens the channel. It is a no-op while Connecting or Open. ctx
// bounds the manager's lifetime; Teardown stops it earlier.
func (m *ConnectionManager) Connect(ctx context.Context) {
	m.mu.Lock()
	defer m.unlockAndNotify()

	if m.state == StateConnecting || m.state == StateOpen {
		return
	}
	if m.stopped || m.ctx == nil || m.ctx.Err() != nil {
		if m.cancel != nil {
			m.cancel()
		}
		m.ctx, m.cancel = context.WithCancel(ctx)
		m.stopped = false
		m.everOpen = false
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	m.dialLocked()
}

// Teardown cancels any pending reconnect, closes the channel, and waits for
// the channel goroutine to exit. No frame is reconciled after it returns. It
// is safe to call in any state and more than once.
func (m *ConnectionManager) Teardown() {
	m.mu.Lock()
	m.stopped = true
	m.gen++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.cancel != nil {
		m.cancel()
	}
	conn := m.conn
	m.conn = nil
	if m.state != StateIdle {
		m.setStateLocked(StateIdle)
	}
	m.unlockAndNotify()

	if conn != nil {
		_ = conn.Close()
	}
	m.wg.Wait()
}

// dialLocked must be called with m.mu held.
func (m *ConnectionManager) dialLocked() {
	m.gen++
	m.attempt++
	m.setStateLocked(StateConnecting)
	m.wg.Add(1)
	go m.run(m.ctx, m.gen, m.attempt)
}

func (m *ConnectionManager) setStateLocked(s ConnState) {
	if m.state == s {
		return
	}
	slog.Info("push channel state", "actor_id", m.opts.ActorID, "from", m.state.String(), "to", s.String())
	m.state = s
	if m.opts.OnStateChange != nil {
		m.seq++
		m.pending = append(m.pending, stateChange{seq: m.seq, state: s})
	}
}

// unlockAndNotify releases m.mu, then hands queued transitions to
// OnStateChange. Transitions older than one already delivered are skipped, so
// the hook never observes the state going backwards.
func (m *ConnectionManager) unlockAndNotify() {
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	for _, c := range pending {
		if c.seq <= m.delivered {
			continue
		}
		m.delivered = c.seq
		m.opts.OnStateChange(c.state)
	}
}

// currentLocked reports whether gen still owns the channel.
func (m *ConnectionManager) currentLocked(gen uint64) bool {
	return !m.stopped && gen == m.gen
}

func (m *ConnectionManager) current(gen uint64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentLocked(gen)
}

func (m *ConnectionManager) run(ctx context.Context, gen uint64, attempt int) {
	defer m.wg.Done()

	conn, err := m.dial(ctx, attempt)

	m.mu.Lock()
	if !m.currentLocked(gen) {
		m.mu.Unlock()
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		slog.Warn("push channel open failed", "actor_id", m.opts.ActorID, "attempt", attempt, "error", err)
		m.closedLocked(ctx)
		m.unlockAndNotify()
		return
	}
	m.conn = conn
	reconnect := m.everOpen
	m.everOpen = true
	m.setStateLocked(StateOpen)
	m.unlockAndNotify()

	if m.opts.OnOpen != nil {
		m.opts.OnOpen(reconnect)
	}
	m.requestStatus(ctx, conn)
	m.readLoop(ctx, gen, conn)
	_ = conn.Close()

	m.mu.Lock()
	if m.currentLocked(gen) {
		m.conn = nil
		m.closedLocked(ctx)
	}
	m.unlockAndNotify()
}

func (m *ConnectionManager) dial(ctx context.Context, attempt int) (pushchannel.Conn, error) {
	if m.opts.DialTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.opts.DialTimeout)
		defer cancel()
	}
	ctx, span := otel.StartDialSpan(ctx, m.opts.ActorID, attempt)
	conn, err := m.dialer.Dial(ctx)
	otel.EndSpan(span, err)
	return conn, err
}

func (m *ConnectionManager) requestStatus(ctx context.Context, conn pushchannel.Conn) {
	frame, err := wire.EncodeStatusRequest(m.opts.ActorID)
	if err != nil {
		slog.Error("encode status request", "error", err)
		return
	}
	if err := conn.Write(ctx, frame); err != nil {
		slog.Warn("status request failed", "actor_id", m.opts.ActorID, "error", err)
	}
}

func (m *ConnectionManager) readLoop(ctx context.Context, gen uint64, conn pushchannel.Conn) {
	for {
		raw, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, context.Canceled) {
				slog.Info("push channel closed", "actor_id", m.opts.ActorID, "error", err)
			}
			return
		}

		msg, err := wire.Decode(raw)
		if err != nil {
			slog.Warn("dropping undecodable frame", "actor_id", m.opts.ActorID, "error", err)
			m.opts.Metrics.FrameDropped(ctx)
			continue
		}

		if !m.current(gen) {
			return
		}
		m.rec.Reconcile(ctx, SourcePush, msg)
	}
}

// closedLocked moves to Closed and schedules the single reconnect timer.
// Must be called with m.mu held.
func (m *ConnectionManager) closedLocked(ctx context.Context) {
	m.setStateLocked(StateClosed)
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if ctx.Err() != nil {
		return
	}

	m.opts.Metrics.Reconnect(ctx)
	slog.Info("push channel reconnect scheduled", "actor_id", m.opts.ActorID, "delay", m.opts.ReconnectDelay)

	var t stopper
	t = m.afterFunc(m.opts.ReconnectDelay, func() {
		m.mu.Lock()
		defer m.unlockAndNotify()
		if m.stopped || m.timer != t || m.state != StateClosed {
			return
		}
		m.timer = nil
		m.dialLocked()
	})
	m.timer = t
}
