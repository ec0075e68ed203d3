package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/port/pushchannel"
	"github.com/nuaibria/travelsync/internal/wire"
)

var errConnClosed = errors.New("fake conn closed")

// fakeConn is an in-memory push channel.
type fakeConn struct {
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once

	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case raw := <-c.inbound:
		return raw, nil
	case <-c.closed:
		return nil, errConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(_ context.Context, frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, frame)
	return nil
}

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.writes...)
}

// push delivers a server message to the client.
func (c *fakeConn) push(msg wire.Message) {
	raw, err := wire.Encode(msg)
	if err != nil {
		panic(err)
	}
	c.inbound <- raw
}

// fakeDialer hands out fakeConns and reports each one on dialed.
type fakeDialer struct {
	mu    sync.Mutex
	fail  error
	conns []*fakeConn
	dials int

	dialed chan *fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{dialed: make(chan *fakeConn, 16)}
}

func (d *fakeDialer) Dial(context.Context) (pushchannel.Conn, error) {
	d.mu.Lock()
	d.dials++
	if d.fail != nil {
		err := d.fail
		d.mu.Unlock()
		d.dialed <- nil
		return nil, err
	}
	c := newFakeConn()
	d.conns = append(d.conns, c)
	d.mu.Unlock()
	d.dialed <- c
	return c, nil
}

func (d *fakeDialer) setFail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
}

func (d *fakeDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

// fakeTimers replaces time.AfterFunc with manually fired timers.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	owner   *fakeTimers
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	was := !t.stopped && !t.fired
	t.stopped = true
	return was
}

func (ft *fakeTimers) afterFunc(d time.Duration, f func()) stopper {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{owner: ft, d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

// pending returns the timers that have neither fired nor been stopped.
func (ft *fakeTimers) pending() []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	var out []*fakeTimer
	for _, t := range ft.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the single pending timer.
func (ft *fakeTimers) fire() bool {
	p := ft.pending()
	if len(p) != 1 {
		return false
	}
	t := p[0]
	ft.mu.Lock()
	t.fired = true
	ft.mu.Unlock()
	t.f()
	return true
}

// fakeRemote records every command and answers from its fields.
type fakeRemote struct {
	mu sync.Mutex

	startSession *travel.Session
	startErr     error
	chooseErr    error
	cancelErr    error
	status       *travel.StatusView
	statusErr    error
	statusGate   chan struct{}

	starts   []travel.StartRequest
	chooses  []travel.ChoiceRequest
	cancels  []travel.CancelRequest
	statuses int
}

func (r *fakeRemote) Start(_ context.Context, req travel.StartRequest) (*travel.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, req)
	if r.startErr != nil {
		return nil, r.startErr
	}
	s := *r.startSession
	return &s, nil
}

func (r *fakeRemote) Choose(_ context.Context, req travel.ChoiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chooses = append(r.chooses, req)
	return r.chooseErr
}

func (r *fakeRemote) Cancel(_ context.Context, req travel.CancelRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancels = append(r.cancels, req)
	return r.cancelErr
}

func (r *fakeRemote) Status(ctx context.Context, _ string) (*travel.StatusView, error) {
	r.mu.Lock()
	gate := r.statusGate
	r.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses++
	if r.statusErr != nil {
		return nil, r.statusErr
	}
	if r.status == nil {
		return &travel.StatusView{}, nil
	}
	v := *r.status
	return &v, nil
}

func (r *fakeRemote) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.starts) + len(r.chooses) + len(r.cancels) + r.statuses
}

func (r *fakeRemote) setStatus(v *travel.StatusView, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = v
	r.statusErr = err
}

func ruinsSession(traveled float64) travel.Session {
	return travel.Session{
		ID:              "s1",
		ActorID:         "hero",
		DestinationID:   "ruins",
		DestinationName: "Ancient Ruins",
		MilesTraveled:   traveled,
		MilesTotal:      10,
		DangerLevel:     2,
		Status:          travel.StatusInProgress,
		Mode:            travel.ModeSmart,
		StartedAt:       time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func wolvesEvent() travel.Event {
	return travel.Event{
		ID:          "e1",
		Description: "Wolves block the road",
		Timestamp:   time.Date(2024, 5, 1, 10, 5, 0, 0, time.UTC),
		DangerLevel: 3,
		Choices:     []travel.Choice{{Label: "Fight"}},
	}
}

func quietEvent(id string) travel.Event {
	return travel.Event{
		ID:          id,
		Description: "A quiet stretch of road",
		Timestamp:   time.Date(2024, 5, 1, 10, 1, 0, 0, time.UTC),
		DangerLevel: 1,
	}
}
