package nats

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/port/pushchannel"
)

// ErrClosed is returned by Read once the underlying connection is gone.
var ErrClosed = errors.New("nats push channel closed")

const inboxSize = 64

// Dialer opens NATS push channels for one actor. Every Dial creates a fresh
// connection with client-side reconnects disabled; reconnect policy belongs
// to the caller.
type Dialer struct {
	url     string
	actorID string
	token   string
}

// NewDialer creates a Dialer for the NATS server at url.
func NewDialer(url, actorID, token string) *Dialer {
	return &Dialer{url: url, actorID: actorID, token: token}
}

// Dial connects and subscribes to the actor's events subject. Without a
// deadline on ctx the handshake is bounded by nats.DefaultTimeout.
func (d *Dialer) Dial(ctx context.Context) (pushchannel.Conn, error) {
	if err := validateActor(d.actorID); err != nil {
		return nil, err
	}
	ctx, cancel := boundedContext(ctx)
	defer cancel()

	c := &clientConn{
		inbox:  make(chan *nats.Msg, inboxSize),
		closed: make(chan struct{}),
		actor:  d.actorID,
	}

	opts := []nats.Option{
		nats.Name("travelsync-" + d.actorID),
		nats.NoReconnect(),
		nats.ClosedHandler(func(*nats.Conn) { c.markClosed() }),
	}
	deadline, _ := ctx.Deadline()
	opts = append(opts, nats.Timeout(time.Until(deadline)))
	if d.token != "" {
		opts = append(opts, nats.Token(d.token))
	}

	nc, err := nats.Connect(d.url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w: %w", d.url, domain.ErrTransport, err)
	}

	sub, err := nc.ChanSubscribe(EventsSubject(d.actorID), c.inbox)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe: %w: %w", domain.ErrTransport, err)
	}
	if err := nc.FlushWithContext(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats flush: %w: %w", domain.ErrTransport, err)
	}

	c.nc = nc
	c.sub = sub
	return c, nil
}

// boundedContext returns ctx with nats.DefaultTimeout applied when it carries
// no deadline. FlushWithContext refuses contexts without one.
func boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, nats.DefaultTimeout)
}

type clientConn struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	actor  string
	inbox  chan *nats.Msg
	once   sync.Once
	closed chan struct{}
}

func (c *clientConn) markClosed() {
	c.once.Do(func() { close(c.closed) })
}

func (c *clientConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case m := <-c.inbox:
		return m.Data, nil
	case <-c.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *clientConn) Write(_ context.Context, frame []byte) error {
	if err := c.nc.Publish(RequestsSubject(c.actor), frame); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

func (c *clientConn) Close() error {
	_ = c.sub.Unsubscribe()
	c.nc.Close()
	c.markClosed()
	return nil
}
