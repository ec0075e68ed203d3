package service

import (
	"context"
	"time"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/port/journey"
	"github.com/nuaibria/travelsync/internal/port/pushchannel"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	ActorID        string
	ReconnectDelay time.Duration
	DialTimeout    time.Duration
	// Poll enables the fallback poller when non-nil.
	Poll    *PollerOptions
	Metrics *otel.Metrics
}

// Client wires the sync core for one actor.
type Client struct {
	Store      *Store
	Reconciler *Reconciler
	Conn       *ConnectionManager
	Dispatcher *Dispatcher
	Lifecycle  *Lifecycle
}

// NewClient builds the store, reconciler, connection manager, dispatcher and
// lifecycle controller and connects their hooks.
func NewClient(dialer pushchannel.Dialer, remote journey.Remote, opts ClientOptions) *Client {
	store := NewStore()
	rec := NewReconciler(store, opts.Metrics)
	disp := NewDispatcher(remote, store, rec, opts.ActorID, opts.Metrics)

	c := &Client{Store: store, Reconciler: rec, Dispatcher: disp}

	c.Conn = NewConnectionManager(dialer, rec, ConnectionOptions{
		ActorID:        opts.ActorID,
		ReconnectDelay: opts.ReconnectDelay,
		DialTimeout:    opts.DialTimeout,
		Metrics:        opts.Metrics,
		OnOpen:         func(reconnect bool) { c.Lifecycle.HandleOpen(reconnect) },
		OnStateChange:  advisoryHook(store),
	})

	var poller *Poller
	if opts.Poll != nil {
		poller = NewPoller(disp.Refresh, func() bool { return c.Conn.State() == StateOpen }, *opts.Poll)
	}
	c.Lifecycle = NewLifecycle(c.Conn, disp, poller)
	return c
}

// Activate starts synchronization. See Lifecycle.Activate.
func (c *Client) Activate(ctx context.Context) error { return c.Lifecycle.Activate(ctx) }

// Deactivate stops synchronization. See Lifecycle.Deactivate.
func (c *Client) Deactivate() { c.Lifecycle.Deactivate() }

// Snapshot returns the current journey state.
func (c *Client) Snapshot() Snapshot { return c.Store.Snapshot() }

// StartJourney starts a journey. See Dispatcher.StartJourney.
func (c *Client) StartJourney(ctx context.Context, destinationID string, mode travel.Mode) (*travel.Session, error) {
	return c.Dispatcher.StartJourney(ctx, destinationID, mode)
}

// SubmitChoice resolves the active event. See Dispatcher.SubmitChoice.
func (c *Client) SubmitChoice(ctx context.Context, label string) error {
	return c.Dispatcher.SubmitChoice(ctx, label)
}

// CancelJourney cancels the current journey. See Dispatcher.CancelJourney.
func (c *Client) CancelJourney(ctx context.Context) error {
	return c.Dispatcher.CancelJourney(ctx)
}

// FetchStatus resyncs from the remote. See Dispatcher.FetchStatus.
func (c *Client) FetchStatus(ctx context.Context) error {
	return c.Dispatcher.FetchStatus(ctx)
}

// advisoryHook shows AdvisoryDelayed whenever the channel is closed, whether
// it dropped or never opened, and keeps it through the retry until the channel
// opens or is torn down.
func advisoryHook(store *Store) func(ConnState) {
	return func(s ConnState) {
		switch s {
		case StateClosed:
			store.SetAdvisory(AdvisoryDelayed)
		case StateOpen, StateIdle:
			store.SetAdvisory("")
		}
	}
}
