package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/logger"
	"github.com/nuaibria/travelsync/internal/port/journey"
)

// Command names used in logs, spans and metrics.
const (
	CommandStart  = "start"
	CommandChoose = "choose"
	CommandCancel = "cancel"
	CommandStatus = "status"
)

// Dispatcher issues commands against the remote journey engine for one
// actor and feeds their outcomes to the reconciler.
type Dispatcher struct {
	remote  journey.Remote
	store   *Store
	rec     *Reconciler
	actorID string
	metrics *otel.Metrics
	status  singleflight.Group
}

// NewDispatcher creates a dispatcher. metrics may be nil.
func NewDispatcher(remote journey.Remote, store *Store, rec *Reconciler, actorID string, metrics *otel.Metrics) *Dispatcher {
	return &Dispatcher{
		remote:  remote,
		store:   store,
		rec:     rec,
		actorID: actorID,
		metrics: metrics,
	}
}

// StartJourney starts a journey to destinationID. An empty mode selects
// travel.DefaultMode. On success the new session replaces all journey state.
func (d *Dispatcher) StartJourney(ctx context.Context, destinationID string, mode travel.Mode) (*travel.Session, error) {
	if mode == "" {
		mode = travel.DefaultMode
	}
	req := travel.StartRequest{ActorID: d.actorID, DestinationID: destinationID, Mode: mode}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var started *travel.Session
	err := d.run(ctx, CommandStart, func(ctx context.Context) error {
		s, err := d.remote.Start(ctx, req)
		if err != nil {
			return err
		}
		started = s
		d.rec.Reconcile(ctx, SourcePull, JourneyStarted{Session: *s})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return started, nil
}

// SubmitChoice resolves the active event with label. It fails locally, with
// no network call, when there is no session or no active event. The remote
// decides whether label is acceptable.
func (d *Dispatcher) SubmitChoice(ctx context.Context, label string) error {
	snap := d.store.Snapshot()
	if snap.Session == nil || snap.ActiveEvent == nil {
		slog.Debug("choice rejected locally", "actor_id", d.actorID, "reason", "no active event")
		return fmt.Errorf("submit choice: no active travel session or event: %w", domain.ErrPrecondition)
	}

	req := travel.ChoiceRequest{
		ActorID:   d.actorID,
		SessionID: snap.Session.ID,
		EventID:   snap.ActiveEvent.ID,
		Choice:    label,
	}
	return d.run(ctx, CommandChoose, func(ctx context.Context) error {
		if err := d.remote.Choose(ctx, req); err != nil {
			return err
		}
		d.rec.Reconcile(ctx, SourcePull, ChoiceAccepted{EventID: req.EventID})
		return nil
	})
}

// CancelJourney cancels the current session. It fails locally, with no
// network call, when there is no session.
func (d *Dispatcher) CancelJourney(ctx context.Context) error {
	snap := d.store.Snapshot()
	if snap.Session == nil {
		slog.Debug("cancel rejected locally", "actor_id", d.actorID, "reason", "no session")
		return fmt.Errorf("cancel journey: no active travel session: %w", domain.ErrPrecondition)
	}

	req := travel.CancelRequest{ActorID: d.actorID, SessionID: snap.Session.ID}
	return d.run(ctx, CommandCancel, func(ctx context.Context) error {
		if err := d.remote.Cancel(ctx, req); err != nil {
			return err
		}
		d.rec.Reconcile(ctx, SourcePull, JourneyCancelled{SessionID: req.SessionID})
		return nil
	})
}

// FetchStatus pulls the authoritative view and replaces all journey state
// with it. Concurrent calls share one round trip.
func (d *Dispatcher) FetchStatus(ctx context.Context) error {
	return d.run(ctx, CommandStatus, d.pullStatus)
}

// Refresh pulls the status like FetchStatus but leaves Loading and Error
// untouched, so background pulls do not flicker a surfaced command error. A
// failure is logged and returned only.
func (d *Dispatcher) Refresh(ctx context.Context) error {
	return d.observe(ctx, CommandStatus, d.pullStatus)
}

func (d *Dispatcher) pullStatus(ctx context.Context) error {
	_, err, _ := d.status.Do(d.actorID, func() (any, error) {
		v, err := d.remote.Status(ctx, d.actorID)
		if err != nil {
			return nil, err
		}
		d.rec.Reconcile(ctx, SourcePull, StatusResync{View: *v})
		return nil, nil
	})
	return err
}

// run wraps one command round trip with loading bookkeeping and error
// reporting on top of observe.
func (d *Dispatcher) run(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	d.store.BeginCommand()
	defer d.store.EndCommand()

	err := d.observe(ctx, name, fn)
	if err != nil {
		d.rec.Reconcile(ctx, SourcePull, CommandFailed{Command: name, Err: err})
	}
	return err
}

// observe gives fn a request ID, a span, metrics and a log line.
func (d *Dispatcher) observe(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if logger.RequestID(ctx) == "" {
		ctx = logger.WithRequestID(ctx, uuid.NewString())
	}
	ctx, span := otel.StartCommandSpan(ctx, name, d.actorID)
	log := logger.From(ctx, slog.Default()).With("command", name, "actor_id", d.actorID)

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	d.metrics.CommandDone(ctx, name, elapsed, err)
	otel.EndSpan(span, err)

	if err != nil {
		log.Warn("command failed", "error", err, "duration", elapsed)
		return err
	}
	log.Debug("command done", "duration", elapsed)
	return nil
}
