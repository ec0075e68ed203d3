package service

import (
	"context"
	"log/slog"

	"github.com/nuaibria/travelsync/internal/adapter/otel"
	"github.com/nuaibria/travelsync/internal/wire"
)

// Reconciler merges push frames and command outcomes into the store. It is
// the only path through which journey state changes.
type Reconciler struct {
	store   *Store
	metrics *otel.Metrics
}

// NewReconciler creates a reconciler over store. metrics may be nil.
func NewReconciler(store *Store, metrics *otel.Metrics) *Reconciler {
	return &Reconciler{store: store, metrics: metrics}
}

// Reconcile applies msg to the store. Progress is last-applied-wins; events
// are keyed by id so their arrival order does not matter.
func (r *Reconciler) Reconcile(ctx context.Context, src Source, msg wire.Message) {
	if src == SourcePush {
		r.metrics.FrameReceived(ctx, msg.Type())
	}

	switch m := msg.(type) {
	case wire.ProgressUpdate:
		r.store.ApplyProgress(m.Session)
	case wire.JourneyComplete:
		r.store.ApplyComplete(m.Session)
	case wire.NarrativeEvent:
		r.store.ApplyEvent(m.Event)
	case wire.StreamError:
		r.store.ApplyCommandError(m.Reason)

	case StatusResync:
		r.store.Replace(m.View)
	case JourneyStarted:
		r.store.StartSession(m.Session)
	case ChoiceAccepted:
		r.store.ClearActiveEvent(m.EventID)
	case JourneyCancelled:
		r.store.Reset()
	case CommandFailed:
		r.store.ApplyCommandError(m.Err.Error())

	default:
		slog.Warn("unhandled message", "type", msg.Type(), "source", src.String())
	}
}
