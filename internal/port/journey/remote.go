// Package journey defines the port for the request/response command endpoints
// of the remote journey engine.
package journey

import (
	"context"

	"github.com/nuaibria/travelsync/internal/domain/travel"
)

// Remote issues commands against the remote journey engine. Rejections are
// returned as errors wrapping the domain sentinels.
type Remote interface {
	// Start begins a journey and returns the new session.
	Start(ctx context.Context, req travel.StartRequest) (*travel.Session, error)
	// Choose resolves the active event of a session.
	Choose(ctx context.Context, req travel.ChoiceRequest) error
	// Cancel cancels a session.
	Cancel(ctx context.Context, req travel.CancelRequest) error
	// Status returns the authoritative view of the actor's journey.
	Status(ctx context.Context, actorID string) (*travel.StatusView, error)
}

// SessionLookup reads a single session by id, independent of the actor's
// current journey.
type SessionLookup interface {
	SessionStatus(ctx context.Context, sessionID string) (*travel.StatusView, error)
}
