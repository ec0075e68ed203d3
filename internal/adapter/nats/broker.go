package nats

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/nuaibria/travelsync/internal/wire"
)

// StatusSource answers GET_STATUS requests with the actor's current state.
type StatusSource interface {
	CurrentMessages(actorID string) []wire.Message
}

// Broker is the simulator side of the NATS push channel.
type Broker struct {
	nc     *nats.Conn
	sub    *nats.Subscription
	status StatusSource
}

// Connect establishes a connection to NATS and starts answering status
// requests from status. status may be nil.
func Connect(url string, status StatusSource) (*Broker, error) {
	nc, err := nats.Connect(url, nats.Name("travelsim"))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	b := &Broker{nc: nc, status: status}
	b.sub, err = nc.Subscribe(requestsWildcard, b.handleRequest)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("nats subscribe %s: %w", requestsWildcard, err)
	}

	slog.Info("nats connected", "url", url, "subject", requestsWildcard)
	return b, nil
}

func (b *Broker) handleRequest(msg *nats.Msg) {
	actorID, ok := actorFromRequestsSubject(msg.Subject)
	if !ok {
		return
	}
	requested, err := wire.DecodeStatusRequest(msg.Data)
	if err != nil {
		slog.Debug("ignoring client frame", "subject", msg.Subject, "error", err)
		return
	}
	if requested != "" && requested != actorID {
		slog.Warn("status request for foreign actor", "actor_id", actorID, "requested", requested)
		return
	}
	if b.status == nil {
		return
	}
	for _, m := range b.status.CurrentMessages(actorID) {
		if err := b.Publish(context.Background(), actorID, m); err != nil {
			slog.Error("nats status reply failed", "actor_id", actorID, "error", err)
			return
		}
	}
}

// Publish sends msg on the actor's events subject.
func (b *Broker) Publish(_ context.Context, actorID string, msg wire.Message) error {
	if err := validateActor(actorID); err != nil {
		return err
	}
	data, err := wire.Encode(msg)
	if err != nil {
		return err
	}
	subject := EventsSubject(actorID)
	if err := b.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Close shuts down the NATS connection.
func (b *Broker) Close() error {
	_ = b.sub.Unsubscribe()
	b.nc.Close()
	return nil
}
