// Package sim implements an in-memory remote journey engine. It serves the
// command endpoints and feeds the push channel for local development and
// end-to-end tests.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/wire"
)

// Publisher pushes server messages to one actor.
type Publisher interface {
	Publish(ctx context.Context, actorID string, msg wire.Message) error
}

// Options configures the engine.
type Options struct {
	Tick         time.Duration
	MilesPerTick float64
	EventChance  float64
	Seed         int64
	Destinations []Destination
}

type journey struct {
	session travel.Session
	events  []travel.Event // newest first
	current *travel.Event
}

func (j *journey) view() travel.StatusView {
	s := j.session
	v := travel.StatusView{Session: &s, Events: slices.Clone(j.events)}
	if j.current != nil {
		c := *j.current
		v.Current = &c
	}
	return v
}

// Engine is the simulated journey engine.
type Engine struct {
	opts         Options
	destinations map[string]Destination
	now          func() time.Time // for testing

	mu       sync.Mutex
	rng      *rand.Rand
	byActor  map[string]*journey
	byID     map[string]*journey
	pubs     []Publisher
	eventSeq int
}

// NewEngine creates an engine. A zero seed picks a random one.
func NewEngine(opts Options) *Engine {
	if opts.Tick <= 0 {
		opts.Tick = time.Second
	}
	if opts.MilesPerTick <= 0 {
		opts.MilesPerTick = 0.5
	}
	if len(opts.Destinations) == 0 {
		opts.Destinations = DefaultDestinations
	}
	seed := uint64(opts.Seed)
	if seed == 0 {
		seed = rand.Uint64()
	}

	dests := make(map[string]Destination, len(opts.Destinations))
	for _, d := range opts.Destinations {
		dests[d.ID] = d
	}
	return &Engine{
		opts:         opts,
		destinations: dests,
		now:          time.Now,
		rng:          rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		byActor:      make(map[string]*journey),
		byID:         make(map[string]*journey),
	}
}

// AddPublisher registers a push transport.
func (e *Engine) AddPublisher(p Publisher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pubs = append(e.pubs, p)
}

// Start begins a journey. An actor may have only one journey in progress.
func (e *Engine) Start(ctx context.Context, req travel.StartRequest) (*travel.Session, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = travel.DefaultMode
	}

	e.mu.Lock()
	dest, ok := e.destinations[req.DestinationID]
	if !ok {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: unknown destination %q", domain.ErrValidation, req.DestinationID)
	}
	if j, ok := e.byActor[req.ActorID]; ok && !j.session.Status.Terminal() {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: character is already traveling", domain.ErrValidation)
	}

	now := e.now()
	j := &journey{session: travel.Session{
		ID:              uuid.NewString(),
		ActorID:         req.ActorID,
		DestinationID:   dest.ID,
		DestinationName: dest.Name,
		MilesTotal:      dest.Miles,
		DangerLevel:     dest.Danger,
		Status:          travel.StatusInProgress,
		Mode:            mode,
		StartedAt:       now,
	}}
	e.setETALocked(j, now)
	e.byActor[req.ActorID] = j
	e.byID[j.session.ID] = j
	s := j.session
	e.mu.Unlock()

	slog.Info("journey started", "actor_id", req.ActorID, "session_id", s.ID, "destination", dest.Name)
	e.publish(ctx, req.ActorID, wire.ProgressUpdate{Session: s})
	return &s, nil
}

// Choose resolves the pending event of a session and resumes the journey.
func (e *Engine) Choose(ctx context.Context, req travel.ChoiceRequest) error {
	e.mu.Lock()
	j, err := e.ownedLocked(req.ActorID, req.SessionID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if j.current == nil || j.current.ID != req.EventID {
		e.mu.Unlock()
		return fmt.Errorf("%w: event %s is not awaiting a choice", domain.ErrValidation, req.EventID)
	}
	if !j.current.HasChoice(req.Choice) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q is not a valid choice", domain.ErrValidation, req.Choice)
	}
	j.current = nil
	if j.session.Status == travel.StatusPaused {
		j.session.Status = travel.StatusInProgress
	}
	s := j.session
	e.mu.Unlock()

	slog.Info("choice resolved", "actor_id", req.ActorID, "event_id", req.EventID, "choice", req.Choice)
	e.publish(ctx, req.ActorID, wire.ProgressUpdate{Session: s})
	return nil
}

// Cancel cancels a session.
func (e *Engine) Cancel(ctx context.Context, req travel.CancelRequest) error {
	e.mu.Lock()
	j, err := e.ownedLocked(req.ActorID, req.SessionID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if j.session.Status.Terminal() {
		e.mu.Unlock()
		return fmt.Errorf("%w: journey already %s", domain.ErrConflict, j.session.Status)
	}
	j.session.Status = travel.StatusCancelled
	j.session.EstimatedArrival = nil
	j.current = nil
	delete(e.byActor, req.ActorID)
	e.mu.Unlock()

	slog.Info("journey cancelled", "actor_id", req.ActorID, "session_id", req.SessionID)
	return nil
}

// Status returns the actor's current journey, if any.
func (e *Engine) Status(_ context.Context, actorID string) (*travel.StatusView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.byActor[actorID]
	if !ok {
		return &travel.StatusView{Events: []travel.Event{}}, nil
	}
	v := j.view()
	return &v, nil
}

// SessionStatus returns any session by id, including finished ones.
func (e *Engine) SessionStatus(_ context.Context, sessionID string) (*travel.StatusView, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.byID[sessionID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	v := j.view()
	return &v, nil
}

// CurrentMessages answers a GET_STATUS request with the actor's progress
// and pending event.
func (e *Engine) CurrentMessages(actorID string) []wire.Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.byActor[actorID]
	if !ok {
		return nil
	}
	msgs := []wire.Message{wire.ProgressUpdate{Session: j.session}}
	if j.current != nil {
		msgs = append(msgs, wire.NarrativeEvent{Event: *j.current})
	}
	return msgs
}

// Run advances journeys every tick until ctx is done.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.opts.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.Tick(ctx)
		}
	}
}

type outbound struct {
	actorID string
	msg     wire.Message
}

// Tick advances every journey in progress by one step.
func (e *Engine) Tick(ctx context.Context) {
	e.mu.Lock()
	now := e.now()
	var out []outbound
	for actorID, j := range e.byActor {
		if j.session.Status != travel.StatusInProgress {
			continue
		}
		out = append(out, e.advanceLocked(actorID, j, now)...)
	}
	e.mu.Unlock()

	for _, o := range out {
		e.publish(ctx, o.actorID, o.msg)
	}
}

func (e *Engine) advanceLocked(actorID string, j *journey, now time.Time) []outbound {
	s := &j.session
	s.MilesTraveled = min(s.MilesTraveled+e.opts.MilesPerTick, s.MilesTotal)

	if s.MilesTraveled >= s.MilesTotal {
		s.Status = travel.StatusCompleted
		s.EstimatedArrival = nil
		j.current = nil
		delete(e.byActor, actorID)
		slog.Info("journey complete", "actor_id", actorID, "session_id", s.ID)
		return []outbound{{actorID, wire.JourneyComplete{Session: *s}}}
	}

	e.setETALocked(j, now)
	out := []outbound{{actorID, wire.ProgressUpdate{Session: *s}}}

	if e.rng.Float64() < e.opts.EventChance {
		ev := e.rollEventLocked(s.DangerLevel, now)
		j.events = append([]travel.Event{ev}, j.events...)
		if ev.RequiresChoice() {
			j.current = &ev
			s.Status = travel.StatusPaused
			out = append(out, outbound{actorID, wire.ProgressUpdate{Session: *s}})
		}
		out = append(out, outbound{actorID, wire.NarrativeEvent{Event: ev}})
	}
	return out
}

func (e *Engine) rollEventLocked(base travel.DangerLevel, now time.Time) travel.Event {
	danger := base + travel.DangerLevel(e.rng.IntN(3)-1)
	danger = max(travel.DangerMin, min(travel.DangerMax, danger))
	pool := encounters[danger-1]
	enc := pool[e.rng.IntN(len(pool))]

	e.eventSeq++
	return travel.Event{
		ID:          fmt.Sprintf("evt-%d-%s", e.eventSeq, uuid.NewString()[:8]),
		Description: enc.description,
		Timestamp:   now,
		DangerLevel: danger,
		Choices:     slices.Clone(enc.choices),
	}
}

func (e *Engine) setETALocked(j *journey, now time.Time) {
	remaining := j.session.MilesTotal - j.session.MilesTraveled
	ticks := remaining / e.opts.MilesPerTick
	eta := now.Add(time.Duration(ticks * float64(e.opts.Tick)))
	j.session.EstimatedArrival = &eta
}

func (e *Engine) ownedLocked(actorID, sessionID string) (*journey, error) {
	j, ok := e.byID[sessionID]
	if !ok || j.session.ActorID != actorID {
		return nil, fmt.Errorf("session %s: %w", sessionID, domain.ErrNotFound)
	}
	return j, nil
}

func (e *Engine) publish(ctx context.Context, actorID string, msg wire.Message) {
	e.mu.Lock()
	pubs := slices.Clone(e.pubs)
	e.mu.Unlock()
	for _, p := range pubs {
		if err := p.Publish(ctx, actorID, msg); err != nil {
			slog.Warn("publish failed", "actor_id", actorID, "type", msg.Type(), "error", err)
		}
	}
}

// InjectEvent records ev on the actor's journey and pushes it, pausing the
// journey when it requires a choice.
func (e *Engine) InjectEvent(ctx context.Context, actorID string, ev travel.Event) error {
	if err := ev.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	j, ok := e.byActor[actorID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("actor %s has no journey: %w", actorID, domain.ErrNotFound)
	}
	j.events = append([]travel.Event{ev}, j.events...)
	if ev.RequiresChoice() {
		j.current = &ev
		j.session.Status = travel.StatusPaused
	}
	e.mu.Unlock()

	e.publish(ctx, actorID, wire.NarrativeEvent{Event: ev})
	return nil
}
