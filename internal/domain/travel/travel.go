// Package travel defines the journey domain: sessions, narrative events and the
// requests that drive them on the remote journey engine.
package travel

import "time"

// Status represents the current state of a journey session.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusPaused     Status = "paused"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further progress can happen in this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Mode governs how much automation the remote applies. The client stores it
// but never interprets it.
type Mode string

const (
	ModeSmart  Mode = "smart"
	ModeActive Mode = "active"
	ModeQuiet  Mode = "quiet"
)

// DefaultMode is used when a journey is started without an explicit mode.
const DefaultMode = ModeSmart

// DangerLevel is the risk of a session or event on a 1..5 scale.
type DangerLevel int

const (
	DangerMin DangerLevel = 1
	DangerMax DangerLevel = 5
)

// Session is the journey currently in progress for one actor.
type Session struct {
	ID               string
	ActorID          string
	DestinationID    string
	DestinationName  string
	MilesTraveled    float64
	MilesTotal       float64
	DangerLevel      DangerLevel
	Status           Status
	Mode             Mode
	StartedAt        time.Time
	EstimatedArrival *time.Time
}

// Progress returns the covered fraction of the journey in [0, 1].
func (s *Session) Progress() float64 {
	if s.MilesTotal <= 0 {
		return 0
	}
	p := s.MilesTraveled / s.MilesTotal
	if p > 1 {
		return 1
	}
	return p
}

// Choice is one option offered by an event.
type Choice struct {
	Label       string
	Description string
}

// Event is an immutable narrative occurrence within a session.
type Event struct {
	ID          string
	Description string
	Timestamp   time.Time
	DangerLevel DangerLevel
	Choices     []Choice
}

// RequiresChoice reports whether the event is waiting for a decision.
func (e *Event) RequiresChoice() bool {
	return len(e.Choices) > 0
}

// HasChoice reports whether label is one of the offered choices.
func (e *Event) HasChoice(label string) bool {
	for _, c := range e.Choices {
		if c.Label == label {
			return true
		}
	}
	return false
}

// StatusView is the authoritative server view of an actor's journey.
// Session and Current are nil when absent.
type StatusView struct {
	Session *Session
	Events  []Event
	Current *Event
}

// StartRequest holds the fields needed to start a journey.
type StartRequest struct {
	ActorID       string
	DestinationID string
	Mode          Mode
}

// ChoiceRequest resolves the active event of a session.
type ChoiceRequest struct {
	ActorID   string
	SessionID string
	EventID   string
	Choice    string
}

// CancelRequest cancels a session.
type CancelRequest struct {
	ActorID   string
	SessionID string
}
