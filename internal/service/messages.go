package service

import (
	"github.com/nuaibria/travelsync/internal/domain/travel"
)

// Source tells the reconciler where a message came from.
type Source int

const (
	// SourcePush is a frame decoded from the push channel.
	SourcePush Source = iota
	// SourcePull is the outcome of a command round trip.
	SourcePull
)

func (s Source) String() string {
	if s == SourcePush {
		return "push"
	}
	return "pull"
}

// Command outcome message types.
const (
	TypeStatusResync     = "STATUS_RESYNC"
	TypeJourneyStarted   = "JOURNEY_STARTED"
	TypeChoiceAccepted   = "CHOICE_ACCEPTED"
	TypeJourneyCancelled = "JOURNEY_CANCELLED"
	TypeCommandFailed    = "COMMAND_FAILED"
)

// StatusResync carries a status pull response; it replaces all journey state.
type StatusResync struct {
	View travel.StatusView
}

// JourneyStarted carries the session returned by a start command.
type JourneyStarted struct {
	Session travel.Session
}

// ChoiceAccepted reports that the remote accepted a decision on EventID.
type ChoiceAccepted struct {
	EventID string
}

// JourneyCancelled reports that the remote cancelled SessionID.
type JourneyCancelled struct {
	SessionID string
}

// CommandFailed reports a failed command.
type CommandFailed struct {
	Command string
	Err     error
}

func (StatusResync) Type() string     { return TypeStatusResync }
func (JourneyStarted) Type() string   { return TypeJourneyStarted }
func (ChoiceAccepted) Type() string   { return TypeChoiceAccepted }
func (JourneyCancelled) Type() string { return TypeJourneyCancelled }
func (CommandFailed) Type() string    { return TypeCommandFailed }
