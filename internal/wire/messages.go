// Package wire implements the push channel frame format: a JSON envelope with a
// type discriminator and a payload. Timestamps travel as ISO-8601 strings and are
// converted to time.Time here and nowhere else.
package wire

import (
	"encoding/json"

	"github.com/nuaibria/travelsync/internal/domain/travel"
)

// Frame type constants.
const (
	TypeProgress  = "TRAVEL_PROGRESS"
	TypeEvent     = "TRAVEL_EVENT"
	TypeComplete  = "TRAVEL_COMPLETE"
	TypeError     = "TRAVEL_ERROR"
	TypeGetStatus = "GET_STATUS"
)

// Frame is the envelope for all push channel messages.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Message is a decoded, typed push message.
type Message interface {
	Type() string
}

// ProgressUpdate carries the latest view of the session.
type ProgressUpdate struct {
	Session travel.Session
}

// NarrativeEvent carries a new event of the current session.
type NarrativeEvent struct {
	Event travel.Event
}

// JourneyComplete signals the session reached its destination.
type JourneyComplete struct {
	Session travel.Session
}

// StreamError is an error reported by the remote over the push channel.
type StreamError struct {
	Reason string
}

func (ProgressUpdate) Type() string  { return TypeProgress }
func (NarrativeEvent) Type() string  { return TypeEvent }
func (JourneyComplete) Type() string { return TypeComplete }
func (StreamError) Type() string     { return TypeError }

type sessionPayload struct {
	Session *SessionDTO `json:"session"`
}

type eventPayload struct {
	Event *EventDTO `json:"event"`
}

type errorPayload struct {
	Error string `json:"error"`
}

type statusRequestPayload struct {
	ActorID string `json:"characterId"`
}
