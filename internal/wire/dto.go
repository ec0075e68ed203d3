package wire

import (
	"fmt"
	"time"

	"github.com/nuaibria/travelsync/internal/domain/travel"
)

// SessionDTO is the wire form of a travel.Session.
type SessionDTO struct {
	ID               string  `json:"id"`
	ActorID          string  `json:"characterId"`
	DestinationID    string  `json:"destinationId"`
	DestinationName  string  `json:"destinationName"`
	MilesTraveled    float64 `json:"milesTraveled"`
	MilesTotal       float64 `json:"milesTotal"`
	DangerLevel      int     `json:"dangerLevel"`
	Status           string  `json:"status"`
	Mode             string  `json:"travelMode"`
	StartedAt        string  `json:"startedAt"`
	EstimatedArrival string  `json:"estimatedArrival,omitempty"`
}

// ChoiceDTO is the wire form of a travel.Choice.
type ChoiceDTO struct {
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

// EventDTO is the wire form of a travel.Event.
type EventDTO struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Timestamp   string      `json:"timestamp"`
	DangerLevel int         `json:"dangerLevel"`
	Choices     []ChoiceDTO `json:"choices,omitempty"`
}

// StatusDTO is the body of a status pull response.
type StatusDTO struct {
	Session      *SessionDTO `json:"session,omitempty"`
	Events       []EventDTO  `json:"events"`
	CurrentEvent *EventDTO   `json:"currentEvent,omitempty"`
}

// NewSessionDTO converts a session to its wire form.
func NewSessionDTO(s *travel.Session) SessionDTO {
	d := SessionDTO{
		ID:              s.ID,
		ActorID:         s.ActorID,
		DestinationID:   s.DestinationID,
		DestinationName: s.DestinationName,
		MilesTraveled:   s.MilesTraveled,
		MilesTotal:      s.MilesTotal,
		DangerLevel:     int(s.DangerLevel),
		Status:          string(s.Status),
		Mode:            string(s.Mode),
		StartedAt:       formatTime(s.StartedAt),
	}
	if s.EstimatedArrival != nil {
		d.EstimatedArrival = formatTime(*s.EstimatedArrival)
	}
	return d
}

// ToDomain converts and validates the wire session. MilesTraveled is clamped to
// MilesTotal once the total is known.
func (d *SessionDTO) ToDomain() (travel.Session, error) {
	started, err := parseTime(d.StartedAt)
	if err != nil {
		return travel.Session{}, fmt.Errorf("startedAt: %w", err)
	}
	s := travel.Session{
		ID:              d.ID,
		ActorID:         d.ActorID,
		DestinationID:   d.DestinationID,
		DestinationName: d.DestinationName,
		MilesTraveled:   d.MilesTraveled,
		MilesTotal:      d.MilesTotal,
		DangerLevel:     travel.DangerLevel(d.DangerLevel),
		Status:          travel.Status(d.Status),
		Mode:            travel.Mode(d.Mode),
		StartedAt:       started,
	}
	if d.EstimatedArrival != "" {
		eta, err := parseTime(d.EstimatedArrival)
		if err != nil {
			return travel.Session{}, fmt.Errorf("estimatedArrival: %w", err)
		}
		s.EstimatedArrival = &eta
	}
	if s.MilesTotal > 0 && s.MilesTraveled > s.MilesTotal {
		s.MilesTraveled = s.MilesTotal
	}
	if err := s.Validate(); err != nil {
		return travel.Session{}, err
	}
	return s, nil
}

// NewEventDTO converts an event to its wire form.
func NewEventDTO(e *travel.Event) EventDTO {
	d := EventDTO{
		ID:          e.ID,
		Description: e.Description,
		Timestamp:   formatTime(e.Timestamp),
		DangerLevel: int(e.DangerLevel),
	}
	for _, c := range e.Choices {
		d.Choices = append(d.Choices, ChoiceDTO(c))
	}
	return d
}

// ToDomain converts and validates the wire event.
func (d *EventDTO) ToDomain() (travel.Event, error) {
	ts, err := parseTime(d.Timestamp)
	if err != nil {
		return travel.Event{}, fmt.Errorf("timestamp: %w", err)
	}
	e := travel.Event{
		ID:          d.ID,
		Description: d.Description,
		Timestamp:   ts,
		DangerLevel: travel.DangerLevel(d.DangerLevel),
	}
	for _, c := range d.Choices {
		e.Choices = append(e.Choices, travel.Choice(c))
	}
	if err := e.Validate(); err != nil {
		return travel.Event{}, err
	}
	return e, nil
}

// NewStatusDTO converts a status view to its wire form.
func NewStatusDTO(v *travel.StatusView) StatusDTO {
	d := StatusDTO{Events: make([]EventDTO, 0, len(v.Events))}
	if v.Session != nil {
		s := NewSessionDTO(v.Session)
		d.Session = &s
	}
	for i := range v.Events {
		d.Events = append(d.Events, NewEventDTO(&v.Events[i]))
	}
	if v.Current != nil {
		c := NewEventDTO(v.Current)
		d.CurrentEvent = &c
	}
	return d
}

// ToDomain converts and validates a status pull response.
func (d *StatusDTO) ToDomain() (travel.StatusView, error) {
	var v travel.StatusView
	if d.Session != nil {
		s, err := d.Session.ToDomain()
		if err != nil {
			return travel.StatusView{}, fmt.Errorf("session: %w", err)
		}
		v.Session = &s
	}
	v.Events = make([]travel.Event, 0, len(d.Events))
	for i := range d.Events {
		e, err := d.Events[i].ToDomain()
		if err != nil {
			return travel.StatusView{}, fmt.Errorf("events[%d]: %w", i, err)
		}
		v.Events = append(v.Events, e)
	}
	if d.CurrentEvent != nil {
		e, err := d.CurrentEvent.ToDomain()
		if err != nil {
			return travel.StatusView{}, fmt.Errorf("currentEvent: %w", err)
		}
		v.Current = &e
	}
	return v, nil
}

// parseTime accepts RFC 3339 with or without fractional seconds. An empty
// string yields the zero time.
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
