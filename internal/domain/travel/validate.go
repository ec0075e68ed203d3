package travel

import (
	"fmt"

	"github.com/nuaibria/travelsync/internal/domain"
)

// validStatuses enumerates all valid session statuses.
var validStatuses = map[Status]bool{
	StatusInProgress: true,
	StatusPaused:     true,
	StatusCompleted:  true,
	StatusCancelled:  true,
}

// validModes enumerates all valid travel modes.
var validModes = map[Mode]bool{
	ModeSmart:  true,
	ModeActive: true,
	ModeQuiet:  true,
}

// Valid reports whether d is within the 1..5 scale.
func (d DangerLevel) Valid() bool {
	return d >= DangerMin && d <= DangerMax
}

// ParseMode converts s to a Mode. An empty string yields DefaultMode.
func ParseMode(s string) (Mode, error) {
	if s == "" {
		return DefaultMode, nil
	}
	m := Mode(s)
	if !validModes[m] {
		return "", fmt.Errorf("invalid travel mode %q: %w", s, domain.ErrValidation)
	}
	return m, nil
}

// Validate checks that a Session has all required fields and valid values.
func (s *Session) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("session id is required: %w", domain.ErrValidation)
	}
	if !validStatuses[s.Status] {
		return fmt.Errorf("invalid status %q: %w", s.Status, domain.ErrValidation)
	}
	if s.Mode != "" && !validModes[s.Mode] {
		return fmt.Errorf("invalid travel mode %q: %w", s.Mode, domain.ErrValidation)
	}
	if !s.DangerLevel.Valid() {
		return fmt.Errorf("danger level %d out of range: %w", s.DangerLevel, domain.ErrValidation)
	}
	if s.MilesTraveled < 0 || s.MilesTotal < 0 {
		return fmt.Errorf("distances must be non-negative: %w", domain.ErrValidation)
	}
	return nil
}

// Validate checks that an Event has an id, a valid danger level and labelled choices.
func (e *Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event id is required: %w", domain.ErrValidation)
	}
	if !e.DangerLevel.Valid() {
		return fmt.Errorf("danger level %d out of range: %w", e.DangerLevel, domain.ErrValidation)
	}
	for i, c := range e.Choices {
		if c.Label == "" {
			return fmt.Errorf("choice %d has no label: %w", i, domain.ErrValidation)
		}
	}
	return nil
}

// Validate checks that a StartRequest has all required fields.
func (r *StartRequest) Validate() error {
	if r.ActorID == "" {
		return fmt.Errorf("actor id is required: %w", domain.ErrValidation)
	}
	if r.DestinationID == "" {
		return fmt.Errorf("destination id is required: %w", domain.ErrValidation)
	}
	if r.Mode != "" && !validModes[r.Mode] {
		return fmt.Errorf("invalid travel mode %q: %w", r.Mode, domain.ErrValidation)
	}
	return nil
}
