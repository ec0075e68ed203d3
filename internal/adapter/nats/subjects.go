// Package nats implements the push channel over core NATS subjects. The
// client subscribes to travel.<actor>.events and sends requests to
// travel.<actor>.requests; the simulator does the reverse.
package nats

import (
	"fmt"
	"strings"

	"github.com/nuaibria/travelsync/internal/domain"
)

const subjectPrefix = "travel."

// EventsSubject is the subject server frames for actorID are published on.
func EventsSubject(actorID string) string {
	return subjectPrefix + actorID + ".events"
}

// RequestsSubject is the subject client frames for actorID are sent to.
func RequestsSubject(actorID string) string {
	return subjectPrefix + actorID + ".requests"
}

// requestsWildcard matches the request subjects of every actor.
const requestsWildcard = subjectPrefix + "*.requests"

// actorFromRequestsSubject extracts the actor token from a requests subject.
func actorFromRequestsSubject(subject string) (string, bool) {
	rest, ok := strings.CutPrefix(subject, subjectPrefix)
	if !ok {
		return "", false
	}
	actor, ok := strings.CutSuffix(rest, ".requests")
	if !ok || actor == "" || strings.Contains(actor, ".") {
		return "", false
	}
	return actor, true
}

// validateActor rejects actor ids that cannot be used as a single subject token.
func validateActor(actorID string) error {
	if actorID == "" {
		return fmt.Errorf("actor id is required: %w", domain.ErrValidation)
	}
	if strings.ContainsAny(actorID, ".*> \t\r\n") {
		return fmt.Errorf("actor id %q is not a valid subject token: %w", actorID, domain.ErrValidation)
	}
	return nil
}
