package travelapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/nuaibria/travelsync/internal/domain"
)

// APIError is a command rejected by the remote journey engine.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote error %d", e.StatusCode)
	}
	return fmt.Sprintf("remote error %d: %s", e.StatusCode, e.Message)
}

// Is maps the status code onto the domain sentinels. A 409 is both a
// conflict and a validation failure.
func (e *APIError) Is(target error) bool {
	switch target {
	case domain.ErrValidation:
		return e.StatusCode == http.StatusBadRequest ||
			e.StatusCode == http.StatusConflict ||
			e.StatusCode == http.StatusUnprocessableEntity
	case domain.ErrConflict:
		return e.StatusCode == http.StatusConflict
	case domain.ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case domain.ErrTransport:
		return e.StatusCode >= 500
	}
	return false
}

// isTransportFailure reports whether err should count against the breaker.
func isTransportFailure(err error) bool {
	return errors.Is(err, domain.ErrTransport)
}
