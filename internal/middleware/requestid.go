// Package middleware provides HTTP middleware for the travel simulator.
package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nuaibria/travelsync/internal/logger"
)

// HeaderRequestID correlates a command with the logs it produces on both sides.
const HeaderRequestID = "X-Request-ID"

// maxRequestIDLen caps caller-supplied IDs before they reach the logs.
const maxRequestIDLen = 128

// RequestID adopts the caller's X-Request-ID, or assigns a fresh UUID when it
// is missing or oversized, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}
