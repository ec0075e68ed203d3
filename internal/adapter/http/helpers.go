package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/wire"
)

// maxCommandBody bounds the size of a command body.
const maxCommandBody = 64 << 10

// decodeCommand reads a command body. On failure the rejection has already
// been written.
func decodeCommand[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var cmd T
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommandBody))
	if err := dec.Decode(&cmd); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			reject(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			reject(w, http.StatusBadRequest, "invalid request body")
		}
		return cmd, false
	}
	return cmd, true
}

// field is a named required value of a command.
type field struct{ name, value string }

// required rejects the request naming the first empty field.
func required(w http.ResponseWriter, fields ...field) bool {
	for _, f := range fields {
		if f.value == "" {
			reject(w, http.StatusBadRequest, f.name+" is required")
			return false
		}
	}
	return true
}

func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// reject writes the {error} body every client of the engine understands.
func reject(w http.ResponseWriter, status int, message string) {
	respond(w, status, wire.ErrorDTO{Error: message})
}

// rejections maps engine sentinels to statuses. Validation and conflict
// messages are shown to players and lose their sentinel prefix.
var rejections = []struct {
	sentinel error
	status   int
	verbatim bool
}{
	{domain.ErrNotFound, http.StatusNotFound, false},
	{domain.ErrConflict, http.StatusConflict, true},
	{domain.ErrValidation, http.StatusBadRequest, true},
}

// rejectErr writes the rejection for an engine error. notFound replaces the
// message of ErrNotFound.
func rejectErr(w http.ResponseWriter, err error, notFound string) {
	for _, rj := range rejections {
		if !errors.Is(err, rj.sentinel) {
			continue
		}
		msg := notFound
		if rj.verbatim {
			msg = strings.TrimPrefix(err.Error(), rj.sentinel.Error()+": ")
		}
		reject(w, rj.status, msg)
		return
	}
	slog.Error("engine error", "error", err)
	reject(w, http.StatusInternalServerError, "internal server error")
}
