package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nuaibria/travelsync/internal/adapter/ws"
	"github.com/nuaibria/travelsync/internal/port/journey"
	"github.com/nuaibria/travelsync/internal/wire"
)

// Engine is the journey engine behind the command endpoints.
type Engine interface {
	journey.Remote
	journey.SessionLookup
}

// Handlers serves the travel command endpoints.
type Handlers struct {
	Engine Engine
}

// StartJourney handles POST /api/travel/start.
func (h *Handlers) StartJourney(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCommand[wire.StartRequestDTO](w, r)
	if !ok || !required(w, field{"characterId", body.ActorID}, field{"destinationId", body.DestinationID}) {
		return
	}

	s, err := h.Engine.Start(r.Context(), body.ToDomain())
	if err != nil {
		rejectErr(w, err, "destination not found")
		return
	}
	dto := wire.NewSessionDTO(s)
	respond(w, http.StatusCreated, wire.StartResponseDTO{Session: &dto})
}

// SubmitChoice handles POST /api/travel/choose.
func (h *Handlers) SubmitChoice(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCommand[wire.ChoiceRequestDTO](w, r)
	if !ok || !required(w,
		field{"characterId", body.ActorID},
		field{"sessionId", body.SessionID},
		field{"eventId", body.EventID},
		field{"choice", body.Choice},
	) {
		return
	}

	if err := h.Engine.Choose(r.Context(), body.ToDomain()); err != nil {
		rejectErr(w, err, "travel session not found")
		return
	}
	respond(w, http.StatusOK, wire.AckDTO{Success: true})
}

// CancelJourney handles POST /api/travel/cancel.
func (h *Handlers) CancelJourney(w http.ResponseWriter, r *http.Request) {
	body, ok := decodeCommand[wire.CancelRequestDTO](w, r)
	if !ok || !required(w, field{"characterId", body.ActorID}, field{"sessionId", body.SessionID}) {
		return
	}

	if err := h.Engine.Cancel(r.Context(), body.ToDomain()); err != nil {
		rejectErr(w, err, "travel session not found")
		return
	}
	respond(w, http.StatusOK, wire.AckDTO{Success: true})
}

// GetStatus handles GET /api/travel/status?characterId=.
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	actorID := r.URL.Query().Get(ws.ActorQueryParam)
	if !required(w, field{ws.ActorQueryParam, actorID}) {
		return
	}

	v, err := h.Engine.Status(r.Context(), actorID)
	if err != nil {
		rejectErr(w, err, "character not found")
		return
	}
	respond(w, http.StatusOK, wire.NewStatusDTO(v))
}

// GetSessionStatus handles GET /api/travel/status/{sessionId}.
func (h *Handlers) GetSessionStatus(w http.ResponseWriter, r *http.Request) {
	v, err := h.Engine.SessionStatus(r.Context(), chi.URLParam(r, "sessionId"))
	if err != nil {
		rejectErr(w, err, "travel session not found")
		return
	}
	respond(w, http.StatusOK, wire.NewStatusDTO(v))
}
