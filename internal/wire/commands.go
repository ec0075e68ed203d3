package wire

import "github.com/nuaibria/travelsync/internal/domain/travel"

// Command endpoint paths of the remote journey engine.
const (
	PathStart         = "/api/travel/start"
	PathChoose        = "/api/travel/choose"
	PathCancel        = "/api/travel/cancel"
	PathStatus        = "/api/travel/status"
	PathSessionStatus = "/api/travel/status/{sessionId}"
)

// StartRequestDTO is the body of a start command.
type StartRequestDTO struct {
	ActorID       string `json:"characterId"`
	DestinationID string `json:"destinationId"`
	Mode          string `json:"travelMode,omitempty"`
}

// StartResponseDTO is the body of a successful start command.
type StartResponseDTO struct {
	Session *SessionDTO `json:"session"`
}

// ChoiceRequestDTO is the body of a choice submission.
type ChoiceRequestDTO struct {
	ActorID   string `json:"characterId"`
	SessionID string `json:"sessionId"`
	EventID   string `json:"eventId"`
	Choice    string `json:"choice"`
}

// CancelRequestDTO is the body of a cancel command.
type CancelRequestDTO struct {
	ActorID   string `json:"characterId"`
	SessionID string `json:"sessionId"`
}

// AckDTO acknowledges a command that returns no data.
type AckDTO struct {
	Success bool `json:"success"`
}

// ErrorDTO is the body of every rejected command.
type ErrorDTO struct {
	Error string `json:"error"`
}

// NewStartRequestDTO converts a start request to its wire form.
func NewStartRequestDTO(r travel.StartRequest) StartRequestDTO {
	return StartRequestDTO{ActorID: r.ActorID, DestinationID: r.DestinationID, Mode: string(r.Mode)}
}

// ToDomain converts the wire start request.
func (d StartRequestDTO) ToDomain() travel.StartRequest {
	return travel.StartRequest{ActorID: d.ActorID, DestinationID: d.DestinationID, Mode: travel.Mode(d.Mode)}
}

// NewChoiceRequestDTO converts a choice request to its wire form.
func NewChoiceRequestDTO(r travel.ChoiceRequest) ChoiceRequestDTO {
	return ChoiceRequestDTO(r)
}

// ToDomain converts the wire choice request.
func (d ChoiceRequestDTO) ToDomain() travel.ChoiceRequest {
	return travel.ChoiceRequest(d)
}

// NewCancelRequestDTO converts a cancel request to its wire form.
func NewCancelRequestDTO(r travel.CancelRequest) CancelRequestDTO {
	return CancelRequestDTO(r)
}

// ToDomain converts the wire cancel request.
func (d CancelRequestDTO) ToDomain() travel.CancelRequest {
	return travel.CancelRequest(d)
}
