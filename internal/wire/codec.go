package wire

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nuaibria/travelsync/internal/domain/travel"
)

// ErrDecode matches every DecodeError.
var ErrDecode = errors.New("decode frame")

// DecodeError reports a frame that could not be turned into a Message.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode frame: %s: %v", e.Reason, e.Err)
	}
	return "decode frame: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDecode) hold for any DecodeError.
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

func decodeErr(reason string, err error) error {
	return &DecodeError{Reason: reason, Err: err}
}

// Decode parses a raw server frame into a typed Message. It never panics; any
// malformed input yields a *DecodeError.
func Decode(raw []byte) (Message, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, decodeErr("invalid json", err)
	}

	switch f.Type {
	case TypeProgress, TypeComplete:
		var p sessionPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, decodeErr(f.Type+" payload", err)
		}
		if p.Session == nil {
			return nil, decodeErr(f.Type+" payload has no session", nil)
		}
		s, err := p.Session.ToDomain()
		if err != nil {
			return nil, decodeErr(f.Type+" session", err)
		}
		if f.Type == TypeComplete {
			return JourneyComplete{Session: s}, nil
		}
		return ProgressUpdate{Session: s}, nil

	case TypeEvent:
		var p eventPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, decodeErr("TRAVEL_EVENT payload", err)
		}
		if p.Event == nil {
			return nil, decodeErr("TRAVEL_EVENT payload has no event", nil)
		}
		e, err := p.Event.ToDomain()
		if err != nil {
			return nil, decodeErr("TRAVEL_EVENT event", err)
		}
		return NarrativeEvent{Event: e}, nil

	case TypeError:
		var p errorPayload
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return nil, decodeErr("TRAVEL_ERROR payload", err)
		}
		return StreamError{Reason: p.Error}, nil

	case "":
		return nil, decodeErr("missing type", nil)
	default:
		return nil, decodeErr(fmt.Sprintf("unknown type %q", f.Type), nil)
	}
}

// Encode serializes a server-to-client Message into a frame.
func Encode(msg Message) ([]byte, error) {
	var payload any
	switch m := msg.(type) {
	case ProgressUpdate:
		d := NewSessionDTO(&m.Session)
		payload = sessionPayload{Session: &d}
	case JourneyComplete:
		d := NewSessionDTO(&m.Session)
		payload = sessionPayload{Session: &d}
	case NarrativeEvent:
		d := NewEventDTO(&m.Event)
		payload = eventPayload{Event: &d}
	case StreamError:
		payload = errorPayload{Error: m.Reason}
	default:
		return nil, fmt.Errorf("encode frame: unsupported message %T", msg)
	}
	return encodeFrame(msg.Type(), payload)
}

// EncodeStatusRequest builds the GET_STATUS frame the client sends after the
// channel opens.
func EncodeStatusRequest(actorID string) ([]byte, error) {
	return encodeFrame(TypeGetStatus, statusRequestPayload{ActorID: actorID})
}

// DecodeStatusRequest parses a client GET_STATUS frame and returns the actor id.
func DecodeStatusRequest(raw []byte) (string, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return "", decodeErr("invalid json", err)
	}
	if f.Type != TypeGetStatus {
		return "", decodeErr(fmt.Sprintf("unexpected client frame %q", f.Type), nil)
	}
	var p statusRequestPayload
	if len(f.Payload) > 0 {
		if err := json.Unmarshal(f.Payload, &p); err != nil {
			return "", decodeErr("GET_STATUS payload", err)
		}
	}
	return p.ActorID, nil
}

func encodeFrame(typ string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return json.Marshal(Frame{Type: typ, Payload: data})
}

// DecodeSession converts a wire session embedded in a command response.
func DecodeSession(d *SessionDTO) (travel.Session, error) {
	if d == nil {
		return travel.Session{}, decodeErr("response has no session", nil)
	}
	s, err := d.ToDomain()
	if err != nil {
		return travel.Session{}, decodeErr("session", err)
	}
	return s, nil
}
