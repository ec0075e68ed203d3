package wire_test

import (
	"errors"
	"testing"
	"time"

	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/wire"
)

const progressFrame = `{"type":"TRAVEL_PROGRESS","payload":{"session":{
	"id":"s1","characterId":"c1","destinationId":"ruins","destinationName":"Ancient Ruins",
	"milesTraveled":5,"milesTotal":10,"dangerLevel":2,"status":"in_progress","travelMode":"smart",
	"startedAt":"2025-03-01T10:00:00.000Z","estimatedArrival":"2025-03-01T14:00:00Z"}}}`

func TestDecodeProgress(t *testing.T) {
	msg, err := wire.Decode([]byte(progressFrame))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	p, ok := msg.(wire.ProgressUpdate)
	if !ok {
		t.Fatalf("expected ProgressUpdate, got %T", msg)
	}
	if p.Session.MilesTraveled != 5 || p.Session.MilesTotal != 10 {
		t.Fatalf("unexpected miles %v/%v", p.Session.MilesTraveled, p.Session.MilesTotal)
	}
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	if !p.Session.StartedAt.Equal(want) {
		t.Fatalf("expected startedAt %v, got %v", want, p.Session.StartedAt)
	}
	if p.Session.EstimatedArrival == nil {
		t.Fatal("expected estimated arrival")
	}
	if p.Session.Status != travel.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", p.Session.Status)
	}
}

func TestDecodeEvent(t *testing.T) {
	raw := `{"type":"TRAVEL_EVENT","payload":{"event":{"id":"e1","description":"Wolves",
		"timestamp":"2025-03-01T11:00:00Z","dangerLevel":3,"choices":[{"label":"Fight"},{"label":"Flee","description":"run"}]}}}`
	msg, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ev, ok := msg.(wire.NarrativeEvent)
	if !ok {
		t.Fatalf("expected NarrativeEvent, got %T", msg)
	}
	if ev.Event.ID != "e1" || len(ev.Event.Choices) != 2 {
		t.Fatalf("unexpected event %+v", ev.Event)
	}
	if ev.Event.Choices[1].Description != "run" {
		t.Fatalf("expected choice description, got %q", ev.Event.Choices[1].Description)
	}
}

func TestDecodeCompleteAndError(t *testing.T) {
	raw := `{"type":"TRAVEL_COMPLETE","payload":{"session":{"id":"s1","dangerLevel":1,"status":"completed","milesTraveled":10,"milesTotal":10}}}`
	msg, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode complete: %v", err)
	}
	if _, ok := msg.(wire.JourneyComplete); !ok {
		t.Fatalf("expected JourneyComplete, got %T", msg)
	}

	msg, err = wire.Decode([]byte(`{"type":"TRAVEL_ERROR","payload":{"error":"engine stalled"}}`))
	if err != nil {
		t.Fatalf("Decode error frame: %v", err)
	}
	se, ok := msg.(wire.StreamError)
	if !ok || se.Reason != "engine stalled" {
		t.Fatalf("unexpected message %#v", msg)
	}
}

func TestDecodeClampsMiles(t *testing.T) {
	raw := `{"type":"TRAVEL_PROGRESS","payload":{"session":{"id":"s1","dangerLevel":1,"status":"in_progress","milesTraveled":12,"milesTotal":10}}}`
	msg, err := wire.Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := msg.(wire.ProgressUpdate).Session.MilesTraveled; got != 10 {
		t.Fatalf("expected clamped 10, got %v", got)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", `not json`},
		{"unknown type", `{"type":"TRAVEL_TELEPORT","payload":{}}`},
		{"missing type", `{"payload":{}}`},
		{"no session", `{"type":"TRAVEL_PROGRESS","payload":{}}`},
		{"bad timestamp", `{"type":"TRAVEL_EVENT","payload":{"event":{"id":"e1","dangerLevel":1,"timestamp":"yesterday"}}}`},
		{"danger out of range", `{"type":"TRAVEL_EVENT","payload":{"event":{"id":"e1","dangerLevel":9}}}`},
		{"payload wrong shape", `{"type":"TRAVEL_ERROR","payload":[1,2]}`},
		{"bad status", `{"type":"TRAVEL_PROGRESS","payload":{"session":{"id":"s1","dangerLevel":1,"status":"lost"}}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := wire.Decode([]byte(tt.raw))
			if err == nil {
				t.Fatalf("expected error, got %#v", msg)
			}
			if !errors.Is(err, wire.ErrDecode) {
				t.Fatalf("expected ErrDecode, got %v", err)
			}
			var de *wire.DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("expected *DecodeError, got %T", err)
			}
		})
	}
}

func TestEncodeDecode_EventRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 1, 11, 0, 0, 0, time.UTC)
	in := wire.NarrativeEvent{Event: travel.Event{
		ID: "e1", Description: "Bandits", Timestamp: ts, DangerLevel: 4,
		Choices: []travel.Choice{{Label: "Pay"}},
	}}
	raw, err := wire.Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	ev := out.(wire.NarrativeEvent).Event
	if ev.ID != "e1" || !ev.Timestamp.Equal(ts) || ev.Choices[0].Label != "Pay" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestStatusRequest(t *testing.T) {
	raw, err := wire.EncodeStatusRequest("c1")
	if err != nil {
		t.Fatalf("EncodeStatusRequest: %v", err)
	}
	actor, err := wire.DecodeStatusRequest(raw)
	if err != nil {
		t.Fatalf("DecodeStatusRequest: %v", err)
	}
	if actor != "c1" {
		t.Fatalf("expected c1, got %q", actor)
	}
	if _, err := wire.DecodeStatusRequest([]byte(progressFrame)); !errors.Is(err, wire.ErrDecode) {
		t.Fatalf("expected ErrDecode for non GET_STATUS frame, got %v", err)
	}
}

func TestStatusDTO(t *testing.T) {
	sess := travel.Session{ID: "s1", DangerLevel: 1, Status: travel.StatusInProgress, Mode: travel.ModeQuiet}
	ev := travel.Event{ID: "e1", DangerLevel: 2, Choices: []travel.Choice{{Label: "Hide"}}}
	view := travel.StatusView{Session: &sess, Events: []travel.Event{ev}, Current: &ev}

	dto := wire.NewStatusDTO(&view)
	got, err := dto.ToDomain()
	if err != nil {
		t.Fatalf("ToDomain: %v", err)
	}
	if got.Session == nil || got.Session.ID != "s1" || got.Session.Mode != travel.ModeQuiet {
		t.Fatalf("unexpected session %+v", got.Session)
	}
	if len(got.Events) != 1 || got.Current == nil || got.Current.ID != "e1" {
		t.Fatalf("unexpected view %+v", got)
	}

	empty := wire.StatusDTO{}
	v, err := empty.ToDomain()
	if err != nil {
		t.Fatalf("empty ToDomain: %v", err)
	}
	if v.Session != nil || v.Current != nil || len(v.Events) != 0 {
		t.Fatalf("expected empty view, got %+v", v)
	}
}
