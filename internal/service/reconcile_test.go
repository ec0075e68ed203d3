package service

import (
	"context"
	"errors"
	"testing"

	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/wire"
)

func TestReconcileRoutes(t *testing.T) {
	ctx := context.Background()
	sess := ruinsSession(2)

	tests := []struct {
		name  string
		src   Source
		msgs  []wire.Message
		check func(t *testing.T, s Snapshot)
	}{
		{
			name: "duplicate events",
			src:  SourcePush,
			msgs: []wire.Message{wire.NarrativeEvent{Event: wolvesEvent()}, wire.NarrativeEvent{Event: wolvesEvent()}},
			check: func(t *testing.T, s Snapshot) {
				if len(s.Events) != 1 {
					t.Fatalf("event log length = %d, want 1", len(s.Events))
				}
			},
		},
		{
			name: "last progress wins",
			src:  SourcePush,
			msgs: []wire.Message{wire.ProgressUpdate{Session: ruinsSession(6)}, wire.ProgressUpdate{Session: ruinsSession(4)}},
			check: func(t *testing.T, s Snapshot) {
				if s.Session.MilesTraveled != 4 {
					t.Fatalf("miles = %v, want 4", s.Session.MilesTraveled)
				}
			},
		},
		{
			name: "stream error",
			src:  SourcePush,
			msgs: []wire.Message{wire.StreamError{Reason: "engine hiccup"}},
			check: func(t *testing.T, s Snapshot) {
				if s.Error != "engine hiccup" {
					t.Fatalf("error = %q", s.Error)
				}
			},
		},
		{
			name: "resync",
			src:  SourcePull,
			msgs: []wire.Message{
				wire.NarrativeEvent{Event: quietEvent("old")},
				StatusResync{View: travel.StatusView{Session: &sess}},
			},
			check: func(t *testing.T, s Snapshot) {
				if s.HasEvent("old") || s.Session == nil {
					t.Fatalf("unexpected snapshot %+v", s)
				}
			},
		},
		{
			name: "cancelled",
			src:  SourcePull,
			msgs: []wire.Message{wire.ProgressUpdate{Session: sess}, JourneyCancelled{SessionID: "s1"}},
			check: func(t *testing.T, s Snapshot) {
				if s.Session != nil {
					t.Fatal("session survived cancellation")
				}
			},
		},
		{
			name: "command failed",
			src:  SourcePull,
			msgs: []wire.Message{CommandFailed{Command: CommandStart, Err: errors.New("Character is already traveling")}},
			check: func(t *testing.T, s Snapshot) {
				if s.Error != "Character is already traveling" {
					t.Fatalf("error = %q", s.Error)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewStore()
			rec := NewReconciler(store, nil)
			for _, m := range tt.msgs {
				rec.Reconcile(ctx, tt.src, m)
			}
			tt.check(t, store.Snapshot())
		})
	}
}

func TestReconcileOrderIndependentEvents(t *testing.T) {
	ctx := context.Background()
	a, b := NewStore(), NewStore()
	ra, rb := NewReconciler(a, nil), NewReconciler(b, nil)

	ra.Reconcile(ctx, SourcePush, wire.NarrativeEvent{Event: quietEvent("x")})
	ra.Reconcile(ctx, SourcePush, wire.NarrativeEvent{Event: quietEvent("y")})
	rb.Reconcile(ctx, SourcePush, wire.NarrativeEvent{Event: quietEvent("y")})
	rb.Reconcile(ctx, SourcePush, wire.NarrativeEvent{Event: quietEvent("x")})
	rb.Reconcile(ctx, SourcePush, wire.NarrativeEvent{Event: quietEvent("y")})

	if len(a.Snapshot().Events) != 2 || len(b.Snapshot().Events) != 2 {
		t.Fatal("out-of-order or repeated delivery corrupted the log")
	}
}
