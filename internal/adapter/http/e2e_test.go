package http_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apihttp "github.com/nuaibria/travelsync/internal/adapter/http"
	"github.com/nuaibria/travelsync/internal/adapter/travelapi"
	"github.com/nuaibria/travelsync/internal/adapter/ws"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/service"
	"github.com/nuaibria/travelsync/internal/sim"
)

const token = "e2e-token"

type harness struct {
	engine *sim.Engine
	hub    *ws.Hub
	client *service.Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	eng := sim.NewEngine(sim.Options{Seed: 42, MilesPerTick: 5})
	hub := ws.NewHub(eng)
	eng.AddPublisher(hub)

	router := apihttp.NewRouter(&apihttp.Handlers{Engine: eng}, apihttp.RouterConfig{
		ServiceName: "travelsim-e2e",
		Token:       token,
		Push:        hub.HandleWS,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	pushURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	client := service.NewClient(
		ws.NewDialer(pushURL, "hero", token),
		travelapi.NewClient(srv.URL, token, 2*time.Second),
		service.ClientOptions{ActorID: "hero", ReconnectDelay: 20 * time.Millisecond, DialTimeout: time.Second},
	)
	t.Cleanup(client.Deactivate)

	return &harness{engine: eng, hub: hub, client: client}
}

func (h *harness) waitFor(t *testing.T, what string, cond func(service.Snapshot) bool) service.Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		snap := h.client.Snapshot()
		if cond(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s; last snapshot %+v", what, snap)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func (h *harness) waitConns(t *testing.T, n int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for h.hub.ConnectionCount("hero") != n {
		if time.Now().After(deadline) {
			t.Fatalf("connections = %d, want %d", h.hub.ConnectionCount("hero"), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestJourneyEndToEnd(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.client.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	h.waitConns(t, 1)

	sess, err := h.client.StartJourney(ctx, "ruins", "")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if sess.DestinationName != "Ancient Ruins" || sess.Mode != travel.ModeSmart {
		t.Fatalf("unexpected session: %+v", sess)
	}

	h.engine.Tick(ctx)
	h.waitFor(t, "progress", func(s service.Snapshot) bool {
		return s.Session != nil && s.Session.MilesTraveled == 5
	})

	err = h.engine.InjectEvent(ctx, "hero", travel.Event{
		ID:          "wolves",
		Description: "Wolves block the road",
		Timestamp:   time.Now(),
		DangerLevel: 3,
		Choices:     []travel.Choice{{Label: "Fight"}, {Label: "Flee"}},
	})
	if err != nil {
		t.Fatalf("inject: %v", err)
	}
	h.waitFor(t, "active event", func(s service.Snapshot) bool {
		return s.ActiveEvent != nil && s.ActiveEvent.ID == "wolves"
	})

	if err := h.client.SubmitChoice(ctx, "Fight"); err != nil {
		t.Fatalf("choose: %v", err)
	}
	if snap := h.client.Snapshot(); snap.ActiveEvent != nil {
		t.Fatalf("active event not cleared: %+v", snap.ActiveEvent)
	}

	h.engine.Tick(ctx)
	snap := h.waitFor(t, "completion", func(s service.Snapshot) bool {
		return s.Session != nil && s.Session.Status == travel.StatusCompleted
	})
	if snap.Session.MilesTraveled != 10 {
		t.Errorf("miles = %v, want 10", snap.Session.MilesTraveled)
	}
	if !snap.HasEvent("wolves") {
		t.Error("expected wolves in event history")
	}
}

func TestReconnectResyncs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.client.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	h.waitConns(t, 1)
	if _, err := h.client.StartJourney(ctx, "ruins", travel.ModeQuiet); err != nil {
		t.Fatalf("start: %v", err)
	}

	h.hub.Disconnect("hero")
	h.waitConns(t, 0)

	// Progress may land while the channel is down.
	h.engine.Tick(ctx)

	h.waitConns(t, 1)
	h.waitFor(t, "resynced progress", func(s service.Snapshot) bool {
		return s.Session != nil && s.Session.MilesTraveled == 5 && s.Advisory == ""
	})
}

func TestDeactivateStopsSync(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	if err := h.client.Activate(ctx); err != nil {
		t.Fatalf("activate: %v", err)
	}
	h.waitConns(t, 1)

	h.client.Deactivate()
	h.waitConns(t, 0)
	if state := h.client.Conn.State(); state != service.StateIdle {
		t.Errorf("state = %v, want idle", state)
	}
}
