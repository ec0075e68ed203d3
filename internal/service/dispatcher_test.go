package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/wire"
)

func newDispatcherHarness(remote *fakeRemote) (*Dispatcher, *Store, *Reconciler) {
	store := NewStore()
	rec := NewReconciler(store, nil)
	return NewDispatcher(remote, store, rec, "hero", nil), store, rec
}

func TestJourneyScenario(t *testing.T) {
	sess := ruinsSession(0)
	remote := &fakeRemote{startSession: &sess}
	d, store, rec := newDispatcherHarness(remote)
	ctx := context.Background()

	if _, err := d.StartJourney(ctx, "ruins", ""); err != nil {
		t.Fatalf("StartJourney: %v", err)
	}
	if got := remote.starts[0].Mode; got != travel.ModeSmart {
		t.Fatalf("default mode = %s, want smart", got)
	}
	if s := store.Snapshot().Session; s == nil || s.DestinationName != "Ancient Ruins" || s.MilesTotal != 10 {
		t.Fatalf("session after start = %+v", s)
	}

	rec.Reconcile(ctx, SourcePush, wire.ProgressUpdate{Session: ruinsSession(5)})
	if got := store.Snapshot().Session.MilesTraveled; got != 5 {
		t.Fatalf("miles traveled = %v, want 5", got)
	}

	rec.Reconcile(ctx, SourcePush, wire.NarrativeEvent{Event: wolvesEvent()})
	active := store.Snapshot().ActiveEvent
	if active == nil || active.ID != "e1" || active.DangerLevel != 3 {
		t.Fatalf("active event = %+v", active)
	}

	if err := d.SubmitChoice(ctx, "Fight"); err != nil {
		t.Fatalf("SubmitChoice: %v", err)
	}
	want := travel.ChoiceRequest{ActorID: "hero", SessionID: "s1", EventID: "e1", Choice: "Fight"}
	if diff := cmp.Diff(want, remote.chooses[0]); diff != "" {
		t.Fatalf("choice request mismatch (-want +got):\n%s", diff)
	}
	if store.Snapshot().ActiveEvent != nil {
		t.Fatal("active event not cleared after choice")
	}

	rec.Reconcile(ctx, SourcePush, wire.JourneyComplete{Session: ruinsSession(10)})
	if got := store.Snapshot().Session.Status; got != travel.StatusCompleted {
		t.Fatalf("status = %s, want completed", got)
	}
}

func TestStartResetsLog(t *testing.T) {
	next := ruinsSession(0)
	next.ID = "s2"
	remote := &fakeRemote{startSession: &next}
	d, store, _ := newDispatcherHarness(remote)

	store.ApplyProgress(ruinsSession(10))
	store.ApplyEvent(wolvesEvent())

	if _, err := d.StartJourney(context.Background(), "ruins", travel.ModeQuiet); err != nil {
		t.Fatal(err)
	}
	snap := store.Snapshot()
	if snap.Session.ID != "s2" || len(snap.Events) != 0 || snap.ActiveEvent != nil {
		t.Fatalf("start must reset the log: %+v", snap)
	}
}

func TestStartRejectedByRemote(t *testing.T) {
	remote := &fakeRemote{startErr: remoteRejection("Character is already traveling")}
	d, store, _ := newDispatcherHarness(remote)

	_, err := d.StartJourney(context.Background(), "ruins", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	snap := store.Snapshot()
	if snap.Loading {
		t.Fatal("loading stuck after failure")
	}
	if snap.Error == "" {
		t.Fatal("expected error surfaced in the snapshot")
	}
}

func TestStartInvalidInputNeverCallsRemote(t *testing.T) {
	remote := &fakeRemote{}
	d, _, _ := newDispatcherHarness(remote)

	_, err := d.StartJourney(context.Background(), "", "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	_, err = d.StartJourney(context.Background(), "ruins", "warp")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if remote.calls() != 0 {
		t.Fatalf("remote calls = %d, want 0", remote.calls())
	}
}

func TestSubmitChoicePreconditions(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*Store)
		label string
		want  error
	}{
		{"no session", func(*Store) {}, "Fight", domain.ErrPrecondition},
		{"no session with stray event", func(s *Store) { s.ApplyEvent(wolvesEvent()) }, "Fight", domain.ErrPrecondition},
		{"no active event", func(s *Store) { s.ApplyProgress(ruinsSession(1)) }, "Fight", domain.ErrPrecondition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			d, store, _ := newDispatcherHarness(remote)
			tt.setup(store)
			before := store.Snapshot()

			err := d.SubmitChoice(context.Background(), tt.label)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if remote.calls() != 0 {
				t.Fatalf("remote calls = %d, want 0", remote.calls())
			}
			if diff := cmp.Diff(before, store.Snapshot()); diff != "" {
				t.Fatalf("local rejection changed the store (-before +after):\n%s", diff)
			}
		})
	}
}

func TestSubmitChoiceUnofferedLabelIsJudgedRemotely(t *testing.T) {
	remote := &fakeRemote{chooseErr: remoteRejection(`"fight" is not a valid choice`)}
	d, store, _ := newDispatcherHarness(remote)
	store.ApplyProgress(ruinsSession(1))
	store.ApplyEvent(wolvesEvent())

	err := d.SubmitChoice(context.Background(), "fight")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected remote validation error, got %v", err)
	}
	if len(remote.chooses) != 1 || remote.chooses[0].Choice != "fight" || remote.chooses[0].EventID != "e1" {
		t.Fatalf("choose requests = %+v", remote.chooses)
	}
	snap := store.Snapshot()
	if snap.Error == "" || snap.ActiveEvent == nil || snap.Loading {
		t.Fatalf("rejection must land in the store and keep the event: %+v", snap)
	}
}

func TestCancelJourney(t *testing.T) {
	remote := &fakeRemote{}
	d, store, _ := newDispatcherHarness(remote)

	if err := d.CancelJourney(context.Background()); !errors.Is(err, domain.ErrPrecondition) {
		t.Fatalf("expected ErrPrecondition, got %v", err)
	}
	if remote.calls() != 0 {
		t.Fatal("cancel without a session reached the remote")
	}

	store.ApplyProgress(ruinsSession(4))
	store.ApplyEvent(wolvesEvent())
	if err := d.CancelJourney(context.Background()); err != nil {
		t.Fatalf("CancelJourney: %v", err)
	}
	if got := remote.cancels[0]; got.SessionID != "s1" || got.ActorID != "hero" {
		t.Fatalf("cancel request = %+v", got)
	}
	snap := store.Snapshot()
	if snap.Session != nil || len(snap.Events) != 0 || snap.ActiveEvent != nil {
		t.Fatalf("cancel must reset: %+v", snap)
	}
}

func TestChoiceFailureKeepsActiveEvent(t *testing.T) {
	remote := &fakeRemote{chooseErr: errors.New("remote error 500: " + domain.ErrTransport.Error())}
	d, store, _ := newDispatcherHarness(remote)
	store.ApplyProgress(ruinsSession(1))
	store.ApplyEvent(wolvesEvent())

	if err := d.SubmitChoice(context.Background(), "Fight"); err == nil {
		t.Fatal("expected error")
	}
	snap := store.Snapshot()
	if snap.ActiveEvent == nil || snap.Error == "" || snap.Loading {
		t.Fatalf("unexpected snapshot after failed choice: %+v", snap)
	}
}

func TestFetchStatusReplacesState(t *testing.T) {
	sess := ruinsSession(7)
	remote := &fakeRemote{status: &travel.StatusView{
		Session: &sess,
		Events:  []travel.Event{wolvesEvent()},
		Current: ptr(wolvesEvent()),
	}}
	d, store, _ := newDispatcherHarness(remote)
	store.ApplyEvent(quietEvent("stale"))
	store.ApplyCommandError("old failure")

	if err := d.FetchStatus(context.Background()); err != nil {
		t.Fatalf("FetchStatus: %v", err)
	}
	snap := store.Snapshot()
	if snap.HasEvent("stale") || !snap.HasEvent("e1") {
		t.Fatalf("events = %+v", snap.Events)
	}
	if snap.ActiveEvent == nil || snap.ActiveEvent.ID != "e1" {
		t.Fatalf("active event = %+v", snap.ActiveEvent)
	}
	if snap.Error != "" {
		t.Fatalf("error not reset when the command started: %q", snap.Error)
	}
}

func TestRefreshKeepsSurfacedError(t *testing.T) {
	sess := ruinsSession(2)
	remote := &fakeRemote{status: &travel.StatusView{Session: &sess}}
	d, store, _ := newDispatcherHarness(remote)
	store.ApplyCommandError("choice rejected")

	var mu sync.Mutex
	var loading bool
	unsubscribe := store.Subscribe(func(s Snapshot) {
		mu.Lock()
		loading = loading || s.Loading
		mu.Unlock()
	})
	defer unsubscribe()

	if err := d.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	snap := store.Snapshot()
	if snap.Session == nil || snap.Session.MilesTraveled != 2 {
		t.Fatalf("session after refresh = %+v", snap.Session)
	}
	if snap.Error != "choice rejected" {
		t.Fatalf("error = %q after successful refresh, want it kept", snap.Error)
	}

	remote.setStatus(nil, errors.New("remote down"))
	if err := d.Refresh(context.Background()); err == nil {
		t.Fatal("expected refresh failure")
	}
	if got := store.Snapshot().Error; got != "choice rejected" {
		t.Fatalf("error = %q after failed refresh, want it kept", got)
	}

	mu.Lock()
	defer mu.Unlock()
	if loading {
		t.Fatal("background refresh toggled Loading")
	}
}

func TestFetchStatusEmptyView(t *testing.T) {
	remote := &fakeRemote{}
	d, store, _ := newDispatcherHarness(remote)
	store.ApplyProgress(ruinsSession(3))

	if err := d.FetchStatus(context.Background()); err != nil {
		t.Fatal(err)
	}
	if store.Snapshot().Session != nil {
		t.Fatal("an empty server view must clear the session")
	}
}

func TestFetchStatusCollapsesConcurrentCalls(t *testing.T) {
	gate := make(chan struct{})
	remote := &fakeRemote{statusGate: gate}
	d, store, _ := newDispatcherHarness(remote)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = d.FetchStatus(context.Background())
		}()
	}
	waitFor(t, "all commands in flight", func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.inflight == 5
	})
	time.Sleep(10 * time.Millisecond)
	close(gate)
	wg.Wait()

	if remote.statuses != 1 {
		t.Fatalf("status round trips = %d, want 1", remote.statuses)
	}
	if store.Snapshot().Loading {
		t.Fatal("loading stuck")
	}
}

func ptr[T any](v T) *T { return &v }

func remoteRejection(msg string) error {
	return &validationErr{msg: msg}
}

type validationErr struct{ msg string }

func (e *validationErr) Error() string        { return e.msg }
func (e *validationErr) Is(target error) bool { return target == domain.ErrValidation }
