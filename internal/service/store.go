// Package service implements the travel session synchronization core: the
// session state store, the reconciliation engine, the push connection
// manager, the command dispatcher, and the lifecycle controller.
package service

import (
	"slices"
	"sync"

	"github.com/nuaibria/travelsync/internal/domain/travel"
)

// AdvisoryDelayed is shown while the push channel is down after having been open.
const AdvisoryDelayed = "updates may be delayed"

// Snapshot is an immutable view of the client's journey state. Events are
// newest first. Slices and pointers in a Snapshot are never mutated after it
// is published.
type Snapshot struct {
	Session     *travel.Session
	Events      []travel.Event
	ActiveEvent *travel.Event
	Loading     bool
	Error       string
	Advisory    string
}

// HasEvent reports whether an event with id is in the log.
func (s Snapshot) HasEvent(id string) bool {
	return slices.ContainsFunc(s.Events, func(e travel.Event) bool { return e.ID == id })
}

// Store owns the current Snapshot. Every mutation replaces the snapshot with
// the result of a pure apply function.
type Store struct {
	// notifyMu serializes updates so subscribers observe snapshots in order.
	notifyMu sync.Mutex
	mu       sync.Mutex
	snap     Snapshot
	inflight int
	subs     map[int]func(Snapshot)
	nextSub  int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{subs: make(map[int]func(Snapshot))}
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

// Subscribe registers fn to be called with every new snapshot. fn runs
// synchronously on the mutating goroutine and must not mutate the store. It
// may read other state, such as the connection state, but must not call
// Deactivate or Teardown.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(fn func(Snapshot) Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.snap = fn(s.snap)
	snap := s.snap
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
}

// ApplyProgress replaces the current session.
func (s *Store) ApplyProgress(sess travel.Session) {
	s.update(func(old Snapshot) Snapshot { return applyProgress(old, sess) })
}

// ApplyEvent records a narrative event once.
func (s *Store) ApplyEvent(e travel.Event) {
	s.update(func(old Snapshot) Snapshot { return applyEvent(old, e) })
}

// ApplyComplete marks the session completed.
func (s *Store) ApplyComplete(sess travel.Session) {
	s.update(func(old Snapshot) Snapshot { return applyComplete(old, sess) })
}

// ApplyCommandError records a user-visible error message.
func (s *Store) ApplyCommandError(msg string) {
	s.update(func(old Snapshot) Snapshot { return applyCommandError(old, msg) })
}

// ClearActiveEvent clears the active event if it is still eventID. An empty
// eventID clears any active event.
func (s *Store) ClearActiveEvent(eventID string) {
	s.update(func(old Snapshot) Snapshot { return clearActiveEvent(old, eventID) })
}

// Reset clears the session, the event log and the active event.
func (s *Store) Reset() {
	s.update(reset)
}

// StartSession resets the journey state and installs sess as current.
func (s *Store) StartSession(sess travel.Session) {
	s.update(func(old Snapshot) Snapshot { return applyProgress(reset(old), sess) })
}

// Replace installs the authoritative server view wholesale.
func (s *Store) Replace(v travel.StatusView) {
	s.update(func(old Snapshot) Snapshot { return replace(old, v) })
}

// SetAdvisory sets or clears the connection advisory.
func (s *Store) SetAdvisory(msg string) {
	s.update(func(old Snapshot) Snapshot {
		old.Advisory = msg
		return old
	})
}

// BeginCommand marks a command in flight and clears the previous error.
func (s *Store) BeginCommand() {
	s.update(func(old Snapshot) Snapshot {
		s.inflight++
		old.Loading = true
		old.Error = ""
		return old
	})
}

// EndCommand marks a command finished. Loading stays set while other
// commands are in flight.
func (s *Store) EndCommand() {
	s.update(func(old Snapshot) Snapshot {
		if s.inflight > 0 {
			s.inflight--
		}
		old.Loading = s.inflight > 0
		return old
	})
}

func applyProgress(old Snapshot, sess travel.Session) Snapshot {
	if old.Session != nil && old.Session.ID != sess.ID {
		old.Events = nil
		old.ActiveEvent = nil
	}
	old.Session = &sess
	if sess.Status.Terminal() {
		old.ActiveEvent = nil
	}
	return old
}

func applyEvent(old Snapshot, e travel.Event) Snapshot {
	if old.HasEvent(e.ID) {
		return old
	}
	events := make([]travel.Event, 0, len(old.Events)+1)
	events = append(events, e)
	old.Events = append(events, old.Events...)
	if e.RequiresChoice() {
		old.ActiveEvent = &e
	}
	return old
}

func applyComplete(old Snapshot, sess travel.Session) Snapshot {
	sess.Status = travel.StatusCompleted
	return applyProgress(old, sess)
}

func applyCommandError(old Snapshot, msg string) Snapshot {
	old.Error = msg
	return old
}

func clearActiveEvent(old Snapshot, eventID string) Snapshot {
	if old.ActiveEvent != nil && (eventID == "" || old.ActiveEvent.ID == eventID) {
		old.ActiveEvent = nil
	}
	return old
}

func reset(old Snapshot) Snapshot {
	old.Session = nil
	old.Events = nil
	old.ActiveEvent = nil
	return old
}

func replace(old Snapshot, v travel.StatusView) Snapshot {
	old.Session = nil
	if v.Session != nil {
		sess := *v.Session
		old.Session = &sess
	}
	old.Events = slices.Clone(v.Events)
	old.ActiveEvent = nil
	if v.Current != nil {
		cur := *v.Current
		old.ActiveEvent = &cur
	}
	return old
}
