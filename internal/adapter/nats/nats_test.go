package nats

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nuaibria/travelsync/internal/domain"
	"github.com/nuaibria/travelsync/internal/domain/travel"
	"github.com/nuaibria/travelsync/internal/wire"
)

func TestSubjects(t *testing.T) {
	if got := EventsSubject("hero"); got != "travel.hero.events" {
		t.Fatalf("EventsSubject = %q", got)
	}
	if got := RequestsSubject("hero"); got != "travel.hero.requests" {
		t.Fatalf("RequestsSubject = %q", got)
	}

	tests := []struct {
		subject string
		actor   string
		ok      bool
	}{
		{"travel.hero.requests", "hero", true},
		{"travel.hero.events", "", false},
		{"travel..requests", "", false},
		{"travel.a.b.requests", "", false},
		{"other.hero.requests", "", false},
	}
	for _, tt := range tests {
		actor, ok := actorFromRequestsSubject(tt.subject)
		if actor != tt.actor || ok != tt.ok {
			t.Errorf("actorFromRequestsSubject(%q) = %q, %v", tt.subject, actor, ok)
		}
	}
}

func TestValidateActor(t *testing.T) {
	for _, id := range []string{"", "a.b", "a*", "a>", "a b"} {
		if err := validateActor(id); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("validateActor(%q) = %v, want ErrValidation", id, err)
		}
	}
	if err := validateActor("hero-1"); err != nil {
		t.Errorf("validateActor(hero-1) = %v", err)
	}
}

func TestBoundedContext(t *testing.T) {
	ctx, cancel := boundedContext(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	if !ok {
		t.Fatal("no deadline applied to an unbounded context")
	}
	if left := time.Until(deadline); left <= 0 || left > nats.DefaultTimeout {
		t.Fatalf("deadline in %v, want within %v", left, nats.DefaultTimeout)
	}

	parent, parentCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer parentCancel()
	want, _ := parent.Deadline()
	ctx, cancel = boundedContext(parent)
	defer cancel()
	if got, _ := ctx.Deadline(); !got.Equal(want) {
		t.Fatalf("deadline = %v, want caller's %v", got, want)
	}
}

func TestDialWithoutDeadline(t *testing.T) {
	url := testURL(t)
	conn, err := NewDialer(url, "hero", "").Dial(context.Background())
	if err != nil {
		t.Fatalf("Dial without deadline: %v", err)
	}
	_ = conn.Close()
}

type fixedStatus []wire.Message

func (f fixedStatus) CurrentMessages(string) []wire.Message { return f }

// testURL returns NATS_URL or skips the test.
func testURL(t *testing.T) string {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	return url
}

func TestBrokerRoundTrip(t *testing.T) {
	url := testURL(t)
	actor := "hero-" + time.Now().Format("150405.000000")[7:]

	session := travel.Session{
		ID: "s1", ActorID: actor, DestinationName: "Ancient Ruins",
		MilesTraveled: 5, MilesTotal: 10, DangerLevel: 1, Status: travel.StatusInProgress,
	}
	b, err := Connect(url, fixedStatus{wire.ProgressUpdate{Session: session}})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c, err := NewDialer(url, actor, "").Dial(ctx)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer func() { _ = c.Close() }()

	req, _ := wire.EncodeStatusRequest(actor)
	if err := c.Write(ctx, req); err != nil {
		t.Fatalf("Write: %v", err)
	}
	raw, err := c.Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	msg, err := wire.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if p, ok := msg.(wire.ProgressUpdate); !ok || p.Session.ID != "s1" {
		t.Fatalf("got %#v", msg)
	}

	_ = c.Close()
	if _, err := c.Read(ctx); !errors.Is(err, ErrClosed) {
		t.Fatalf("Read after Close = %v, want ErrClosed", err)
	}
}
