package relay

import (
	"testing"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/testutil"
)

func TestHubSubscribeReceivesScoreUpdates(t *testing.T) {
	hub := NewHub()
	m := testutil.SampleMatch(t, "t1", "1", true)

	var got []domainmatches.Match
	unsubscribe := hub.Subscribe(m.Key(), func(u domainmatches.Match) { got = append(got, u) })

	hub.Publish(m)
	hub.Announce(Event{Type: EventViewerJoined, Key: m.Key(), ClientID: "c1", Role: RoleViewer})
	hub.Publish(testutil.SampleMatch(t, "t1", "2", true))

	if len(got) != 1 || got[0].MatchID != "1" {
		t.Fatalf("expected one update for match 1, got %+v", got)
	}

	unsubscribe()
	unsubscribe()
	hub.Publish(m)
	if len(got) != 1 {
		t.Fatalf("expected no updates after unsubscribe")
	}
	if hub.Subscribers(m.Key()) != 0 {
		t.Fatalf("expected no subscribers left")
	}
}

func TestHubRemoveNotifiesAndDrops(t *testing.T) {
	hub := NewHub()
	key := domainmatches.Key{TournamentID: "t1", MatchID: "1"}

	var events []string
	hub.Listen(key, RoleViewer, func(ev Event) { events = append(events, ev.Type) })
	hub.Listen(key, RoleUmpire, func(Event) {})
	if hub.Clients(key, RoleViewer) != 1 || hub.Clients(key, RoleUmpire) != 1 || hub.Subscribers(key) != 2 {
		t.Fatalf("unexpected client counts")
	}

	hub.Remove(key)
	if len(events) != 1 || events[0] != EventMatchDeleted {
		t.Fatalf("expected matchDeleted, got %+v", events)
	}
	if hub.Subscribers(key) != 0 {
		t.Fatalf("expected listeners dropped")
	}
}

func TestParseRole(t *testing.T) {
	cases := map[string]Role{"": RoleViewer, "viewer": RoleViewer, "UMPIRE": RoleUmpire}
	for in, want := range cases {
		got, err := ParseRole(in)
		if err != nil || got != want {
			t.Fatalf("ParseRole(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseRole("referee"); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}
