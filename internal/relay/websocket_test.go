package relay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	appmatches "github.com/preston-bernstein/racket-score-service/internal/app/matches"
	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
	"github.com/preston-bernstein/racket-score-service/internal/store"
	"github.com/preston-bernstein/racket-score-service/internal/testutil"
)

type inbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id"`
	Payload json.RawMessage `json:"payload"`
	Error   string          `json:"error"`
}

type relayFixture struct {
	hub *Hub
	svc *appmatches.Service
	rec *metrics.Recorder
	key domainmatches.Key
	url string
}

func newRelayFixture(t *testing.T) relayFixture {
	t.Helper()
	hub := NewHub()
	rec := metrics.NewRecorder()
	svc, _ := testutil.NewMatchService(appmatches.WithBroadcaster(hub))
	m, err := svc.Initialize(context.Background(), testutil.SampleInitParams("t1", "7", true))
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}

	handler := NewHandler(hub, svc, nil, rec, nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := domainmatches.Key{TournamentID: "t1", MatchID: strings.TrimPrefix(r.URL.Path, "/")}
		if err := handler.ServeMatch(w, r, key); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, store.ErrNotFound) {
				status = http.StatusNotFound
			}
			http.Error(w, err.Error(), status)
		}
	}))
	t.Cleanup(srv.Close)

	return relayFixture{
		hub: hub,
		svc: svc,
		rec: rec,
		key: m.Key(),
		url: "ws" + strings.TrimPrefix(srv.URL, "http"),
	}
}

func (f relayFixture) dial(t *testing.T, matchID, role string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(f.url+"/"+matchID+"?role="+role, nil)
	if err != nil {
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		t.Fatalf("dial %s as %s: %v (status %d)", matchID, role, err, status)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) inbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg inbound
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func expectType(t *testing.T, conn *websocket.Conn, want string) inbound {
	t.Helper()
	msg := readMessage(t, conn)
	if msg.Type != want {
		t.Fatalf("expected %s, got %+v", want, msg)
	}
	return msg
}

func TestJoinSendsCurrentMatch(t *testing.T) {
	f := newRelayFixture(t)
	viewer := f.dial(t, "7", "viewer")

	msg := expectType(t, viewer, EventMatchJoined)
	var payload struct {
		Presence
		Match domainmatches.View `json:"match"`
	}
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		t.Fatalf("decode joined payload: %v", err)
	}
	if payload.Role != RoleViewer || payload.Viewers != 1 || payload.ClientID == "" {
		t.Fatalf("unexpected presence %+v", payload.Presence)
	}
	if payload.Match.MatchID != "7" || payload.Match.CurrentGameDisplay.SideA != "0" {
		t.Fatalf("unexpected match payload %+v", payload.Match)
	}
	if f.rec.RelayClients("viewer") != 1 {
		t.Fatalf("expected relay gauge to count the viewer")
	}
}

func TestUmpirePointFansOutToViewers(t *testing.T) {
	f := newRelayFixture(t)
	viewer := f.dial(t, "7", "viewer")
	expectType(t, viewer, EventMatchJoined)
	umpire := f.dial(t, "7", "umpire")
	expectType(t, umpire, EventMatchJoined)

	if err := umpire.WriteJSON(Command{Type: CommandPoint, ID: "p1", Payload: json.RawMessage(`{"side":"A","direction":"increment"}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}

	update := expectType(t, umpire, EventScoreUpdate)
	var view domainmatches.View
	if err := json.Unmarshal(update.Payload, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if view.CurrentGameDisplay.SideA != "15" {
		t.Fatalf("expected 15-0, got %+v", view.CurrentGameDisplay)
	}
	if ack := expectType(t, umpire, TypeAck); ack.ID != "p1" {
		t.Fatalf("expected ack for p1, got %+v", ack)
	}
	expectType(t, viewer, EventScoreUpdate)

	if err := umpire.WriteJSON(Command{Type: CommandUndo, ID: "u1"}); err != nil {
		t.Fatalf("write undo: %v", err)
	}
	expectType(t, umpire, EventScoreUpdate)
	expectType(t, umpire, TypeAck)

	score, _ := f.svc.LoadMatchState(context.Background(), f.key)
	if score.CurrentGame != (scoring.GameScore{}) {
		t.Fatalf("expected undo to restore 0-0, got %+v", score.CurrentGame)
	}
}

func TestViewerCannotScore(t *testing.T) {
	f := newRelayFixture(t)
	viewer := f.dial(t, "7", "viewer")
	expectType(t, viewer, EventMatchJoined)

	if err := viewer.WriteJSON(Command{Type: CommandPoint, ID: "x", Payload: json.RawMessage(`{"side":"B"}`)}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := expectType(t, viewer, TypeError)
	if msg.Error != "only umpires can update scores" {
		t.Fatalf("unexpected error %q", msg.Error)
	}

	if err := viewer.WriteJSON(Command{Type: CommandPing, ID: "ping-1"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	if pong := expectType(t, viewer, TypePong); pong.ID != "ping-1" {
		t.Fatalf("expected pong id, got %+v", pong)
	}
}

func TestUmpireErrorsAreReported(t *testing.T) {
	f := newRelayFixture(t)
	umpire := f.dial(t, "7", "umpire")
	expectType(t, umpire, EventMatchJoined)

	cases := []Command{
		{Type: CommandUndo, ID: "empty"},
		{Type: CommandPoint, ID: "bad-side", Payload: json.RawMessage(`{"side":"C"}`)},
		{Type: CommandPoint, ID: "bad-json", Payload: json.RawMessage(`"nope"`)},
		{Type: "serve", ID: "unknown"},
	}
	for _, cmd := range cases {
		if err := umpire.WriteJSON(cmd); err != nil {
			t.Fatalf("write %s: %v", cmd.ID, err)
		}
		msg := expectType(t, umpire, TypeError)
		if msg.ID != cmd.ID || msg.Error == "" {
			t.Fatalf("unexpected error reply %+v", msg)
		}
	}
}

func TestViewerPresenceIsAnnounced(t *testing.T) {
	f := newRelayFixture(t)
	umpire := f.dial(t, "7", "umpire")
	expectType(t, umpire, EventMatchJoined)

	viewer := f.dial(t, "7", "viewer")
	expectType(t, viewer, EventMatchJoined)

	joined := expectType(t, umpire, EventViewerJoined)
	var p Presence
	_ = json.Unmarshal(joined.Payload, &p)
	if p.Viewers != 1 || p.Role != RoleViewer {
		t.Fatalf("unexpected join presence %+v", p)
	}

	_ = viewer.Close()
	left := expectType(t, umpire, EventViewerLeft)
	_ = json.Unmarshal(left.Payload, &p)
	if p.Viewers != 0 {
		t.Fatalf("expected no viewers after leave, got %+v", p)
	}
}

func TestDeleteDisconnectsClients(t *testing.T) {
	f := newRelayFixture(t)
	viewer := f.dial(t, "7", "viewer")
	expectType(t, viewer, EventMatchJoined)

	if err := f.svc.Delete(context.Background(), f.key); err != nil {
		t.Fatalf("delete: %v", err)
	}
	expectType(t, viewer, EventMatchDeleted)

	_ = viewer.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := viewer.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected normal close, got %v", err)
	}
}

func TestServeMatchRejectsBeforeUpgrade(t *testing.T) {
	f := newRelayFixture(t)

	_, resp, err := websocket.DefaultDialer.Dial(f.url+"/7?role=referee", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown role, got %v %+v", err, resp)
	}

	_, resp, err = websocket.DefaultDialer.Dial(f.url+"/404?role=viewer", nil)
	if err == nil || resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown match, got %v %+v", err, resp)
	}
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://score.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if !check(req) {
		t.Fatalf("expected requests without Origin to pass")
	}
	req.Header.Set("Origin", "https://score.example.com")
	if !check(req) {
		t.Fatalf("expected allowed origin to pass")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Fatalf("expected foreign origin to fail")
	}
	if !originChecker([]string{"*"})(req) {
		t.Fatalf("expected wildcard to allow all")
	}
}
