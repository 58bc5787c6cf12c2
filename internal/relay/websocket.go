package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
	commandTimeout = 5 * time.Second
)

var errOnlyUmpires = errors.New("only umpires can update scores")

// Commander is the scoring surface reachable from an umpire socket.
type Commander interface {
	Get(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error)
	AddPoint(ctx context.Context, key domainmatches.Key, side scoring.Side, dir scoring.Direction) (domainmatches.Match, error)
	Undo(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error)
}

// Handler upgrades HTTP requests into match channel clients.
type Handler struct {
	hub      *Hub
	commands Commander
	logger   *slog.Logger
	recorder *metrics.Recorder
	upgrader websocket.Upgrader
}

// NewHandler builds a Handler. allowedOrigins of nil or ["*"] accepts any origin.
func NewHandler(hub *Hub, commands Commander, logger *slog.Logger, recorder *metrics.Recorder, allowedOrigins []string) *Handler {
	return &Handler{
		hub:      hub,
		commands: commands,
		logger:   logger,
		recorder: recorder,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// ServeMatch joins the caller to the channel of key with the role in ?role=.
// Validation failures are answered with plain HTTP errors before upgrading.
func (h *Handler) ServeMatch(w http.ResponseWriter, r *http.Request, key domainmatches.Key) error {
	role, err := ParseRole(r.URL.Query().Get("role"))
	if err != nil {
		return err
	}
	m, err := h.commands.Get(r.Context(), key)
	if err != nil {
		return err
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		logging.Warn(logging.FromContext(r.Context(), h.logger), "websocket upgrade failed", "error", err)
		return nil
	}

	c := &client{
		id:      uuid.NewString(),
		role:    role,
		key:     key,
		conn:    conn,
		handler: h,
		send:    make(chan Message, sendBuffer),
		done:    make(chan struct{}),
	}
	c.logger = logging.FromContext(r.Context(), h.logger)
	if c.logger != nil {
		c.logger = c.logger.With(append(logging.MatchAttrs(key.TournamentID, key.MatchID), logging.FieldClientID, c.id, logging.FieldRole, role)...)
	}
	c.run(m)
	return nil
}

type client struct {
	id      string
	role    Role
	key     domainmatches.Key
	conn    *websocket.Conn
	handler *Handler
	logger  *slog.Logger

	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func (c *client) run(m domainmatches.Match) {
	h := c.handler
	unsubscribe := h.hub.Listen(c.key, c.role, c.onEvent)
	h.recorder.RelayClientJoined(string(c.role))
	logging.Info(c.logger, "relay client joined")

	c.enqueue(Message{Type: EventMatchJoined, Payload: joinedPayload{
		Presence: c.presence(),
		Match:    domainmatches.NewView(m),
	}})
	if c.role == RoleViewer {
		h.hub.Announce(Event{Type: EventViewerJoined, Key: c.key, ClientID: c.id, Role: c.role})
	}

	go c.writePump()
	c.readPump()

	unsubscribe()
	c.close()
	h.recorder.RelayClientLeft(string(c.role))
	if c.role == RoleViewer {
		h.hub.Announce(Event{Type: EventViewerLeft, Key: c.key, ClientID: c.id, Role: c.role})
	}
	logging.Info(c.logger, "relay client left")
}

type joinedPayload struct {
	Presence
	Match domainmatches.View `json:"match"`
}

func (c *client) presence() Presence {
	return Presence{ClientID: c.id, Role: c.role, Viewers: c.handler.hub.Clients(c.key, RoleViewer)}
}

func (c *client) onEvent(ev Event) {
	switch ev.Type {
	case EventScoreUpdate:
		if ev.Match != nil {
			c.enqueue(Message{Type: EventScoreUpdate, Payload: domainmatches.NewView(*ev.Match)})
		}
	case EventViewerJoined, EventViewerLeft:
		if ev.ClientID == c.id {
			return
		}
		c.enqueue(Message{Type: ev.Type, Payload: Presence{
			ClientID: ev.ClientID,
			Role:     ev.Role,
			Viewers:  c.handler.hub.Clients(c.key, RoleViewer),
		}})
	case EventMatchDeleted:
		c.enqueue(Message{Type: EventMatchDeleted})
	}
}

// enqueue never blocks; a client whose buffer is full is disconnected.
func (c *client) enqueue(msg Message) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- msg:
	default:
		logging.Warn(c.logger, "relay client too slow, disconnecting")
		c.close()
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) && !isClosed(c.done) {
				logging.Warn(c.logger, "relay read failed", "error", err)
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			c.enqueue(Message{Type: TypeError, Error: "invalid message"})
			continue
		}
		c.handleCommand(cmd)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
			if msg.Type == EventMatchDeleted {
				_ = c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "match deleted"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (c *client) handleCommand(cmd Command) {
	switch cmd.Type {
	case CommandPing:
		c.enqueue(Message{Type: TypePong, ID: cmd.ID})
	case CommandPoint, CommandUndo:
		if c.role != RoleUmpire {
			c.reject(cmd, errOnlyUmpires)
			return
		}
		if err := c.applyCommand(cmd); err != nil {
			c.reject(cmd, err)
			return
		}
		c.enqueue(Message{Type: TypeAck, ID: cmd.ID})
	default:
		c.enqueue(Message{Type: TypeError, ID: cmd.ID, Error: "unknown message type"})
	}
}

func (c *client) applyCommand(cmd Command) error {
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, c.logger)

	if cmd.Type == CommandUndo {
		_, err := c.handler.commands.Undo(ctx, c.key)
		return err
	}

	var p PointPayload
	if err := json.Unmarshal(cmd.Payload, &p); err != nil {
		return errors.New("invalid payload")
	}
	side, err := scoring.ParseSide(p.Side)
	if err != nil {
		return err
	}
	dir := scoring.Increment
	if p.Direction != "" {
		if dir, err = scoring.ParseDirection(p.Direction); err != nil {
			return err
		}
	}
	_, err = c.handler.commands.AddPoint(ctx, c.key, side, dir)
	return err
}

func (c *client) reject(cmd Command, err error) {
	c.enqueue(Message{Type: TypeError, ID: cmd.ID, Error: err.Error()})
}

func isClosed(done chan struct{}) bool {
	select {
	case <-done:
		return true
	default:
		return false
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimSpace(o)
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(o)] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		_, ok := set[strings.ToLower(u.Scheme+"://"+u.Host)]
		return ok
	}
}
