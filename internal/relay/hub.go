package relay

import (
	"sync"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
)

// Event types delivered to listeners and forwarded to websocket clients.
const (
	EventMatchJoined  = "matchJoined"
	EventScoreUpdate  = "scoreUpdate"
	EventViewerJoined = "viewerJoined"
	EventViewerLeft   = "viewerLeft"
	EventMatchDeleted = "matchDeleted"
)

// Event is one change on a match channel.
type Event struct {
	Type     string
	Key      domainmatches.Key
	Match    *domainmatches.Match
	ClientID string
	Role     Role
}

type listener struct {
	role Role
	fn   func(Event)
}

// Hub is an in-process pub/sub keyed by match. Listeners run synchronously on
// the publishing goroutine and must not block.
type Hub struct {
	mu        sync.RWMutex
	listeners map[domainmatches.Key]map[uint64]listener
	next      uint64
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{listeners: make(map[domainmatches.Key]map[uint64]listener)}
}

// Subscribe registers fn for score updates of key.
func (h *Hub) Subscribe(key domainmatches.Key, fn func(domainmatches.Match)) func() {
	return h.Listen(key, "", func(ev Event) {
		if ev.Type == EventScoreUpdate && ev.Match != nil {
			fn(ev.Match.Clone())
		}
	})
}

// Listen registers fn for every event of key. A non-empty role counts the
// listener as a connected client.
func (h *Hub) Listen(key domainmatches.Key, role Role, fn func(Event)) func() {
	h.mu.Lock()
	h.next++
	id := h.next
	set, ok := h.listeners[key]
	if !ok {
		set = make(map[uint64]listener)
		h.listeners[key] = set
	}
	set[id] = listener{role: role, fn: fn}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.listeners[key]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(h.listeners, key)
				}
			}
		})
	}
}

// Publish delivers a score update for m.
func (h *Hub) Publish(m domainmatches.Match) {
	m = m.Clone()
	h.Announce(Event{Type: EventScoreUpdate, Key: m.Key(), Match: &m})
}

// Announce delivers ev to every listener of ev.Key.
func (h *Hub) Announce(ev Event) {
	for _, l := range h.snapshot(ev.Key) {
		l.fn(ev)
	}
}

// Remove tells listeners the match is gone and drops them.
func (h *Hub) Remove(key domainmatches.Key) {
	h.mu.Lock()
	set := h.listeners[key]
	delete(h.listeners, key)
	h.mu.Unlock()

	for _, l := range set {
		l.fn(Event{Type: EventMatchDeleted, Key: key})
	}
}

// Subscribers returns the number of listeners on key.
func (h *Hub) Subscribers(key domainmatches.Key) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.listeners[key])
}

// Clients returns how many connected clients hold role on key.
func (h *Hub) Clients(key domainmatches.Key, role Role) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, l := range h.listeners[key] {
		if l.role == role {
			n++
		}
	}
	return n
}

func (h *Hub) snapshot(key domainmatches.Key) []listener {
	h.mu.RLock()
	defer h.mu.RUnlock()
	set := h.listeners[key]
	out := make([]listener, 0, len(set))
	for _, l := range set {
		out = append(out, l)
	}
	return out
}
