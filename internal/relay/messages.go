package relay

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

// Role is what a websocket client may do on a match channel.
type Role string

const (
	RoleUmpire Role = "umpire"
	RoleViewer Role = "viewer"
)

// ParseRole defaults to viewer when raw is empty.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(RoleViewer):
		return RoleViewer, nil
	case string(RoleUmpire):
		return RoleUmpire, nil
	}
	return "", fmt.Errorf("%w: role %q", scoring.ErrInvalidArgument, raw)
}

// Inbound command types.
const (
	CommandPoint = "point"
	CommandUndo  = "undo"
	CommandPing  = "ping"
)

// Outbound-only message types.
const (
	TypeAck   = "ack"
	TypeError = "error"
	TypePong  = "pong"
)

// Command is a message sent by a client.
type Command struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// PointPayload is the body of a point command.
type PointPayload struct {
	Side      string `json:"side"`
	Direction string `json:"direction"`
}

// Message is a frame sent to a client.
type Message struct {
	Type    string `json:"type"`
	ID      string `json:"id,omitempty"`
	Payload any    `json:"payload,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Presence is the payload of join/leave notifications.
type Presence struct {
	ClientID string `json:"clientId"`
	Role     Role   `json:"role"`
	Viewers  int    `json:"viewers"`
}
