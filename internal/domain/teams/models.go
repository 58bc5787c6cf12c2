package teams

import "github.com/preston-bernstein/racket-score-service/internal/domain/players"

// Team is one side of a match: a pair of players in padel, one or two in tennis.
type Team struct {
	ID      int64            `json:"id"`
	Name    string           `json:"name,omitempty"`
	GroupID string           `json:"groupId,omitempty"`
	Players []players.Player `json:"players"`
}

// Clone copies the player slice.
func (t Team) Clone() Team {
	if t.Players != nil {
		t.Players = append([]players.Player(nil), t.Players...)
	}
	return t
}

// PlayerIDs returns the ids of the team's players in roster order.
func (t Team) PlayerIDs() []int64 {
	ids := make([]int64, 0, len(t.Players))
	for _, p := range t.Players {
		ids = append(ids, p.ID)
	}
	return ids
}
