package scoring

import (
	"fmt"
	"strings"
)

// PointLevel is the in-game score of one side, ordered 0, 15, 30, 40, AD.
type PointLevel int

const (
	PointLove PointLevel = iota
	PointFifteen
	PointThirty
	PointForty
	PointAdvantage
)

var pointLabels = [...]string{"0", "15", "30", "40", "AD"}

// Valid reports whether p is one of the five known levels.
func (p PointLevel) Valid() bool {
	return p >= PointLove && p <= PointAdvantage
}

// String returns the display label for the level.
func (p PointLevel) String() string {
	if !p.Valid() {
		return fmt.Sprintf("PointLevel(%d)", int(p))
	}
	return pointLabels[p]
}

// ParsePointLevel maps a display label back to its level.
func ParsePointLevel(label string) (PointLevel, error) {
	label = strings.ToUpper(strings.TrimSpace(label))
	for i, l := range pointLabels {
		if l == label {
			return PointLevel(i), nil
		}
	}
	return PointLove, fmt.Errorf("%w: point level %q", ErrInvalidArgument, label)
}

// Side identifies one of the two competing teams.
type Side string

const (
	SideNone Side = ""
	SideA    Side = "A"
	SideB    Side = "B"
)

// Valid reports whether s is A or B.
func (s Side) Valid() bool {
	return s == SideA || s == SideB
}

// Opponent returns the other side.
func (s Side) Opponent() Side {
	switch s {
	case SideA:
		return SideB
	case SideB:
		return SideA
	default:
		return SideNone
	}
}

// ParseSide accepts A/B as well as the team1/team2 labels used by umpire clients.
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "a", "team1":
		return SideA, nil
	case "b", "team2":
		return SideB, nil
	default:
		return SideNone, fmt.Errorf("%w: side %q", ErrInvalidArgument, raw)
	}
}

// Direction says whether a point event adds or removes a point.
type Direction string

const (
	Increment Direction = "increment"
	Decrement Direction = "decrement"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == Increment || d == Decrement
}

// ParseDirection accepts increment/decrement and the add/subtract aliases.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "increment", "add":
		return Increment, nil
	case "decrement", "subtract":
		return Decrement, nil
	default:
		return "", fmt.Errorf("%w: direction %q", ErrInvalidArgument, raw)
	}
}

// GameScore is the game currently being played.
type GameScore struct {
	SideAPoints PointLevel `json:"sideAPoints"`
	SideBPoints PointLevel `json:"sideBPoints"`
}

// Points returns the level held by side.
func (g GameScore) Points(side Side) PointLevel {
	if side == SideB {
		return g.SideBPoints
	}
	return g.SideAPoints
}

func (g GameScore) with(side Side, level PointLevel) GameScore {
	if side == SideB {
		g.SideBPoints = level
	} else {
		g.SideAPoints = level
	}
	return g
}

// Display returns the labels for side A and side B.
func (g GameScore) Display() (string, string) {
	return g.SideAPoints.String(), g.SideBPoints.String()
}

// SetScore tracks games within one set.
type SetScore struct {
	SideAGames int  `json:"sideAGames"`
	SideBGames int  `json:"sideBGames"`
	Completed  bool `json:"completed"`
	Winner     Side `json:"winner,omitempty"`
}

// Games returns the games won by side in this set.
func (s SetScore) Games(side Side) int {
	if side == SideB {
		return s.SideBGames
	}
	return s.SideAGames
}

func (s SetScore) leader() Side {
	if s.SideAGames > s.SideBGames {
		return SideA
	}
	return SideB
}

// MatchScore is the full score of a match.
type MatchScore struct {
	CurrentSetIndex int        `json:"currentSetIndex"`
	Sets            []SetScore `json:"sets"`
	CurrentGame     GameScore  `json:"currentGame"`
	Completed       bool       `json:"completed"`
	Winner          Side       `json:"winner,omitempty"`
}

// NewMatchScore returns the all-zero score for format.
func NewMatchScore(format Format) MatchScore {
	n := format.MaxSets
	if n <= 0 {
		n = 1
	}
	return MatchScore{Sets: make([]SetScore, n)}
}

// Clone returns a deep copy so callers never share the sets slice.
func (m MatchScore) Clone() MatchScore {
	out := m
	if m.Sets != nil {
		out.Sets = make([]SetScore, len(m.Sets))
		copy(out.Sets, m.Sets)
	}
	return out
}

// SetsWon counts completed sets won by side.
func (m MatchScore) SetsWon(side Side) int {
	won := 0
	for _, s := range m.Sets {
		if s.Completed && s.Winner == side {
			won++
		}
	}
	return won
}

// Validate checks the structural invariants of m against format.
func (m MatchScore) Validate(format Format) error {
	if len(m.Sets) != format.MaxSets {
		return fmt.Errorf("%w: expected %d sets, got %d", ErrInvalidArgument, format.MaxSets, len(m.Sets))
	}
	if m.CurrentSetIndex < 0 || m.CurrentSetIndex >= len(m.Sets) {
		return fmt.Errorf("%w: current set index %d out of range", ErrInvalidArgument, m.CurrentSetIndex)
	}
	a, b := m.CurrentGame.SideAPoints, m.CurrentGame.SideBPoints
	if !a.Valid() || !b.Valid() {
		return fmt.Errorf("%w: invalid point level (%d, %d)", ErrInvalidArgument, a, b)
	}
	if a == PointAdvantage && b == PointAdvantage {
		return fmt.Errorf("%w: both sides hold advantage", ErrInvalidArgument)
	}
	for i, s := range m.Sets {
		if s.SideAGames < 0 || s.SideBGames < 0 {
			return fmt.Errorf("%w: negative games in set %d", ErrInvalidArgument, i)
		}
	}
	if m.Completed && !m.Winner.Valid() {
		return fmt.Errorf("%w: completed match without winner", ErrInvalidArgument)
	}
	if !m.Completed && m.Sets[m.CurrentSetIndex].Completed {
		return fmt.Errorf("%w: current set %d already completed", ErrInvalidArgument, m.CurrentSetIndex)
	}
	return nil
}
