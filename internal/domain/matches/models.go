package matches

import (
	"fmt"
	"strings"
	"time"

	"github.com/preston-bernstein/racket-score-service/internal/domain/teams"
	"github.com/preston-bernstein/racket-score-service/internal/history"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

// Status mirrors the shared contract for match lifecycle states.
type Status string

const (
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// RoundType names the tournament stage a match belongs to.
type RoundType string

const (
	RoundGroup        RoundType = "group"
	RoundOf16         RoundType = "round16"
	RoundQuarterFinal RoundType = "quarter-final"
	RoundSemiFinal    RoundType = "semi-final"
	RoundFinal        RoundType = "final"
)

// Valid reports whether r is a known round type.
func (r RoundType) Valid() bool {
	switch r {
	case RoundGroup, RoundOf16, RoundQuarterFinal, RoundSemiFinal, RoundFinal:
		return true
	}
	return false
}

// Key addresses a match document.
type Key struct {
	TournamentID string
	MatchID      string
}

func (k Key) String() string {
	return k.TournamentID + "/" + k.MatchID
}

// Validate rejects empty or path-unsafe identifiers.
func (k Key) Validate() error {
	for _, id := range []string{k.TournamentID, k.MatchID} {
		if id == "" || strings.ContainsAny(id, " \t/") {
			return fmt.Errorf("%w: match key %q", scoring.ErrInvalidArgument, k.String())
		}
	}
	return nil
}

// State is the live scoring state plus the transition log that produced it.
type State struct {
	Score        scoring.MatchScore `json:"score"`
	PointHistory []history.Entry    `json:"pointHistory"`
}

// Match is the document persisted per (tournament, match) and broadcast to viewers.
type Match struct {
	TournamentID      string         `json:"tournamentId"`
	MatchID           string         `json:"matchId"`
	TournamentName    string         `json:"tournamentName,omitempty"`
	SportType         string         `json:"sportType,omitempty"`
	RoundType         RoundType      `json:"roundType,omitempty"`
	Team1             teams.Team     `json:"team1"`
	Team2             teams.Team     `json:"team2"`
	Settings          scoring.Format `json:"matchSettings"`
	CurrentMatchState State          `json:"currentMatchState"`
	Status            Status         `json:"status"`
	StartTime         time.Time      `json:"startTime"`
	EndTime           *time.Time     `json:"endTime,omitempty"`
	LastUpdated       time.Time      `json:"lastUpdated"`
	ResultUploaded    bool           `json:"resultUploaded"`
	UploadCount       int            `json:"uploadCount"`
	Version           int64          `json:"version"`
}

// Key returns the document address.
func (m Match) Key() Key {
	return Key{TournamentID: m.TournamentID, MatchID: m.MatchID}
}

// Score is shorthand for the current score.
func (m Match) Score() scoring.MatchScore {
	return m.CurrentMatchState.Score
}

// Team returns the team playing on side.
func (m Match) Team(side scoring.Side) teams.Team {
	if side == scoring.SideB {
		return m.Team2
	}
	return m.Team1
}

// PendingUpload reports whether a completed result still needs pushing to the backend.
func (m Match) PendingUpload() bool {
	return m.Status == StatusCompleted && m.Score().Completed && !m.ResultUploaded
}

// Clone deep-copies slices and pointers so stores never share memory with callers.
func (m Match) Clone() Match {
	out := m
	out.Team1 = m.Team1.Clone()
	out.Team2 = m.Team2.Clone()
	out.CurrentMatchState.Score = m.CurrentMatchState.Score.Clone()
	if m.CurrentMatchState.PointHistory != nil {
		out.CurrentMatchState.PointHistory = make([]history.Entry, len(m.CurrentMatchState.PointHistory))
		for i, e := range m.CurrentMatchState.PointHistory {
			out.CurrentMatchState.PointHistory[i] = e.Clone()
		}
	}
	if m.EndTime != nil {
		end := *m.EndTime
		out.EndTime = &end
	}
	return out
}

// InitParams carries what an umpire supplies when starting a match.
type InitParams struct {
	TournamentID   string     `json:"tournamentId"`
	MatchID        string     `json:"matchId"`
	TournamentName string     `json:"tournamentName"`
	SportType      string     `json:"sportType"`
	RoundType      RoundType  `json:"roundType"`
	Knockout       bool       `json:"isKnockout"`
	Team1          teams.Team `json:"team1"`
	Team2          teams.Team `json:"team2"`
}

// New builds the all-zero match document for params.
func New(params InitParams, now time.Time) (Match, error) {
	key := Key{TournamentID: params.TournamentID, MatchID: params.MatchID}
	if err := key.Validate(); err != nil {
		return Match{}, err
	}
	if params.Team1.ID == 0 || params.Team2.ID == 0 {
		return Match{}, fmt.Errorf("%w: both team ids are required", scoring.ErrInvalidArgument)
	}
	if params.Team1.ID == params.Team2.ID {
		return Match{}, fmt.Errorf("%w: a team cannot play itself", scoring.ErrInvalidArgument)
	}
	round := params.RoundType
	if round == "" {
		round = RoundGroup
	}
	if !round.Valid() {
		return Match{}, fmt.Errorf("%w: round type %q", scoring.ErrInvalidArgument, round)
	}
	sport := params.SportType
	if sport == "" {
		sport = "padel"
	}

	format := scoring.NewFormat(params.Knockout)
	now = now.UTC()
	return Match{
		TournamentID:   params.TournamentID,
		MatchID:        params.MatchID,
		TournamentName: params.TournamentName,
		SportType:      sport,
		RoundType:      round,
		Team1:          params.Team1.Clone(),
		Team2:          params.Team2.Clone(),
		Settings:       format,
		CurrentMatchState: State{
			Score:        scoring.NewMatchScore(format),
			PointHistory: []history.Entry{},
		},
		Status:      StatusInProgress,
		StartTime:   now,
		LastUpdated: now,
	}, nil
}

// Reinitialize returns m with an all-zero score and empty history, keeping teams and format.
func (m Match) Reinitialize(now time.Time) Match {
	out := m.Clone()
	now = now.UTC()
	out.CurrentMatchState = State{
		Score:        scoring.NewMatchScore(m.Settings),
		PointHistory: []history.Entry{},
	}
	out.Status = StatusInProgress
	out.StartTime = now
	out.EndTime = nil
	out.LastUpdated = now
	out.ResultUploaded = false
	return out
}
