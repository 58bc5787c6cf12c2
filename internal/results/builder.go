package results

import (
	"encoding/json"
	"fmt"
	"strconv"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/domain/players"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

// Row is one player's games in one set.
type Row struct {
	BookingResultTmpID int          `json:"bookingResultTmpId"`
	PlayerID           int64        `json:"playerId"`
	Side               scoring.Side `json:"side"`
	Round              int          `json:"round"`
	Points             int          `json:"points"`
	GameType           int          `json:"gameType"`
	ResultType         MatchResult  `json:"resultType"`
}

// Upload is the UpdateTournamentMatchResult request body. Results holds the
// JSON-encoded rows as a string.
type Upload struct {
	Results              string      `json:"results"`
	MatchResult          MatchResult `json:"matchResult"`
	TournamentScheduleID int64       `json:"tournamentScheduleId"`
	PlayStatus           PlayStatus  `json:"playStatus"`
	IsReUploadResult     bool        `json:"isReUploadResult"`
}

// ScheduleID converts the match id to the backend's numeric schedule id.
func ScheduleID(m domainmatches.Match) (int64, error) {
	id, err := strconv.ParseInt(m.MatchID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: match id %q is not a schedule id", scoring.ErrInvalidArgument, m.MatchID)
	}
	return id, nil
}

// BuildUpload produces the result rows for a completed match: every player of
// both teams gets one row per round 1..3, unplayed sets reporting zero games.
func BuildUpload(m domainmatches.Match) (Upload, error) {
	score := m.Score()
	if !score.Completed || !score.Winner.Valid() {
		return Upload{}, fmt.Errorf("%w: match %s is not completed", scoring.ErrInvalidArgument, m.Key())
	}
	scheduleID, err := ScheduleID(m)
	if err != nil {
		return Upload{}, err
	}

	outcome := MatchResultTeamAWon
	if score.Winner == scoring.SideB {
		outcome = MatchResultTeamBWon
	}

	rows := make([]Row, 0, (len(m.Team1.Players)+len(m.Team2.Players))*reportedRounds)
	rows = appendRows(rows, m.Team1.Players, scoring.SideA, score, outcome)
	rows = appendRows(rows, m.Team2.Players, scoring.SideB, score, outcome)

	encoded, err := json.Marshal(rows)
	if err != nil {
		return Upload{}, fmt.Errorf("encode result rows: %w", err)
	}
	return Upload{
		Results:              string(encoded),
		MatchResult:          outcome,
		TournamentScheduleID: scheduleID,
		PlayStatus:           PlayStatusCompleted,
		IsReUploadResult:     m.UploadCount > 0,
	}, nil
}

func appendRows(rows []Row, roster []players.Player, side scoring.Side, score scoring.MatchScore, outcome MatchResult) []Row {
	for _, p := range roster {
		for round := 1; round <= reportedRounds; round++ {
			games := 0
			if round <= len(score.Sets) {
				games = score.Sets[round-1].Games(side)
			}
			rows = append(rows, Row{
				PlayerID:   p.ID,
				Side:       side,
				Round:      round,
				Points:     games,
				GameType:   gameTypeSet,
				ResultType: outcome,
			})
		}
	}
	return rows
}
