package testutil

import (
	"testing"
	"time"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/domain/players"
	"github.com/preston-bernstein/racket-score-service/internal/domain/teams"
)

// FixedStart is the start time used by sample fixtures.
var FixedStart = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// SampleInitParams returns doubles teams for (tournamentID, matchID).
func SampleInitParams(tournamentID, matchID string, knockout bool) domainmatches.InitParams {
	return domainmatches.InitParams{
		TournamentID:   tournamentID,
		MatchID:        matchID,
		TournamentName: "Spring Open",
		SportType:      "padel",
		RoundType:      domainmatches.RoundGroup,
		Knockout:       knockout,
		Team1: teams.Team{ID: 1, Name: "Team One", Players: []players.Player{
			{ID: 11, Name: "Ana"}, {ID: 12, Name: "Bea"},
		}},
		Team2: teams.Team{ID: 2, Name: "Team Two", Players: []players.Player{
			{ID: 21, Name: "Cris"}, {ID: 22, Name: "Dani"},
		}},
	}
}

// SampleMatch builds a fresh match document, failing the test on error.
func SampleMatch(t testing.TB, tournamentID, matchID string, knockout bool) domainmatches.Match {
	t.Helper()
	m, err := domainmatches.New(SampleInitParams(tournamentID, matchID, knockout), FixedStart)
	if err != nil {
		t.Fatalf("sample match: %v", err)
	}
	return m
}
