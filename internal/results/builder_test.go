package results

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/preston-bernstein/racket-score-service/internal/scoring"
	"github.com/preston-bernstein/racket-score-service/internal/testutil"
)

func TestBuildUploadKnockoutRows(t *testing.T) {
	m := testutil.SampleMatch(t, "t1", "42", true)
	score := m.CurrentMatchState.Score
	score.Sets[0] = scoring.SetScore{SideAGames: 6, SideBGames: 4, Completed: true, Winner: scoring.SideA}
	score.Sets[1] = scoring.SetScore{SideAGames: 3, SideBGames: 6, Completed: true, Winner: scoring.SideB}
	score.Sets[2] = scoring.SetScore{SideAGames: 5, SideBGames: 7, Completed: true, Winner: scoring.SideB}
	score.CurrentSetIndex = 2
	score.Completed = true
	score.Winner = scoring.SideB
	m.CurrentMatchState.Score = score

	upload, err := BuildUpload(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if upload.TournamentScheduleID != 42 || upload.MatchResult != MatchResultTeamBWon || upload.PlayStatus != PlayStatusCompleted || upload.IsReUploadResult {
		t.Fatalf("unexpected upload header %+v", upload)
	}

	var rows []Row
	if err := json.Unmarshal([]byte(upload.Results), &rows); err != nil {
		t.Fatalf("results must be a JSON string of rows: %v", err)
	}
	if len(rows) != 4*reportedRounds {
		t.Fatalf("expected 12 rows, got %d", len(rows))
	}
	first, last := rows[0], rows[len(rows)-1]
	if first.PlayerID != 11 || first.Side != scoring.SideA || first.Round != 1 || first.Points != 6 || first.GameType != 1 || first.ResultType != MatchResultTeamBWon {
		t.Fatalf("unexpected first row %+v", first)
	}
	if last.PlayerID != 22 || last.Side != scoring.SideB || last.Round != 3 || last.Points != 7 {
		t.Fatalf("unexpected last row %+v", last)
	}
}

func TestBuildUploadGroupPadsMissingRounds(t *testing.T) {
	m := testutil.SampleMatch(t, "t1", "7", false)
	m.CurrentMatchState.Score.Sets[0] = scoring.SetScore{SideAGames: 8, SideBGames: 6, Completed: true, Winner: scoring.SideA}
	m.CurrentMatchState.Score.Completed = true
	m.CurrentMatchState.Score.Winner = scoring.SideA
	m.UploadCount = 1

	upload, err := BuildUpload(m)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !upload.IsReUploadResult || upload.MatchResult != MatchResultTeamAWon {
		t.Fatalf("unexpected upload %+v", upload)
	}
	var rows []Row
	_ = json.Unmarshal([]byte(upload.Results), &rows)
	for _, r := range rows {
		if r.Round > 1 && r.Points != 0 {
			t.Fatalf("expected unplayed rounds to report zero, got %+v", r)
		}
	}
	if rows[0].Points != 8 || rows[3].Points != 8 {
		t.Fatalf("expected side A rows to carry 8 games")
	}
}

func TestBuildUploadRejects(t *testing.T) {
	open := testutil.SampleMatch(t, "t1", "7", false)
	if _, err := BuildUpload(open); !errors.Is(err, scoring.ErrInvalidArgument) {
		t.Fatalf("expected incomplete match to be rejected, got %v", err)
	}

	named := testutil.SampleMatch(t, "t1", "final-court", false)
	named.CurrentMatchState.Score.Completed = true
	named.CurrentMatchState.Score.Winner = scoring.SideA
	if _, err := BuildUpload(named); !errors.Is(err, scoring.ErrInvalidArgument) {
		t.Fatalf("expected non-numeric match id to be rejected, got %v", err)
	}
}
