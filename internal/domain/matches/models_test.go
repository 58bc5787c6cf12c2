package matches

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/preston-bernstein/racket-score-service/internal/domain/players"
	"github.com/preston-bernstein/racket-score-service/internal/domain/teams"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

func sampleParams(knockout bool) InitParams {
	return InitParams{
		TournamentID: "t1",
		MatchID:      "101",
		Knockout:     knockout,
		Team1:        teams.Team{ID: 1, Players: []players.Player{{ID: 11, Name: "Ana"}, {ID: 12, Name: "Bea"}}},
		Team2:        teams.Team{ID: 2, Players: []players.Player{{ID: 21, Name: "Cris"}, {ID: 22, Name: "Dani"}}},
	}
}

func TestStatusValues(t *testing.T) {
	if string(StatusInProgress) != "in-progress" || string(StatusCompleted) != "completed" {
		t.Fatalf("unexpected status values %q %q", StatusInProgress, StatusCompleted)
	}
}

func TestNewKnockoutMatch(t *testing.T) {
	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	m, err := New(sampleParams(true), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Settings != scoring.NewFormat(true) {
		t.Fatalf("unexpected settings %+v", m.Settings)
	}
	if len(m.Score().Sets) != 3 {
		t.Fatalf("expected 3 sets, got %d", len(m.Score().Sets))
	}
	if m.Status != StatusInProgress || m.RoundType != RoundGroup || m.SportType != "padel" {
		t.Fatalf("unexpected defaults %+v", m)
	}
	if !m.StartTime.Equal(now) || m.CurrentMatchState.PointHistory == nil {
		t.Fatalf("expected start time and empty history, got %+v", m.CurrentMatchState)
	}
}

func TestNewGroupMatchHasSingleSet(t *testing.T) {
	m, err := New(sampleParams(false), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Score().Sets) != 1 || m.Settings.GamesToWinSet != 8 {
		t.Fatalf("unexpected group match %+v", m.Score())
	}
}

func TestNewRejectsInvalidParams(t *testing.T) {
	cases := map[string]func(*InitParams){
		"missing tournament": func(p *InitParams) { p.TournamentID = "" },
		"slash in match id":  func(p *InitParams) { p.MatchID = "a/b" },
		"missing team":       func(p *InitParams) { p.Team2.ID = 0 },
		"same team":          func(p *InitParams) { p.Team2.ID = p.Team1.ID },
		"unknown round":      func(p *InitParams) { p.RoundType = "playoff" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := sampleParams(true)
			mutate(&p)
			if _, err := New(p, time.Now()); !errors.Is(err, scoring.ErrInvalidArgument) {
				t.Fatalf("expected invalid argument, got %v", err)
			}
		})
	}
}

func TestReinitializeKeepsTeamsAndFormat(t *testing.T) {
	m, _ := New(sampleParams(true), time.Now())
	m.CurrentMatchState.Score.Sets[0].SideAGames = 4
	m.Status = StatusCompleted
	end := time.Now()
	m.EndTime = &end
	m.ResultUploaded = true

	fresh := m.Reinitialize(time.Now())

	if !reflect.DeepEqual(fresh.Score(), scoring.NewMatchScore(m.Settings)) {
		t.Fatalf("expected zero score, got %+v", fresh.Score())
	}
	if fresh.Status != StatusInProgress || fresh.EndTime != nil || fresh.ResultUploaded {
		t.Fatalf("expected lifecycle reset, got %+v", fresh)
	}
	if fresh.Team1.ID != 1 || fresh.Team2.ID != 2 {
		t.Fatalf("expected teams preserved")
	}
	if m.Score().Sets[0].SideAGames != 4 {
		t.Fatalf("expected original untouched")
	}
}

func TestMatchJSONContract(t *testing.T) {
	m, _ := New(sampleParams(false), time.Now())
	raw, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"team1", "team2", "matchSettings", "currentMatchState", "status"} {
		if _, ok := doc[key]; !ok {
			t.Fatalf("missing %s in %s", key, raw)
		}
	}
	state := doc["currentMatchState"].(map[string]any)
	if _, ok := state["score"]; !ok {
		t.Fatalf("missing score in currentMatchState")
	}
	if _, ok := state["pointHistory"]; !ok {
		t.Fatalf("missing pointHistory in currentMatchState")
	}
}

func TestViewDisplay(t *testing.T) {
	m, _ := New(sampleParams(true), time.Now())
	m.CurrentMatchState.Score.CurrentGame = scoring.GameScore{SideAPoints: scoring.PointAdvantage, SideBPoints: scoring.PointForty}
	m.CurrentMatchState.Score.Sets[0] = scoring.SetScore{SideAGames: 6, Completed: true, Winner: scoring.SideA}

	v := NewView(m)
	if v.CurrentGameDisplay != (GameDisplay{SideA: "AD", SideB: "40"}) {
		t.Fatalf("unexpected display %+v", v.CurrentGameDisplay)
	}
	if v.SetsWonA != 1 || v.SetsWonB != 0 {
		t.Fatalf("unexpected sets won %d-%d", v.SetsWonA, v.SetsWonB)
	}
}

func TestPendingUpload(t *testing.T) {
	m, _ := New(sampleParams(false), time.Now())
	if m.PendingUpload() {
		t.Fatalf("in-progress match should not be pending upload")
	}
	m.Status = StatusCompleted
	m.CurrentMatchState.Score.Completed = true
	m.CurrentMatchState.Score.Winner = scoring.SideA
	if !m.PendingUpload() {
		t.Fatalf("expected completed match to be pending upload")
	}
	m.ResultUploaded = true
	if m.PendingUpload() {
		t.Fatalf("uploaded match should not be pending")
	}
}
