package testutil

import (
	"context"
	"testing"

	appmatches "github.com/preston-bernstein/racket-score-service/internal/app/matches"
	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
	"github.com/preston-bernstein/racket-score-service/internal/store"
)

// NewMatchService builds a matches service backed by a fresh in-memory store.
func NewMatchService(opts ...appmatches.Option) (*appmatches.Service, *store.MemoryStore) {
	ms := store.NewMemoryStore()
	opts = append([]appmatches.Option{appmatches.WithClock(NowAt(FixedStart))}, opts...)
	return appmatches.NewService(ms, opts...), ms
}

// PlayPoints applies increments for side n times, failing the test on error.
func PlayPoints(t testing.TB, svc *appmatches.Service, key domainmatches.Key, side scoring.Side, n int) domainmatches.Match {
	t.Helper()
	var m domainmatches.Match
	var err error
	for i := 0; i < n; i++ {
		m, err = svc.AddPoint(context.Background(), key, side, scoring.Increment)
		if err != nil {
			t.Fatalf("point %d for %s: %v", i+1, side, err)
		}
	}
	return m
}
