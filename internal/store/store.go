package store

import (
	"context"
	"errors"

	"github.com/preston-bernstein/racket-score-service/internal/domain/matches"
)

var (
	// ErrNotFound is returned when no document exists for a key.
	ErrNotFound = errors.New("match not found")
	// ErrExists is returned by Create when the key is already taken.
	ErrExists = errors.New("match already initialized")
	// ErrConflict is returned by Save when the stored version moved on.
	ErrConflict = errors.New("match was modified concurrently")
)

// MatchStore persists match documents keyed by (tournament, match).
//
// Save is a compare-and-set: it succeeds only when the stored document still
// carries expectedVersion, and it returns the document with its new version.
type MatchStore interface {
	Get(ctx context.Context, key matches.Key) (matches.Match, error)
	Create(ctx context.Context, m matches.Match) (matches.Match, error)
	Save(ctx context.Context, m matches.Match, expectedVersion int64) (matches.Match, error)
	Delete(ctx context.Context, key matches.Key) error
	List(ctx context.Context, tournamentID string) ([]matches.Match, error)
	ListPendingUploads(ctx context.Context) ([]matches.Match, error)
	Ping(ctx context.Context) error
}
