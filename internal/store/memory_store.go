package store

import (
	"context"
	"sort"
	"sync"

	"github.com/preston-bernstein/racket-score-service/internal/domain/matches"
)

// MemoryStore keeps a thread-safe set of match documents in memory.
type MemoryStore struct {
	mu      sync.RWMutex
	matches map[matches.Key]matches.Match
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		matches: make(map[matches.Key]matches.Match),
	}
}

// Get retrieves a copy of the document at key.
func (s *MemoryStore) Get(ctx context.Context, key matches.Key) (matches.Match, error) {
	if err := ctx.Err(); err != nil {
		return matches.Match{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.matches[key]
	if !ok {
		return matches.Match{}, ErrNotFound
	}
	return m.Clone(), nil
}

// Create stores a new document at version 1.
func (s *MemoryStore) Create(ctx context.Context, m matches.Match) (matches.Match, error) {
	if err := ctx.Err(); err != nil {
		return matches.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.Key()
	if _, ok := s.matches[key]; ok {
		return matches.Match{}, ErrExists
	}
	m = m.Clone()
	m.Version = 1
	s.matches[key] = m
	return m.Clone(), nil
}

// Save replaces the document when its stored version equals expectedVersion.
func (s *MemoryStore) Save(ctx context.Context, m matches.Match, expectedVersion int64) (matches.Match, error) {
	if err := ctx.Err(); err != nil {
		return matches.Match{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	key := m.Key()
	current, ok := s.matches[key]
	if !ok {
		return matches.Match{}, ErrNotFound
	}
	if current.Version != expectedVersion {
		return matches.Match{}, ErrConflict
	}
	m = m.Clone()
	m.Version = expectedVersion + 1
	s.matches[key] = m
	return m.Clone(), nil
}

// Delete removes the document at key.
func (s *MemoryStore) Delete(ctx context.Context, key matches.Key) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.matches[key]; !ok {
		return ErrNotFound
	}
	delete(s.matches, key)
	return nil
}

// List returns copies of every match in a tournament ordered by match id.
func (s *MemoryStore) List(ctx context.Context, tournamentID string) ([]matches.Match, error) {
	return s.filter(ctx, func(m matches.Match) bool { return m.TournamentID == tournamentID })
}

// ListPendingUploads returns completed matches whose result has not been uploaded.
func (s *MemoryStore) ListPendingUploads(ctx context.Context) ([]matches.Match, error) {
	return s.filter(ctx, matches.Match.PendingUpload)
}

func (s *MemoryStore) filter(ctx context.Context, keep func(matches.Match) bool) ([]matches.Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]matches.Match, 0, len(s.matches))
	for _, m := range s.matches {
		if keep(m) {
			result = append(result, m.Clone())
		}
	}
	sortMatches(result)
	return result, nil
}

func sortMatches(items []matches.Match) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].TournamentID != items[j].TournamentID {
			return items[i].TournamentID < items[j].TournamentID
		}
		return items[i].MatchID < items[j].MatchID
	})
}

// Ping reports whether the store can serve requests.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
