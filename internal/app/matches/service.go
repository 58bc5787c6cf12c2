package matches

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/history"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
	"github.com/preston-bernstein/racket-score-service/internal/store"
)

// Broadcaster fans match changes out to live subscribers.
type Broadcaster interface {
	Publish(m domainmatches.Match)
	Remove(key domainmatches.Key)
	Subscribe(key domainmatches.Key, fn func(domainmatches.Match)) (unsubscribe func())
}

// CompletionNotifier is poked whenever a result becomes ready for upload.
type CompletionNotifier interface {
	Notify()
}

// StatusReporter tells the tournament backend a match has started.
type StatusReporter interface {
	ReportStarted(ctx context.Context, m domainmatches.Match) error
}

// Service coordinates scoring operations on stored match documents.
// Every mutation runs read, compute, write under a per-match lock, and the
// store rejects stale writes from other processes with store.ErrConflict.
type Service struct {
	store       store.MatchStore
	locks       *keyedMutex
	broadcaster Broadcaster
	notifier    CompletionNotifier
	status      StatusReporter
	logger      *slog.Logger
	recorder    *metrics.Recorder
	now         func() time.Time
	newID       func() string
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithBroadcaster publishes every saved document to b.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcaster = b }
}

func WithCompletionNotifier(n CompletionNotifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithStatusReporter(r StatusReporter) Option {
	return func(s *Service) { s.status = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithRecorder(r *metrics.Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides history entry ids.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService constructs a Service backed by st.
func NewService(st store.MatchStore, opts ...Option) *Service {
	s := &Service{
		store: st,
		locks: newKeyedMutex(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize creates the all-zero match document.
func (s *Service) Initialize(ctx context.Context, params domainmatches.InitParams) (domainmatches.Match, error) {
	start := time.Now()
	m, err := s.initialize(ctx, params)
	s.observe(metrics.OpInitialize, start, err)
	if err != nil {
		return domainmatches.Match{}, err
	}

	logger := s.loggerFor(ctx)
	logging.Info(logger, "match initialized", append(logging.MatchAttrs(m.TournamentID, m.MatchID), "knockout", m.Settings.Knockout)...)
	if s.status != nil {
		if err := s.status.ReportStarted(ctx, m); err != nil {
			logging.Warn(logger, "match status update failed", append(logging.MatchAttrs(m.TournamentID, m.MatchID), "error", err)...)
		}
	}
	return m, nil
}

func (s *Service) initialize(ctx context.Context, params domainmatches.InitParams) (domainmatches.Match, error) {
	m, err := domainmatches.New(params, s.now())
	if err != nil {
		return domainmatches.Match{}, err
	}
	unlock := s.locks.Lock(m.Key())
	defer unlock()

	created, err := s.store.Create(ctx, m)
	if err != nil {
		return domainmatches.Match{}, err
	}
	s.publish(created)
	return created, nil
}

// Get returns the match document at key.
func (s *Service) Get(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error) {
	if err := key.Validate(); err != nil {
		return domainmatches.Match{}, err
	}
	return s.store.Get(ctx, key)
}

// IsInitialized reports whether a document exists at key.
func (s *Service) IsInitialized(ctx context.Context, key domainmatches.Key) (bool, error) {
	_, err := s.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// List returns every match of a tournament.
func (s *Service) List(ctx context.Context, tournamentID string) ([]domainmatches.Match, error) {
	if err := (domainmatches.Key{TournamentID: tournamentID, MatchID: "_"}).Validate(); err != nil {
		return nil, err
	}
	return s.store.List(ctx, tournamentID)
}

// ListLive returns the in-progress matches of a tournament.
func (s *Service) ListLive(ctx context.Context, tournamentID string) ([]domainmatches.Match, error) {
	all, err := s.List(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	live := make([]domainmatches.Match, 0, len(all))
	for _, m := range all {
		if m.Status == domainmatches.StatusInProgress {
			live = append(live, m)
		}
	}
	return live, nil
}

// AddPoint applies one umpire event and records it in the match history.
func (s *Service) AddPoint(ctx context.Context, key domainmatches.Key, side scoring.Side, dir scoring.Direction) (domainmatches.Match, error) {
	start := time.Now()
	var completedNow bool
	m, err := s.mutate(ctx, key, func(m *domainmatches.Match) error {
		prev := m.Score()
		next, err := scoring.ApplyPoint(prev, m.Settings, side, dir)
		if err != nil {
			return err
		}
		log := s.historyLog(m)
		log.Record(prev, history.Event{Side: side, Direction: dir}, next)
		m.CurrentMatchState = domainmatches.State{Score: next, PointHistory: log.Entries()}

		if next.Completed && !prev.Completed {
			end := s.now().UTC()
			m.Status = domainmatches.StatusCompleted
			m.EndTime = &end
			completedNow = true
		}
		return nil
	})
	s.observe(metrics.OpPoint, start, err)

	logger := s.loggerFor(ctx)
	attrs := append(logging.MatchAttrs(key.TournamentID, key.MatchID), logging.FieldSide, side, logging.FieldDirection, dir)
	if errors.Is(err, scoring.ErrMatchAlreadyCompleted) {
		logging.Warn(logger, "point ignored on completed match", attrs...)
	}
	if err != nil {
		return domainmatches.Match{}, err
	}

	if completedNow {
		logging.Info(logger, "match completed", append(attrs, "winner", m.Score().Winner)...)
		s.notifyCompletion()
	}
	return m, nil
}

// Undo restores the exact state before the newest recorded event.
func (s *Service) Undo(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error) {
	start := time.Now()
	m, err := s.mutate(ctx, key, func(m *domainmatches.Match) error {
		log := s.historyLog(m)
		restored, err := log.UndoLast()
		if err != nil {
			return err
		}
		m.CurrentMatchState = domainmatches.State{Score: restored, PointHistory: log.Entries()}
		if !restored.Completed {
			m.Status = domainmatches.StatusInProgress
			m.EndTime = nil
			m.ResultUploaded = false
		}
		return nil
	})
	s.observe(metrics.OpUndo, start, err)
	if errors.Is(err, history.ErrEmptyHistory) {
		logging.Info(s.loggerFor(ctx), "nothing to undo", logging.MatchAttrs(key.TournamentID, key.MatchID)...)
	}
	return m, err
}

// Reset clears history and returns the match to the all-zero state for its format.
func (s *Service) Reset(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error) {
	start := time.Now()
	m, err := s.mutate(ctx, key, func(m *domainmatches.Match) error {
		*m = m.Reinitialize(s.now())
		return nil
	})
	s.observe(metrics.OpReset, start, err)
	if err == nil {
		logging.Info(s.loggerFor(ctx), "match reset", logging.MatchAttrs(key.TournamentID, key.MatchID)...)
	}
	return m, err
}

// Complete queues the result of a finished match for (re-)upload.
func (s *Service) Complete(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error) {
	start := time.Now()
	m, err := s.mutate(ctx, key, func(m *domainmatches.Match) error {
		if !m.Score().Completed {
			return fmt.Errorf("%w: match %s has no winner yet", scoring.ErrInvalidArgument, key)
		}
		m.Status = domainmatches.StatusCompleted
		if m.EndTime == nil {
			end := s.now().UTC()
			m.EndTime = &end
		}
		m.ResultUploaded = false
		return nil
	})
	s.observe(metrics.OpComplete, start, err)
	if err != nil {
		return domainmatches.Match{}, err
	}
	s.notifyCompletion()
	return m, nil
}

// Delete removes the match document and disconnects its subscribers.
func (s *Service) Delete(ctx context.Context, key domainmatches.Key) error {
	start := time.Now()
	err := s.delete(ctx, key)
	s.observe(metrics.OpDelete, start, err)
	if err == nil {
		logging.Info(s.loggerFor(ctx), "match deleted", logging.MatchAttrs(key.TournamentID, key.MatchID)...)
	}
	return err
}

func (s *Service) delete(ctx context.Context, key domainmatches.Key) error {
	if err := key.Validate(); err != nil {
		return err
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	if s.broadcaster != nil {
		s.broadcaster.Remove(key)
	}
	return nil
}

// History returns the recorded transitions, oldest first.
func (s *Service) History(ctx context.Context, key domainmatches.Key) ([]history.Entry, error) {
	m, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return m.CurrentMatchState.PointHistory, nil
}

// LoadMatchState returns only the score at key.
func (s *Service) LoadMatchState(ctx context.Context, key domainmatches.Key) (scoring.MatchScore, error) {
	m, err := s.Get(ctx, key)
	if err != nil {
		return scoring.MatchScore{}, err
	}
	return m.Score(), nil
}

// SaveMatchState overwrites the score at key, optionally appending a history entry.
func (s *Service) SaveMatchState(ctx context.Context, key domainmatches.Key, score scoring.MatchScore, entry *history.Entry) (domainmatches.Match, error) {
	return s.mutate(ctx, key, func(m *domainmatches.Match) error {
		if err := score.Validate(m.Settings); err != nil {
			return err
		}
		m.CurrentMatchState.Score = score.Clone()
		if entry != nil {
			m.CurrentMatchState.PointHistory = append(m.CurrentMatchState.PointHistory, entry.Clone())
		}
		if score.Completed {
			m.Status = domainmatches.StatusCompleted
			if m.EndTime == nil {
				end := s.now().UTC()
				m.EndTime = &end
			}
		} else {
			m.Status = domainmatches.StatusInProgress
			m.EndTime = nil
			m.ResultUploaded = false
		}
		return nil
	})
}

// SubscribeMatchUpdates registers fn for every change of the match at key.
func (s *Service) SubscribeMatchUpdates(key domainmatches.Key, fn func(domainmatches.Match)) (func(), error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil subscriber", scoring.ErrInvalidArgument)
	}
	if s.broadcaster == nil {
		return func() {}, nil
	}
	return s.broadcaster.Subscribe(key, fn), nil
}

// Ping checks that the backing store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PendingUploads lists completed matches whose result still needs uploading.
func (s *Service) PendingUploads(ctx context.Context) ([]domainmatches.Match, error) {
	return s.store.ListPendingUploads(ctx)
}

// MarkUploaded flags uploaded as delivered unless the match changed since it
// was read, in which case store.ErrConflict is returned and it stays pending.
func (s *Service) MarkUploaded(ctx context.Context, uploaded domainmatches.Match) error {
	key := uploaded.Key()
	unlock := s.locks.Lock(key)
	defer unlock()

	current, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if current.Version != uploaded.Version {
		return store.ErrConflict
	}
	current.ResultUploaded = true
	current.UploadCount++
	current.LastUpdated = s.now().UTC()
	saved, err := s.store.Save(ctx, current, current.Version)
	if err != nil {
		return err
	}
	s.publish(saved)
	return nil
}

// mutate loads key, applies fn and saves the result under the match lock.
func (s *Service) mutate(ctx context.Context, key domainmatches.Key, fn func(*domainmatches.Match) error) (domainmatches.Match, error) {
	if err := key.Validate(); err != nil {
		return domainmatches.Match{}, err
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	m, err := s.store.Get(ctx, key)
	if err != nil {
		return domainmatches.Match{}, err
	}
	expected := m.Version
	if err := fn(&m); err != nil {
		return domainmatches.Match{}, err
	}
	m.LastUpdated = s.now().UTC()

	saved, err := s.store.Save(ctx, m, expected)
	if err != nil {
		return domainmatches.Match{}, fmt.Errorf("save match %s: %w", key, err)
	}
	s.publish(saved)
	return saved, nil
}

func (s *Service) historyLog(m *domainmatches.Match) *history.Log {
	return history.NewLog(m.CurrentMatchState.PointHistory, history.WithClock(s.now), history.WithIDs(s.newID))
}

func (s *Service) publish(m domainmatches.Match) {
	if s.broadcaster != nil {
		s.broadcaster.Publish(m)
	}
}

func (s *Service) notifyCompletion() {
	if s.notifier != nil {
		s.notifier.Notify()
	}
}

func (s *Service) observe(op string, start time.Time, err error) {
	if err != nil && isRejection(err) {
		err = fmt.Errorf("%w: %w", metrics.ErrRejected, err)
	}
	s.recorder.RecordOperation(op, time.Since(start), err)
}

func (s *Service) loggerFor(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

func isRejection(err error) bool {
	return errors.Is(err, scoring.ErrInvalidArgument) ||
		errors.Is(err, scoring.ErrMatchAlreadyCompleted) ||
		errors.Is(err, history.ErrEmptyHistory) ||
		errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrExists)
}
