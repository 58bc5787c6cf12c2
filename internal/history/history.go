package history

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

// ErrEmptyHistory is returned by UndoLast when nothing has been recorded.
var ErrEmptyHistory = errors.New("nothing to undo")

// Event is the umpire action that produced a transition.
type Event struct {
	Side      scoring.Side      `json:"side"`
	Direction scoring.Direction `json:"direction"`
}

// Entry pairs an applied event with full before/after snapshots.
type Entry struct {
	ID            string             `json:"id"`
	Side          scoring.Side       `json:"side"`
	Direction     scoring.Direction  `json:"direction"`
	Timestamp     time.Time          `json:"timestamp"`
	PreviousState scoring.MatchScore `json:"previousState"`
	ResultState   scoring.MatchScore `json:"resultState"`
}

// Clone deep-copies both snapshots.
func (e Entry) Clone() Entry {
	e.PreviousState = e.PreviousState.Clone()
	e.ResultState = e.ResultState.Clone()
	return e
}

// Log is the append-only transition log of one match.
// It is not safe for concurrent use; callers serialize access per match.
type Log struct {
	entries []Entry
	now     func() time.Time
	newID   func() string
}

// Option customizes a Log.
type Option func(*Log)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(l *Log) {
		if now != nil {
			l.now = now
		}
	}
}

// WithIDs overrides the entry id generator.
func WithIDs(newID func() string) Option {
	return func(l *Log) {
		if newID != nil {
			l.newID = newID
		}
	}
}

// NewLog rebuilds a log from persisted entries.
func NewLog(entries []Entry, opts ...Option) *Log {
	l := &Log{
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(l)
	}
	l.entries = cloneEntries(entries)
	return l
}

// Record appends a transition and returns the stored entry.
func (l *Log) Record(previous scoring.MatchScore, ev Event, result scoring.MatchScore) Entry {
	entry := Entry{
		ID:            l.newID(),
		Side:          ev.Side,
		Direction:     ev.Direction,
		Timestamp:     l.now().UTC(),
		PreviousState: previous.Clone(),
		ResultState:   result.Clone(),
	}
	l.entries = append(l.entries, entry)
	return entry.Clone()
}

// UndoLast pops the newest entry and returns the exact state before it.
func (l *Log) UndoLast() (scoring.MatchScore, error) {
	if len(l.entries) == 0 {
		return scoring.MatchScore{}, ErrEmptyHistory
	}
	last := l.entries[len(l.entries)-1]
	l.entries = l.entries[:len(l.entries)-1]
	return last.PreviousState.Clone(), nil
}

// Reset drops every entry. The caller reinitializes the score from its format.
func (l *Log) Reset() {
	l.entries = nil
}

// Last returns the newest entry if any.
func (l *Log) Last() (Entry, bool) {
	if len(l.entries) == 0 {
		return Entry{}, false
	}
	return l.entries[len(l.entries)-1].Clone(), true
}

// Len returns the number of recorded transitions.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the log, oldest first.
func (l *Log) Entries() []Entry {
	return cloneEntries(l.entries)
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	return out
}
