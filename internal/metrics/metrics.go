package metrics

import (
	"errors"
	"sync"
	"time"
)

type operationStats struct {
	calls       int
	errors      int
	rejected    int
	lastLatency time.Duration
}

// Recorder captures lightweight, in-memory counters for scoring operations and
// forwards them to OpenTelemetry when configured.
type Recorder struct {
	mu          sync.Mutex
	stats       map[string]*operationStats
	relayOnline map[string]int
	otel        *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats:       make(map[string]*operationStats),
		relayOnline: make(map[string]int),
		otel:        otel,
	}
}

// ErrRejected marks an operation refused by domain rules rather than failed.
// Errors wrapping it count as rejections instead of errors.
var ErrRejected = errors.New("rejected")

// RecordOperation tracks a scoring or upload operation and its latency.
func (r *Recorder) RecordOperation(op string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	outcome := "ok"
	r.mu.Lock()
	stats := r.ensureStatsLocked(op)
	stats.calls++
	stats.lastLatency = duration
	switch {
	case err == nil:
	case errors.Is(err, ErrRejected):
		stats.rejected++
		outcome = "rejected"
	default:
		stats.errors++
		outcome = "error"
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordOperation(op, outcome, duration)
	}
}

// RelayClientJoined increments the live connection gauge for role.
func (r *Recorder) RelayClientJoined(role string) {
	r.relayDelta(role, 1)
}

// RelayClientLeft decrements the live connection gauge for role.
func (r *Recorder) RelayClientLeft(role string) {
	r.relayDelta(role, -1)
}

func (r *Recorder) relayDelta(role string, delta int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.relayOnline[role] += delta
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordRelayClients(role, int64(delta))
	}
}

// RelayClients returns the live connection count for role.
func (r *Recorder) RelayClients(role string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.relayOnline[role]
}

// Snapshot returns a copy of the current stats for an operation.
type Snapshot struct {
	Calls       int
	Errors      int
	Rejected    int
	LastLatency time.Duration
}

func (r *Recorder) Snapshot(op string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[op]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:       stats.calls,
		Errors:      stats.errors,
		Rejected:    stats.rejected,
		LastLatency: stats.lastLatency,
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordUploaderCycle tracks uploader sweeps and errors.
func (r *Recorder) RecordUploaderCycle(duration time.Duration, err error) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordUploaderCycle(duration, err)
}

func (r *Recorder) ensureStatsLocked(op string) *operationStats {
	stats, ok := r.stats[op]
	if !ok {
		stats = &operationStats{}
		r.stats[op] = stats
	}
	return stats
}
