package results

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
	"github.com/preston-bernstein/racket-score-service/internal/store"
)

const (
	defaultInterval       = 30 * time.Second
	defaultMaxElapsed     = 2 * time.Minute
	defaultInitialBackoff = 500 * time.Millisecond
)

// Source lists completed matches and records delivered uploads.
type Source interface {
	PendingUploads(ctx context.Context) ([]domainmatches.Match, error)
	MarkUploaded(ctx context.Context, m domainmatches.Match) error
}

// Sink delivers one upload.
type Sink interface {
	UploadResult(ctx context.Context, upload Upload) error
}

// UploaderConfig tunes the sweep cadence and per-upload retry budget.
type UploaderConfig struct {
	Interval       time.Duration
	MaxElapsed     time.Duration
	InitialBackoff time.Duration
}

// Uploader sweeps pending results on an interval, or sooner when notified,
// and pushes each one to the backend with exponential backoff.
type Uploader struct {
	source  Source
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Recorder
	cfg     UploaderConfig

	ticker   *time.Ticker
	wake     chan struct{}
	done     chan struct{}
	finished chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the upload loop.
type Status struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
	Uploaded            int
}

// IsReady reports whether a sweep has succeeded recently and the loop is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// NewUploader constructs an Uploader with sane defaults.
func NewUploader(source Source, sink Sink, logger *slog.Logger, recorder *metrics.Recorder, cfg UploaderConfig) *Uploader {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.MaxElapsed <= 0 {
		cfg.MaxElapsed = defaultMaxElapsed
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = defaultInitialBackoff
	}
	return &Uploader{
		source:   source,
		sink:     sink,
		logger:   logger,
		metrics:  recorder,
		cfg:      cfg,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins sweeping until the context is cancelled or Stop is called.
func (u *Uploader) Start(ctx context.Context) {
	u.startMu.Lock()
	if u.started {
		u.startMu.Unlock()
		return
	}
	u.started = true
	u.startMu.Unlock()

	u.ticker = time.NewTicker(u.cfg.Interval)
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		<-u.done
		cancel()
	}()

	go func() {
		defer close(u.finished)
		defer cancel()
		logging.Info(u.logger, "uploader started", logging.FieldDurationMS, u.cfg.Interval.Milliseconds())
		// Pick up results left pending by a previous run.
		u.Sweep(ctx)

		for {
			select {
			case <-ctx.Done():
				u.ticker.Stop()
				logging.Info(u.logger, "uploader stopped")
				return
			case <-u.ticker.C:
				u.Sweep(ctx)
			case <-u.wake:
				u.Sweep(ctx)
			}
		}
	}()
}

// Notify requests a sweep without waiting for the next tick.
func (u *Uploader) Notify() {
	select {
	case u.wake <- struct{}{}:
	default:
	}
}

// Stop halts the loop and waits for an in-flight sweep to return or ctx to expire.
func (u *Uploader) Stop(ctx context.Context) error {
	u.stopOnce.Do(func() {
		close(u.done)
	})
	u.startMu.Lock()
	started := u.started
	u.startMu.Unlock()
	if !started {
		return nil
	}
	select {
	case <-u.finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep uploads every pending result once and returns the first failure.
func (u *Uploader) Sweep(ctx context.Context) error {
	start := time.Now()
	u.recordAttempt(start)

	pending, err := u.source.PendingUploads(ctx)
	if err == nil {
		for _, m := range pending {
			if uploadErr := u.uploadOne(ctx, m); uploadErr != nil && err == nil {
				err = uploadErr
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	u.metrics.RecordUploaderCycle(time.Since(start), err)
	if err != nil {
		logging.Error(u.logger, "uploader sweep failed", err, logging.FieldCount, len(pending))
		u.recordFailure(err, start)
		return err
	}
	u.recordSuccess(start)
	if len(pending) > 0 {
		logging.Info(u.logger, "uploader sweep complete",
			logging.FieldCount, len(pending),
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	}
	return nil
}

func (u *Uploader) uploadOne(ctx context.Context, m domainmatches.Match) error {
	start := time.Now()
	attrs := logging.MatchAttrs(m.TournamentID, m.MatchID)

	upload, err := BuildUpload(m)
	if err != nil {
		// Malformed documents cannot succeed on retry; leave them pending for an operator.
		logging.Error(u.logger, "result not uploadable", err, attrs...)
		u.metrics.RecordOperation(metrics.OpUpload, time.Since(start), err)
		return nil
	}

	attempt := 0
	op := func() error {
		attempt++
		err := u.sink.UploadResult(ctx, upload)
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.Temporary() {
			return backoff.Permanent(err)
		}
		if errors.Is(err, ErrDisabled) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		logging.Warn(u.logger, "result upload retry", append(attrs,
			logging.FieldAttempt, attempt, "wait_ms", wait.Milliseconds(), "error", err)...)
	}

	err = backoff.RetryNotify(op, backoff.WithContext(u.newBackOff(), ctx), notify)
	u.metrics.RecordOperation(metrics.OpUpload, time.Since(start), err)
	if err != nil {
		return err
	}

	if err := u.source.MarkUploaded(ctx, m); err != nil {
		if errors.Is(err, store.ErrConflict) || errors.Is(err, store.ErrNotFound) {
			// Score changed or match deleted while uploading; the next sweep sees the new state.
			logging.Info(u.logger, "uploaded result superseded", append(attrs, "error", err)...)
			return nil
		}
		return err
	}

	u.statusMu.Lock()
	u.status.Uploaded++
	u.statusMu.Unlock()
	logging.Info(u.logger, "result uploaded", append(attrs, "reupload", upload.IsReUploadResult)...)
	return nil
}

func (u *Uploader) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.cfg.InitialBackoff
	b.MaxElapsedTime = u.cfg.MaxElapsed
	return b
}

func (u *Uploader) recordAttempt(at time.Time) {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	u.status.LastAttempt = at
}

func (u *Uploader) recordSuccess(at time.Time) {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	u.status.ConsecutiveFailures = 0
	u.status.LastError = ""
	u.status.LastSuccess = at
}

func (u *Uploader) recordFailure(err error, at time.Time) {
	u.statusMu.Lock()
	defer u.statusMu.Unlock()
	u.status.ConsecutiveFailures++
	if err != nil {
		u.status.LastError = err.Error()
	}
	u.status.LastAttempt = at
}

// Status returns a snapshot of the uploader's recent health.
func (u *Uploader) Status() Status {
	u.statusMu.RLock()
	defer u.statusMu.RUnlock()
	return u.status
}
