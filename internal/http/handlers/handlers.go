package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	appmatches "github.com/preston-bernstein/racket-score-service/internal/app/matches"
	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/results"
)

const readyTimeout = 2 * time.Second

// MatchSockets upgrades a request into a live match channel.
type MatchSockets interface {
	ServeMatch(w http.ResponseWriter, r *http.Request, key domainmatches.Key) error
}

// Handler wires HTTP routes to the match service.
type Handler struct {
	svc      *appmatches.Service
	sockets  MatchSockets
	logger   *slog.Logger
	statusFn func() results.Status
}

// NewHandler constructs a Handler. sockets and statusFn may be nil.
func NewHandler(svc *appmatches.Service, sockets MatchSockets, logger *slog.Logger, statusFn func() results.Status) *Handler {
	return &Handler{
		svc:      svc,
		sockets:  sockets,
		logger:   logger,
		statusFn: statusFn,
	}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		writeError(w, r, http.StatusServiceUnavailable, "shutting down", h.logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, h.logger)
}

type readyResponse struct {
	Status   string          `json:"status"`
	Uploader *uploaderStatus `json:"uploader,omitempty"`
}

type uploaderStatus struct {
	Ready               bool   `json:"ready"`
	ConsecutiveFailures int    `json:"consecutiveFailures"`
	LastError           string `json:"lastError,omitempty"`
	Uploaded            int    `json:"uploaded"`
}

// Ready reports readiness for traffic. Only the store gates readiness; the
// result uploader is reported for visibility since scoring works without it.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	if err := h.svc.Ping(ctx); err != nil {
		loggerFromContext(r, h.logger).Warn("store not reachable", "error", err)
		writeError(w, r, http.StatusServiceUnavailable, "store unavailable", h.logger)
		return
	}

	resp := readyResponse{Status: "ready"}
	if h.statusFn != nil {
		st := h.statusFn()
		resp.Uploader = &uploaderStatus{
			Ready:               st.IsReady(),
			ConsecutiveFailures: st.ConsecutiveFailures,
			LastError:           st.LastError,
			Uploaded:            st.Uploaded,
		}
	}
	writeJSON(w, http.StatusOK, resp, h.logger)
}
