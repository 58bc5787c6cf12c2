package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
)

// URL parameter names shared with the router.
const (
	ParamTournamentID = "tournamentID"
	ParamMatchID      = "matchID"
)

type pointRequest struct {
	Side      string `json:"side"`
	Direction string `json:"direction"`
}

func matchKey(r *http.Request) domainmatches.Key {
	return domainmatches.Key{
		TournamentID: chi.URLParam(r, ParamTournamentID),
		MatchID:      chi.URLParam(r, ParamMatchID),
	}
}

// LiveMatches lists the in-progress matches of a tournament. ?all=true
// includes completed ones.
func (h *Handler) LiveMatches(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	tournamentID := chi.URLParam(r, ParamTournamentID)

	list := h.svc.ListLive
	if r.URL.Query().Get("all") == "true" {
		list = h.svc.List
	}
	items, err := list(r.Context(), tournamentID)
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matches": domainmatches.NewViews(items),
		"count":   len(items),
	}, logger)
}

// InitializeMatch creates a match from the posted teams and format. The
// tournament in the path wins over any id in the body.
func (h *Handler) InitializeMatch(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	var params domainmatches.InitParams
	if err := decodeBody(w, r, &params); err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	params.TournamentID = chi.URLParam(r, ParamTournamentID)

	m, err := h.svc.Initialize(r.Context(), params)
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	w.Header().Set("Location", r.URL.Path+"/"+m.MatchID)
	writeJSON(w, http.StatusCreated, domainmatches.NewView(m), logger)
}

// GetMatch returns the full match document.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	m, err := h.svc.Get(r.Context(), matchKey(r))
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, domainmatches.NewView(m), logger)
}

// DeleteMatch removes the match and closes its live channel.
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	if err := h.svc.Delete(r.Context(), matchKey(r)); err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddPoint applies {side, direction}; direction defaults to increment.
func (h *Handler) AddPoint(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	var req pointRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	side, err := scoring.ParseSide(req.Side)
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	dir := scoring.Increment
	if req.Direction != "" {
		if dir, err = scoring.ParseDirection(req.Direction); err != nil {
			writeServiceError(w, r, err, logger)
			return
		}
	}

	m, err := h.svc.AddPoint(r.Context(), matchKey(r), side, dir)
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	logging.Info(logger, "point applied", logging.FieldSide, side, logging.FieldDirection, dir, logging.FieldVersionNo, m.Version)
	writeJSON(w, http.StatusOK, domainmatches.NewView(m), logger)
}

// Undo reverts the most recent point.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.svc.Undo)
}

// Reset returns the match to an all-zero score with empty history.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.svc.Reset)
}

// Complete finalizes a decided match and queues its result for upload.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.mutation(w, r, h.svc.Complete)
}

// History returns the recorded point history, oldest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	entries, err := h.svc.History(r.Context(), matchKey(r))
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"pointHistory": entries,
		"count":        len(entries),
	}, logger)
}

// MatchSocket joins the caller to the live channel of a match.
func (h *Handler) MatchSocket(w http.ResponseWriter, r *http.Request) {
	logger := loggerFromContext(r, h.logger)
	if h.sockets == nil {
		writeError(w, r, http.StatusNotImplemented, "live channels disabled", logger)
		return
	}
	if err := h.sockets.ServeMatch(w, r, matchKey(r)); err != nil {
		writeServiceError(w, r, err, logger)
	}
}

func (h *Handler) mutation(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, key domainmatches.Key) (domainmatches.Match, error)) {
	logger := loggerFromContext(r, h.logger)
	m, err := op(r.Context(), matchKey(r))
	if err != nil {
		writeServiceError(w, r, err, logger)
		return
	}
	writeJSON(w, http.StatusOK, domainmatches.NewView(m), logger)
}
