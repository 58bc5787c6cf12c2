package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/preston-bernstein/racket-score-service/internal/history"
	"github.com/preston-bernstein/racket-score-service/internal/http/middleware"
	"github.com/preston-bernstein/racket-score-service/internal/http/requestutil"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/scoring"
	"github.com/preston-bernstein/racket-score-service/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Error(logger, "failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, logger *slog.Logger) {
	reqID := middleware.RequestIDFromContext(r.Context())
	if reqID == "" {
		reqID = r.Header.Get(requestutil.HeaderRequestID)
	}
	body := map[string]string{"error": message}
	if reqID != "" {
		body["requestId"] = reqID
	}
	writeJSON(w, status, body, logger)
}

// writeServiceError maps service errors onto HTTP statuses. Only unexpected
// failures are logged at error level.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error(logger, "request failed", err)
		writeError(w, r, status, http.StatusText(status), logger)
		return
	}
	writeError(w, r, status, err.Error(), logger)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, scoring.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, scoring.ErrMatchAlreadyCompleted),
		errors.Is(err, history.ErrEmptyHistory),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrExists):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// decodeBody reads a bounded JSON body into dest. An empty body leaves dest untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: malformed body: %v", scoring.ErrInvalidArgument, err)
	}
	return nil
}

func loggerFromContext(r *http.Request, fallback *slog.Logger) *slog.Logger {
	if r == nil {
		return fallback
	}
	return logging.FromContext(r.Context(), fallback)
}
