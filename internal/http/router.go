package http

import (
	"log/slog"
	nethttp "net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/preston-bernstein/racket-score-service/internal/http/handlers"
	"github.com/preston-bernstein/racket-score-service/internal/http/middleware"
	"github.com/preston-bernstein/racket-score-service/internal/http/requestutil"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
)

// RouterConfig carries the cross-cutting pieces the router installs.
type RouterConfig struct {
	Logger         *slog.Logger
	Recorder       *metrics.Recorder
	AllowedOrigins []string
}

// NewRouter registers the match routes on a chi router.
func NewRouter(handler *handlers.Handler, cfg RouterConfig) nethttp.Handler {
	r := chi.NewRouter()
	// Logging runs inside chi so the matched route pattern is known when it records metrics.
	r.Use(func(next nethttp.Handler) nethttp.Handler {
		return middleware.LoggingMiddleware(cfg.Logger, cfg.Recorder, next)
	})
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(corsOptions(cfg.AllowedOrigins)))

	r.Get("/health", handler.Health)
	r.Get("/ready", handler.Ready)

	r.Route("/tournaments/{"+handlers.ParamTournamentID+"}/matches", func(r chi.Router) {
		r.Get("/", handler.LiveMatches)
		r.Post("/", handler.InitializeMatch)

		r.Route("/{"+handlers.ParamMatchID+"}", func(r chi.Router) {
			r.Get("/", handler.GetMatch)
			r.Delete("/", handler.DeleteMatch)
			r.Post("/points", handler.AddPoint)
			r.Post("/undo", handler.Undo)
			r.Post("/reset", handler.Reset)
			r.Post("/complete", handler.Complete)
			r.Get("/history", handler.History)
			r.Get("/ws", handler.MatchSocket)
		})
	})
	return r
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{nethttp.MethodGet, nethttp.MethodPost, nethttp.MethodDelete, nethttp.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", requestutil.HeaderRequestID},
		ExposedHeaders: []string{requestutil.HeaderRequestID, "Location"},
		MaxAge:         300,
	}
}
