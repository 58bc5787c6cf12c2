package server

import (
	"context"
	"log/slog"
	"net/http"

	appmatches "github.com/preston-bernstein/racket-score-service/internal/app/matches"
	"github.com/preston-bernstein/racket-score-service/internal/config"
	httpserver "github.com/preston-bernstein/racket-score-service/internal/http"
	"github.com/preston-bernstein/racket-score-service/internal/http/handlers"
	"github.com/preston-bernstein/racket-score-service/internal/logging"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
	"github.com/preston-bernstein/racket-score-service/internal/relay"
	"github.com/preston-bernstein/racket-score-service/internal/results"
	"github.com/preston-bernstein/racket-score-service/internal/store"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	store         store.MatchStore
	storeClose    func() error
	matches       *appmatches.Service
	hub           *relay.Hub
	httpServer    httpServer
	metricsServer httpServer
	uploader      Uploader
	metricsStop   func(context.Context) error
}

// New constructs a server from cfg: store, live relay, result uploader and HTTP surface.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	return newServerWithMetrics(cfg, logger, nil)
}

func newServerWithMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	st, closeStore, err := buildStore(cfg.Store, logger)
	if err != nil {
		if metricsShutdown != nil {
			_ = metricsShutdown(context.Background())
		}
		return nil, err
	}

	hub := relay.NewHub()
	svc, uploader := buildServices(cfg, st, hub, logger, recorder)
	httpSrv := buildHTTPServer(cfg, svc, hub, uploader, logger, recorder)

	srv := &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		store:         st,
		storeClose:    closeStore,
		matches:       svc,
		hub:           hub,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		metricsStop:   metricsShutdown,
	}
	// Assigned only when non-nil so the interface stays comparable to nil.
	if uploader != nil {
		srv.uploader = uploader
	}
	return srv, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, svc *appmatches.Service, httpSrv httpServer, uploader Uploader) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		matches:    svc,
		httpServer: httpSrv,
		uploader:   uploader,
	}
}

// notifyFunc adapts a func to appmatches.CompletionNotifier.
type notifyFunc func()

func (f notifyFunc) Notify() { f() }

// buildServices wires the match service to the relay hub and, when a backend
// is configured, to the result uploader. The uploader reads from the service
// and the service wakes the uploader, so the notifier resolves it lazily.
func buildServices(cfg config.Config, st store.MatchStore, hub *relay.Hub, logger *slog.Logger, recorder *metrics.Recorder) (*appmatches.Service, *results.Uploader) {
	opts := []appmatches.Option{
		appmatches.WithBroadcaster(hub),
		appmatches.WithLogger(logger),
		appmatches.WithRecorder(recorder),
	}

	client := results.NewClient(results.Config{
		BaseURL: cfg.Backend.BaseURL,
		Token:   cfg.Backend.Token,
	})
	if !client.Enabled() {
		logging.Info(logger, "no backend configured, result uploads disabled")
		return appmatches.NewService(st, opts...), nil
	}

	var uploader *results.Uploader
	opts = append(opts,
		appmatches.WithStatusReporter(client),
		appmatches.WithCompletionNotifier(notifyFunc(func() {
			if uploader != nil {
				uploader.Notify()
			}
		})),
	)
	svc := appmatches.NewService(st, opts...)
	uploader = results.NewUploader(svc, client, logger, recorder, results.UploaderConfig{
		Interval:   cfg.Backend.UploadInterval,
		MaxElapsed: cfg.Backend.UploadMaxElapsed,
	})
	return svc, uploader
}

func buildHTTPServer(cfg config.Config, svc *appmatches.Service, hub *relay.Hub, uploader *results.Uploader, logger *slog.Logger, recorder *metrics.Recorder) httpServer {
	var statusFn func() results.Status
	if uploader != nil {
		statusFn = uploader.Status
	}

	sockets := relay.NewHandler(hub, svc, logger, recorder, cfg.AllowedOrigins)
	handler := handlers.NewHandler(svc, sockets, logger, statusFn)
	router := httpserver.NewRouter(handler, httpserver.RouterConfig{
		Logger:         logger,
		Recorder:       recorder,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run starts the uploader and HTTP server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.startServer(stop)
	if s.uploader != nil {
		s.uploader.Start(ctx)
	}

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

// gracefulShutdown stops accepting requests first so no new points land, then
// lets the uploader finish its sweep before the store closes underneath it.
func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if s.uploader != nil {
		if err := s.uploader.Stop(shutdownCtx); err != nil {
			logging.Error(s.logger, "failed to stop uploader", err)
		}
	}

	if s.storeClose != nil {
		if err := s.storeClose(); err != nil {
			logging.Warn(s.logger, "store close failed", "error", err)
		}
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "error", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:              ":" + recCfg.Port,
				Handler:           handler,
				ReadHeaderTimeout: readTimeout,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
