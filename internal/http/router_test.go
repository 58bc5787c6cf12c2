package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/preston-bernstein/racket-score-service/internal/http/handlers"
	"github.com/preston-bernstein/racket-score-service/internal/http/requestutil"
	"github.com/preston-bernstein/racket-score-service/internal/metrics"
	"github.com/preston-bernstein/racket-score-service/internal/testutil"
)

func newTestRouter(t *testing.T, origins ...string) (http.Handler, *metrics.Recorder) {
	t.Helper()
	svc, _ := testutil.NewMatchService()
	rec := metrics.NewRecorder()
	logger, _ := testutil.NewBufferLogger()
	h := handlers.NewHandler(svc, nil, logger, nil)
	return NewRouter(h, RouterConfig{Logger: logger, Recorder: rec, AllowedOrigins: origins}), rec
}

func TestRouterRoutesKnownPaths(t *testing.T) {
	router, _ := newTestRouter(t)

	body := `{"matchId":"1","team1":{"id":1},"team2":{"id":2}}`
	rr := testutil.Serve(router, http.MethodPost, "/tournaments/t1/matches", strings.NewReader(body))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	if rr.Header().Get(requestutil.HeaderRequestID) == "" {
		t.Fatalf("expected request id header from logging middleware")
	}

	cases := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/tournaments/t1/matches", http.StatusOK},
		{http.MethodGet, "/tournaments/t1/matches/1", http.StatusOK},
		{http.MethodGet, "/tournaments/t1/matches/1/history", http.StatusOK},
		{http.MethodGet, "/tournaments/t1/matches/404", http.StatusNotFound},
		{http.MethodPost, "/tournaments/t1/matches/1/undo", http.StatusConflict},
	}
	for _, tc := range cases {
		rr := testutil.Serve(router, tc.method, tc.path, nil)
		if rr.Code != tc.want {
			t.Fatalf("%s %s expected status %d, got %d", tc.method, tc.path, tc.want, rr.Code)
		}
	}
}

func TestRouterUnknownRouteReturns404(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := testutil.Serve(router, http.MethodGet, "/unknown", nil)
	testutil.AssertStatus(t, rr, http.StatusNotFound)
}

func TestRouterRejectsWrongMethod(t *testing.T) {
	router, _ := newTestRouter(t)
	rr := testutil.Serve(router, http.MethodPut, "/health", nil)
	testutil.AssertStatus(t, rr, http.StatusMethodNotAllowed)
}

func TestRouterCORSPreflight(t *testing.T) {
	router, _ := newTestRouter(t, "https://scores.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/tournaments/t1/matches/1/points", nil)
	req.Header.Set("Origin", "https://scores.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := testutil.ServeRequest(router, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://scores.example.com" {
		t.Fatalf("expected allowed origin echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = testutil.ServeRequest(router, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected unknown origin to be refused, got %q", got)
	}
}

func TestRouterRecordsRoutePatternMetrics(t *testing.T) {
	rec, promHandler, shutdown, err := metrics.Setup(context.Background(), metrics.TelemetryConfig{Enabled: true})
	if err != nil {
		t.Fatalf("metrics setup: %v", err)
	}
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	svc, _ := testutil.NewMatchService()
	router := NewRouter(handlers.NewHandler(svc, nil, nil, nil), RouterConfig{Recorder: rec})
	testutil.Serve(router, http.MethodGet, "/tournaments/t1/matches/abc123", nil)

	scrape := testutil.Serve(promHandler, http.MethodGet, "/metrics", nil).Body.String()
	if !strings.Contains(scrape, "{matchID}") {
		t.Fatalf("expected route pattern label in metrics, got %s", scrape)
	}
	if strings.Contains(scrape, "abc123") {
		t.Fatalf("expected raw path to stay out of metric labels")
	}
}
