package results

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/preston-bernstein/racket-score-service/internal/testutil"
)

func TestUploadResultPostsWithBearerToken(t *testing.T) {
	var gotPath, gotAuth string
	var got Upload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"status":1}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/api/", Token: "secret"})
	err := c.UploadResult(context.Background(), Upload{TournamentScheduleID: 9, MatchResult: MatchResultTeamAWon, PlayStatus: PlayStatusCompleted})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if gotPath != "/api/UpdateTournamentMatchResult" || gotAuth != "Bearer secret" || got.TournamentScheduleID != 9 {
		t.Fatalf("unexpected request path=%s auth=%s body=%+v", gotPath, gotAuth, got)
	}
}

func TestClientErrors(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"server error", http.StatusBadGateway, "upstream down", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && se.Temporary()
		}},
		{"client error", http.StatusUnauthorized, "bad token", func(err error) bool {
			var se *StatusError
			return errors.As(err, &se) && !se.Temporary() && se.StatusCode == http.StatusUnauthorized
		}},
		{"rejected", http.StatusOK, `{"status":0,"message":"locked"}`, func(err error) bool {
			return errors.Is(err, ErrRejected)
		}},
		{"garbage", http.StatusOK, `not json`, func(err error) bool {
			return err != nil && !errors.Is(err, ErrRejected)
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			err := NewClient(Config{BaseURL: srv.URL}).UpdateMatchStatus(context.Background(), 1, PlayStatusInProgress)
			if !tc.check(err) {
				t.Fatalf("unexpected error %v", err)
			}
		})
	}
}

func TestReportStarted(t *testing.T) {
	var got statusUpdate
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/UpdateTournamentMatchStatus" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = io.WriteString(w, `{"status":1}`)
	}))
	defer srv.Close()

	m := testutil.SampleMatch(t, "t1", "55", true)
	if err := NewClient(Config{BaseURL: srv.URL}).ReportStarted(context.Background(), m); err != nil {
		t.Fatalf("report: %v", err)
	}
	if got.TournamentScheduleID != 55 || got.PlayStatus != PlayStatusInProgress {
		t.Fatalf("unexpected status body %+v", got)
	}
}

func TestDisabledClient(t *testing.T) {
	c := NewClient(Config{})
	if c.Enabled() {
		t.Fatalf("expected client without base url to be disabled")
	}
	if err := c.ReportStarted(context.Background(), testutil.SampleMatch(t, "t1", "1", true)); err != nil {
		t.Fatalf("disabled status report should be a no-op, got %v", err)
	}
	if err := c.UploadResult(context.Background(), Upload{}); !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
