package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	domainmatches "github.com/preston-bernstein/racket-score-service/internal/domain/matches"
)

const (
	pathUpdateResult = "/UpdateTournamentMatchResult"
	pathUpdateStatus = "/UpdateTournamentMatchStatus"
	statusAccepted   = 1
)

// ErrRejected is returned when the backend answers 2xx with a non-success status.
var ErrRejected = errors.New("backend rejected request")

// ErrDisabled is returned when no backend base URL is configured.
var ErrDisabled = errors.New("backend not configured")

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Temporary reports whether retrying may help.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode == http.StatusRequestTimeout
}

// Config controls how the client reaches the tournament backend.
type Config struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// Client talks to the tournament backend REST API.
type Client struct {
	baseURL    string
	token      string
	httpClient httpDoer
}

// NewClient constructs a backend client.
func NewClient(cfg Config) *Client {
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		token:      cfg.Token,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
	}
}

// Enabled reports whether a base URL is configured.
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// UploadResult posts a completed match result.
func (c *Client) UploadResult(ctx context.Context, upload Upload) error {
	return c.post(ctx, pathUpdateResult, upload)
}

// UpdateMatchStatus sets the play status of a schedule entry.
func (c *Client) UpdateMatchStatus(ctx context.Context, scheduleID int64, status PlayStatus) error {
	return c.post(ctx, pathUpdateStatus, statusUpdate{TournamentScheduleID: scheduleID, PlayStatus: status})
}

// ReportStarted marks m as in progress on the backend.
func (c *Client) ReportStarted(ctx context.Context, m domainmatches.Match) error {
	if !c.Enabled() {
		return nil
	}
	id, err := ScheduleID(m)
	if err != nil {
		return err
	}
	return c.UpdateMatchStatus(ctx, id, PlayStatusInProgress)
}

type statusUpdate struct {
	TournamentScheduleID int64      `json:"tournamentScheduleId"`
	PlayStatus           PlayStatus `json:"playStatus"`
}

type backendResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	var out backendResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("backend %s: decode response: %w", path, err)
	}
	if out.Status != statusAccepted {
		return fmt.Errorf("%w: %s status=%d %s", ErrRejected, path, out.Status, out.Message)
	}
	return nil
}
