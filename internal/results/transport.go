package results

import (
	"net/http"
	"strings"
	"time"
)

const defaultHTTPTimeout = 10 * time.Second

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

func resolveHTTPClient(client *http.Client) httpDoer {
	if client != nil {
		return client
	}
	return &http.Client{Timeout: defaultHTTPTimeout}
}

func normalizeBaseURL(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), "/")
}
