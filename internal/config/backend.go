package config

import "strings"

// BackendConfig controls how results reach the tournament backend.
type BackendConfig struct {
	BaseURL          string
	Token            string
	UploadInterval   Duration
	UploadMaxElapsed Duration
}

// Enabled reports whether a backend is configured.
func (b BackendConfig) Enabled() bool {
	return strings.TrimSpace(b.BaseURL) != ""
}

func loadBackend() BackendConfig {
	return BackendConfig{
		BaseURL:          envOrDefault(envBackendURL, ""),
		Token:            envOrDefault(envBackendToken, ""),
		UploadInterval:   durationEnvOrDefault(envUploadEvery, defaultUploadInterval),
		UploadMaxElapsed: durationEnvOrDefault(envUploadBudget, defaultUploadMaxElapsed),
	}
}
