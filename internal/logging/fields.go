package logging

import "log/slog"

// Common structured log field keys to keep logs searchable/consistent.
const (
	FieldService      = "service"
	FieldVersion      = "version"
	FieldRequestID    = "request_id"
	FieldPath         = "path"
	FieldMethod       = "method"
	FieldStatusCode   = "status_code"
	FieldCount        = "count"
	FieldDurationMS   = "duration_ms"
	FieldTournamentID = "tournament_id"
	FieldMatchID      = "match_id"
	FieldSide         = "side"
	FieldDirection    = "direction"
	FieldVersionNo    = "doc_version"
	FieldRole         = "role"
	FieldClientID     = "client_id"
	FieldAttempt      = "attempt"
)

// WithCommon appends service/version fields when provided.
func WithCommon(attrs []slog.Attr, service, version string) []slog.Attr {
	if service != "" {
		attrs = append(attrs, slog.String(FieldService, service))
	}
	if version != "" {
		attrs = append(attrs, slog.String(FieldVersion, version))
	}
	return attrs
}

// MatchAttrs returns the fields identifying a match document.
func MatchAttrs(tournamentID, matchID string) []any {
	return []any{FieldTournamentID, tournamentID, FieldMatchID, matchID}
}
